package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmercado/casaway/internal/models"
	"github.com/kmercado/casaway/internal/repositories"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration setup failed: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()
	_ = testDB.Teardown(ctx)
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	require.NoError(t, testDB.TruncateAll(context.Background()))
}

func day(offset int) time.Time {
	base := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func seedBookableRoom(t *testing.T) (guestID, roomID string) {
	seedDB := openSeedDB(t, testDB.ConnString)
	hostID := seedUser(t, seedDB, "host@example.com", "x", models.RoleHost)
	guestID = seedUser(t, seedDB, "guest@example.com", "x", models.RoleGuest)
	propertyID := seedProperty(t, seedDB, hostID, "Lisbon", []string{"front.jpg"})
	roomID = seedRoom(t, seedDB, propertyID, "100.00")
	seedAvailability(t, seedDB, roomID, day(0), day(30))
	return guestID, roomID
}

func TestBookingOverlapRejected(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	guestID, roomID := seedBookableRoom(t)
	bookings := repositories.NewBookingRepository(testDB.DB)

	first, err := bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(1),
		CheckOutDate: day(4),
		GuestsCount:  2,
		TotalPrice:   decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, first.Status)

	_, err = bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(2),
		CheckOutDate: day(5),
		GuestsCount:  1,
		TotalPrice:   decimal.NewFromInt(300),
	})
	assert.ErrorIs(t, err, models.ErrRoomUnavailable)

	// Half-open intervals: checking in on the previous check-out day is fine.
	_, err = bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(4),
		CheckOutDate: day(6),
		GuestsCount:  1,
		TotalPrice:   decimal.NewFromInt(200),
	})
	assert.NoError(t, err)
}

func TestCancelledBookingFreesDates(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	guestID, roomID := seedBookableRoom(t)
	bookings := repositories.NewBookingRepository(testDB.DB)

	booked, err := bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(10),
		CheckOutDate: day(14),
		GuestsCount:  2,
		TotalPrice:   decimal.NewFromInt(400),
	})
	require.NoError(t, err)

	_, err = bookings.UpdateStatus(ctx, booked.ID, models.BookingPending, models.BookingCancelled)
	require.NoError(t, err)

	_, err = bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(11),
		CheckOutDate: day(13),
		GuestsCount:  1,
		TotalPrice:   decimal.NewFromInt(200),
	})
	assert.NoError(t, err)
}

func TestBookingStatusCompareAndSet(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	guestID, roomID := seedBookableRoom(t)
	bookings := repositories.NewBookingRepository(testDB.DB)

	booked, err := bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(20),
		CheckOutDate: day(22),
		GuestsCount:  1,
		TotalPrice:   decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	confirmed, err := bookings.UpdateStatus(ctx, booked.ID, models.BookingPending, models.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	// Expected-status mismatch reports not found so callers can treat the
	// lost race as an invalid transition.
	_, err = bookings.UpdateStatus(ctx, booked.ID, models.BookingPending, models.BookingConfirmed)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookingReferenceIsSequential(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	guestID, roomID := seedBookableRoom(t)
	bookings := repositories.NewBookingRepository(testDB.DB)

	first, err := bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(1),
		CheckOutDate: day(2),
		GuestsCount:  1,
		TotalPrice:   decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	second, err := bookings.Create(ctx, &models.Booking{
		UserID:       guestID,
		RoomID:       roomID,
		CheckInDate:  day(2),
		CheckOutDate: day(3),
		GuestsCount:  1,
		TotalPrice:   decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	assert.Greater(t, second.Sequence, first.Sequence)
	assert.Equal(t, fmt.Sprintf("BK-%06d", first.Sequence), first.Reference())
}

func TestUserDuplicateEmailMapped(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	users := repositories.NewUserRepository(testDB.DB)

	_, err := users.Create(ctx, &models.User{
		Name:         "First",
		Email:        "taken@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	_, err = users.Create(ctx, &models.User{
		Name:         "Second",
		Email:        "taken@example.com",
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestTokenRotateLosesRaceOnce(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	seedDB := openSeedDB(t, testDB.ConnString)
	userID := seedUser(t, seedDB, "rotator@example.com", "x", models.RoleGuest)
	oldID := seedToken(t, seedDB, userID, "hash-old", []string{models.AbilityAll}, day(60))

	tokens := repositories.NewTokenRepository(testDB.DB)

	rotated, err := tokens.Rotate(ctx, oldID, &models.AuthToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      "seed-device",
		TokenHash: "hash-new",
		Abilities: []string{models.AbilityAll},
		ExpiresAt: day(90),
	})
	require.NoError(t, err)
	assert.NotEqual(t, oldID, rotated.ID)

	// The old token is gone; a second refresh with it must fail closed.
	_, err = tokens.Rotate(ctx, oldID, &models.AuthToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      "seed-device",
		TokenHash: "hash-newer",
		Abilities: []string{models.AbilityAll},
		ExpiresAt: day(90),
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
