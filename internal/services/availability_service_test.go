package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmercado/casaway/internal/models"
)

func futureDay(n int) time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

type availabilityFixture struct {
	service      *AvailabilityService
	rooms        *MockRoomRepository
	availability *MockAvailabilityRepository
	bookings     *MockBookingRepository
}

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()

	f := &availabilityFixture{
		rooms:        &MockRoomRepository{},
		availability: &MockAvailabilityRepository{},
		bookings:     &MockBookingRepository{},
	}
	f.service = NewAvailabilityService(f.rooms, f.availability, f.bookings, discardLogger())
	return f
}

func testRoom(id string, price string) *models.Room {
	return &models.Room{
		ID:            id,
		PropertyID:    "prop-1",
		RoomType:      "double",
		PricePerNight: decimal.RequireFromString(price),
	}
}

// wideWindow covers any stay in the next year.
func wideWindow(roomID string) *models.Availability {
	return &models.Availability{
		RoomID:    roomID,
		StartDate: futureDay(0),
		EndDate:   futureDay(365),
	}
}

func TestAvailabilityService_FindAvailableRooms(t *testing.T) {
	f := newAvailabilityFixture(t)

	f.rooms.ListFunc = func(_ context.Context, city string, _, _ int) ([]*models.Room, error) {
		assert.Equal(t, "Lisbon", city)
		return []*models.Room{testRoom("room-open", "100.00"), testRoom("room-booked", "80.00"), testRoom("room-bare", "60.00")}, nil
	}
	f.availability.ListForRoomsFunc = func(_ context.Context, roomIDs []string) (map[string][]*models.Availability, error) {
		assert.Len(t, roomIDs, 3)
		// room-bare has no declared windows at all.
		return map[string][]*models.Availability{
			"room-open":   {wideWindow("room-open")},
			"room-booked": {wideWindow("room-booked")},
		}, nil
	}
	f.bookings.ListBlockingForRoomsFunc = func(_ context.Context, _ []string, checkIn, checkOut time.Time) (map[string][]*models.Booking, error) {
		return map[string][]*models.Booking{
			"room-booked": {{
				RoomID:       "room-booked",
				Status:       models.BookingConfirmed,
				CheckInDate:  checkIn,
				CheckOutDate: checkOut,
			}},
		}, nil
	}

	results, err := f.service.FindAvailableRooms(context.Background(), SearchInput{
		City:     "Lisbon",
		CheckIn:  futureDay(3),
		CheckOut: futureDay(6),
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "room-open", results[0].RoomID)
	assert.Equal(t, 3, results[0].Nights)
	assert.Equal(t, "100.00", results[0].PricePerNight)
	assert.Equal(t, "300.00", results[0].TotalPrice)
}

func TestAvailabilityService_BackToBackStaysDoNotConflict(t *testing.T) {
	f := newAvailabilityFixture(t)

	f.rooms.ListFunc = func(context.Context, string, int, int) ([]*models.Room, error) {
		return []*models.Room{testRoom("room-1", "100.00")}, nil
	}
	f.availability.ListForRoomsFunc = func(context.Context, []string) (map[string][]*models.Availability, error) {
		return map[string][]*models.Availability{"room-1": {wideWindow("room-1")}}, nil
	}
	// Existing stay ends exactly when the requested one begins.
	f.bookings.ListBlockingForRoomsFunc = func(context.Context, []string, time.Time, time.Time) (map[string][]*models.Booking, error) {
		return map[string][]*models.Booking{
			"room-1": {{
				RoomID:       "room-1",
				Status:       models.BookingConfirmed,
				CheckInDate:  futureDay(3),
				CheckOutDate: futureDay(5),
			}},
		}, nil
	}

	results, err := f.service.FindAvailableRooms(context.Background(), SearchInput{
		CheckIn:  futureDay(5),
		CheckOut: futureDay(7),
	})
	require.NoError(t, err)
	require.Len(t, results, 1, "checkout day equals check-in day, no overlap")

	// The same dates as the existing stay do conflict.
	results, err = f.service.FindAvailableRooms(context.Background(), SearchInput{
		CheckIn:  futureDay(3),
		CheckOut: futureDay(5),
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAvailabilityService_CancelledBookingsDoNotBlock(t *testing.T) {
	f := newAvailabilityFixture(t)

	f.rooms.ListFunc = func(context.Context, string, int, int) ([]*models.Room, error) {
		return []*models.Room{testRoom("room-1", "100.00")}, nil
	}
	f.availability.ListForRoomsFunc = func(context.Context, []string) (map[string][]*models.Availability, error) {
		return map[string][]*models.Availability{"room-1": {wideWindow("room-1")}}, nil
	}
	f.bookings.ListBlockingForRoomsFunc = func(context.Context, []string, time.Time, time.Time) (map[string][]*models.Booking, error) {
		return map[string][]*models.Booking{
			"room-1": {{
				RoomID:       "room-1",
				Status:       models.BookingCancelled,
				CheckInDate:  futureDay(3),
				CheckOutDate: futureDay(6),
			}},
		}, nil
	}

	results, err := f.service.FindAvailableRooms(context.Background(), SearchInput{
		CheckIn:  futureDay(3),
		CheckOut: futureDay(6),
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestAvailabilityService_WindowMustCoverWholeStay(t *testing.T) {
	f := newAvailabilityFixture(t)

	f.rooms.ListFunc = func(context.Context, string, int, int) ([]*models.Room, error) {
		return []*models.Room{testRoom("room-1", "100.00")}, nil
	}
	// The window ends mid-stay.
	f.availability.ListForRoomsFunc = func(context.Context, []string) (map[string][]*models.Availability, error) {
		return map[string][]*models.Availability{
			"room-1": {{RoomID: "room-1", StartDate: futureDay(0), EndDate: futureDay(4)}},
		}, nil
	}

	results, err := f.service.FindAvailableRooms(context.Background(), SearchInput{
		CheckIn:  futureDay(3),
		CheckOut: futureDay(6),
	})
	require.NoError(t, err)
	assert.Empty(t, results, "partial coverage is not enough")
}

func TestAvailabilityService_RejectsBadDates(t *testing.T) {
	f := newAvailabilityFixture(t)

	_, err := f.service.FindAvailableRooms(context.Background(), SearchInput{
		CheckIn:  futureDay(5),
		CheckOut: futureDay(5),
	})
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	_, err = f.service.FindAvailableRooms(context.Background(), SearchInput{
		CheckIn:  futureDay(-2),
		CheckOut: futureDay(2),
	})
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)
}

func TestAvailabilityService_Quote(t *testing.T) {
	f := newAvailabilityFixture(t)

	f.rooms.GetByIDFunc = func(context.Context, string) (*models.Room, error) {
		return testRoom("room-1", "99.99"), nil
	}

	quote, err := f.service.Quote(context.Background(), "room-1", futureDay(1), futureDay(4))
	require.NoError(t, err)
	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, "299.97", quote.TotalPrice)
}

func TestAvailabilityService_IsRoomAvailable(t *testing.T) {
	f := newAvailabilityFixture(t)

	f.rooms.GetByIDFunc = func(context.Context, string) (*models.Room, error) {
		return testRoom("room-1", "100.00"), nil
	}
	f.availability.ListForRoomFunc = func(context.Context, string) ([]*models.Availability, error) {
		return []*models.Availability{wideWindow("room-1")}, nil
	}

	open, err := f.service.IsRoomAvailable(context.Background(), "room-1", futureDay(1), futureDay(3))
	require.NoError(t, err)
	assert.True(t, open)
}

func TestAvailabilityService_IsRoomAvailableUnknownRoom(t *testing.T) {
	f := newAvailabilityFixture(t)

	// Mock room repository reports every id as missing. The service must
	// surface that rather than answering "not available".
	f.availability.ListForRoomFunc = func(context.Context, string) ([]*models.Availability, error) {
		t.Fatal("availability must not be consulted for an unknown room")
		return nil, nil
	}

	_, err := f.service.IsRoomAvailable(context.Background(), "no-such-room", futureDay(1), futureDay(3))
	assert.ErrorIs(t, err, models.ErrNotFound)
}
