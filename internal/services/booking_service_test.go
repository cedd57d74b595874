package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmercado/casaway/internal/models"
	pkglogger "github.com/kmercado/casaway/pkg/logger"
)

type bookingFixture struct {
	service      *BookingService
	bookings     *MockBookingRepository
	rooms        *MockRoomRepository
	availability *MockAvailabilityRepository
	payments     *MockPaymentRepository
	reviews      *MockReviewRepository
	mailer       *MockMailer
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	f := &bookingFixture{
		bookings:     &MockBookingRepository{},
		rooms:        &MockRoomRepository{},
		availability: &MockAvailabilityRepository{},
		payments:     &MockPaymentRepository{},
		reviews:      &MockReviewRepository{},
		mailer:       &MockMailer{},
	}

	logger := discardLogger()
	f.service = NewBookingService(f.bookings, f.rooms, f.availability, f.payments, f.reviews, f.mailer, logger, pkglogger.NewAuditLogger(logger))
	return f
}

func guest() *models.User {
	return &models.User{ID: "user-1", Name: "Guest", Email: "guest@example.com", Role: models.RoleGuest}
}

func host() *models.User {
	return &models.User{ID: "host-1", Name: "Host", Email: "host@example.com", Role: models.RoleHost}
}

func admin() *models.User {
	return &models.User{ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
}

// hostedRoomDetails wires the fixture's room onto a property owned by host-1.
func hostedRoomDetails(f *bookingFixture) {
	f.rooms.GetDetailsFunc = func(context.Context, string) (*models.RoomDetails, error) {
		return &models.RoomDetails{
			Room:     *testRoom("room-1", "100.00"),
			Property: models.Property{ID: "prop-1", HostID: "host-1"},
		}, nil
	}
}

func TestBookingService_CreateComputesPriceServerSide(t *testing.T) {
	f := newBookingFixture(t)

	f.rooms.GetByIDFunc = func(context.Context, string) (*models.Room, error) {
		return testRoom("room-1", "100.00"), nil
	}
	f.availability.ListForRoomFunc = func(context.Context, string) ([]*models.Availability, error) {
		return []*models.Availability{wideWindow("room-1")}, nil
	}
	f.bookings.CreateFunc = func(_ context.Context, booking *models.Booking) (*models.Booking, error) {
		assert.Equal(t, "300.00", booking.TotalPrice.StringFixed(2))
		assert.Equal(t, models.BookingPending, booking.Status)
		booking.ID = "booking-1"
		booking.Sequence = 42
		booking.CreatedAt = time.Now()
		return booking, nil
	}

	resp, err := f.service.Create(context.Background(), guest(), CreateBookingInput{
		RoomID:      "room-1",
		CheckIn:     futureDay(3),
		CheckOut:    futureDay(6),
		GuestsCount: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "BK-000042", resp.Reference)
	assert.Equal(t, 3, resp.Nights)
	assert.Equal(t, "300.00", resp.TotalPrice)
	assert.Equal(t, models.BookingPending, resp.Status)
	assert.Equal(t, models.DisplayPending, resp.DisplayState)
	assert.Equal(t, 1, f.mailer.ConfirmationsSent)

	require.Len(t, f.payments.Created, 1)
	assert.Equal(t, "300.00", f.payments.Created[0].Amount.StringFixed(2))
	assert.Equal(t, models.PaymentPending, f.payments.Created[0].PaymentStatus)
}

func TestBookingService_CreateWithoutCoverageFails(t *testing.T) {
	f := newBookingFixture(t)

	f.rooms.GetByIDFunc = func(context.Context, string) (*models.Room, error) {
		return testRoom("room-1", "100.00"), nil
	}
	// No declared windows at all.

	_, err := f.service.Create(context.Background(), guest(), CreateBookingInput{
		RoomID:      "room-1",
		CheckIn:     futureDay(3),
		CheckOut:    futureDay(6),
		GuestsCount: 1,
	})
	assert.ErrorIs(t, err, models.ErrRoomUnavailable)
}

func TestBookingService_CreateSurfacesConflict(t *testing.T) {
	f := newBookingFixture(t)

	f.rooms.GetByIDFunc = func(context.Context, string) (*models.Room, error) {
		return testRoom("room-1", "100.00"), nil
	}
	f.availability.ListForRoomFunc = func(context.Context, string) ([]*models.Availability, error) {
		return []*models.Availability{wideWindow("room-1")}, nil
	}
	// A concurrent booking won the race inside the repository.
	f.bookings.CreateFunc = func(context.Context, *models.Booking) (*models.Booking, error) {
		return nil, models.ErrRoomUnavailable
	}

	_, err := f.service.Create(context.Background(), guest(), CreateBookingInput{
		RoomID:      "room-1",
		CheckIn:     futureDay(3),
		CheckOut:    futureDay(6),
		GuestsCount: 1,
	})
	assert.ErrorIs(t, err, models.ErrRoomUnavailable)
	assert.Equal(t, 0, f.mailer.ConfirmationsSent)
}

func TestBookingService_CreateRejectsBadInput(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.Create(context.Background(), guest(), CreateBookingInput{
		RoomID:      "room-1",
		CheckIn:     futureDay(6),
		CheckOut:    futureDay(3),
		GuestsCount: 1,
	})
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	_, err = f.service.Create(context.Background(), guest(), CreateBookingInput{
		RoomID:      "room-1",
		CheckIn:     futureDay(3),
		CheckOut:    futureDay(6),
		GuestsCount: 0,
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestBookingService_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		action  string
		wantTo  string
		wantErr error
	}{
		{name: "confirm pending", from: models.BookingPending, action: "confirm", wantTo: models.BookingConfirmed},
		{name: "cancel pending", from: models.BookingPending, action: "cancel", wantTo: models.BookingCancelled},
		{name: "cancel confirmed", from: models.BookingConfirmed, action: "cancel", wantTo: models.BookingCancelled},
		{name: "confirm confirmed", from: models.BookingConfirmed, action: "confirm", wantErr: models.ErrInvalidTransition},
		{name: "confirm cancelled", from: models.BookingCancelled, action: "confirm", wantErr: models.ErrInvalidTransition},
		{name: "cancel cancelled", from: models.BookingCancelled, action: "cancel", wantErr: models.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)

			stored := &models.Booking{
				ID: "booking-1", UserID: "user-1", RoomID: "room-1",
				CheckInDate: futureDay(3), CheckOutDate: futureDay(6),
				Status: tt.from, TotalPrice: decimal.RequireFromString("300.00"),
			}
			f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
				return stored, nil
			}
			hostedRoomDetails(f)
			f.bookings.UpdateStatusFunc = func(_ context.Context, id, from, to string) (*models.Booking, error) {
				assert.Equal(t, tt.from, from)
				assert.Equal(t, tt.wantTo, to)
				updated := *stored
				updated.Status = to
				return &updated, nil
			}

			// Confirmation is the host's move; cancellation is the guest's.
			var err error
			var resp *BookingResponse
			if tt.action == "confirm" {
				resp, err = f.service.Confirm(context.Background(), host(), "booking-1")
			} else {
				resp, err = f.service.Cancel(context.Background(), guest(), "booking-1")
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTo, resp.Status)
		})
	}
}

func TestBookingService_TransitionRaceReportsInvalid(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{ID: "booking-1", UserID: "user-1", Status: models.BookingPending, TotalPrice: decimal.Zero}, nil
	}
	// Another request changed the status between read and update.
	f.bookings.UpdateStatusFunc = func(context.Context, string, string, string) (*models.Booking, error) {
		return nil, models.ErrNotFound
	}

	admin := &models.User{ID: "admin-1", Role: models.RoleAdmin}
	_, err := f.service.Confirm(context.Background(), admin, "booking-1")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestBookingService_ConfirmDeniedToBookingGuest(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{
			ID: "booking-1", UserID: "user-1", RoomID: "room-1",
			Status: models.BookingPending, TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	hostedRoomDetails(f)
	f.bookings.UpdateStatusFunc = func(context.Context, string, string, string) (*models.Booking, error) {
		t.Fatal("the guest must not reach the status update")
		return nil, nil
	}

	// The guest owns the booking, but confirmation belongs to the host.
	_, err := f.service.Confirm(context.Background(), guest(), "booking-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookingService_ConfirmDeniedToOtherHost(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{
			ID: "booking-1", UserID: "user-1", RoomID: "room-1",
			Status: models.BookingPending, TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	hostedRoomDetails(f)

	other := &models.User{ID: "host-2", Role: models.RoleHost}
	_, err := f.service.Confirm(context.Background(), other, "booking-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookingService_OwnershipHidesOthersBookings(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{ID: "booking-1", UserID: "someone-else", Status: models.BookingPending, TotalPrice: decimal.Zero}, nil
	}

	_, err := f.service.Get(context.Background(), guest(), "booking-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Admins can see any booking.
	admin := &models.User{ID: "admin-1", Role: models.RoleAdmin}
	resp, err := f.service.Get(context.Background(), admin, "booking-1")
	require.NoError(t, err)
	assert.Equal(t, "booking-1", resp.ID)
}

func TestBookingService_DisplayStatusOnResponses(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.ListByUserFunc = func(context.Context, string, int, int) ([]*models.Booking, error) {
		return []*models.Booking{
			{ID: "past", UserID: "user-1", Status: models.BookingConfirmed,
				CheckInDate: futureDay(-10), CheckOutDate: futureDay(-7), TotalPrice: decimal.Zero},
			{ID: "current", UserID: "user-1", Status: models.BookingConfirmed,
				CheckInDate: futureDay(-1), CheckOutDate: futureDay(2), TotalPrice: decimal.Zero},
			{ID: "future", UserID: "user-1", Status: models.BookingConfirmed,
				CheckInDate: futureDay(5), CheckOutDate: futureDay(8), TotalPrice: decimal.Zero},
		}, nil
	}

	responses, err := f.service.ListForUser(context.Background(), guest(), 50, 0)
	require.NoError(t, err)
	require.Len(t, responses, 3)
	assert.Equal(t, models.DisplayCompleted, responses[0].DisplayState)
	assert.Equal(t, models.DisplayActive, responses[1].DisplayState)
	assert.Equal(t, models.DisplayUpcoming, responses[2].DisplayState)
}

func TestBookingService_ConfirmCompletesPayment(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{
			ID: "booking-1", UserID: "user-1", Status: models.BookingPending,
			CheckInDate: futureDay(3), CheckOutDate: futureDay(6),
			TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	f.bookings.UpdateStatusFunc = func(_ context.Context, id, from, to string) (*models.Booking, error) {
		return &models.Booking{
			ID: id, UserID: "user-1", Status: to,
			CheckInDate: futureDay(3), CheckOutDate: futureDay(6),
			TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	hostedRoomDetails(f)
	f.payments.ListByBookingFunc = func(context.Context, string) ([]*models.Payment, error) {
		return []*models.Payment{{ID: "payment-1", PaymentStatus: models.PaymentPending, Amount: decimal.NewFromInt(300)}}, nil
	}

	completed := ""
	f.payments.MarkCompletedFunc = func(_ context.Context, id, transactionID string, _ time.Time) (*models.Payment, error) {
		completed = id
		assert.NotEmpty(t, transactionID)
		return &models.Payment{ID: id, PaymentStatus: models.PaymentCompleted}, nil
	}

	_, err := f.service.Confirm(context.Background(), host(), "booking-1")
	require.NoError(t, err)
	assert.Equal(t, "payment-1", completed)
}

func TestBookingService_CancelRefundsCompletedPayment(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{
			ID: "booking-1", UserID: "user-1", Status: models.BookingConfirmed,
			CheckInDate: futureDay(3), CheckOutDate: futureDay(6),
			TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	f.bookings.UpdateStatusFunc = func(_ context.Context, id, from, to string) (*models.Booking, error) {
		return &models.Booking{
			ID: id, UserID: "user-1", Status: to,
			CheckInDate: futureDay(3), CheckOutDate: futureDay(6),
			TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	f.payments.ListByBookingFunc = func(context.Context, string) ([]*models.Payment, error) {
		return []*models.Payment{{ID: "payment-1", PaymentStatus: models.PaymentCompleted, Amount: decimal.NewFromInt(300)}}, nil
	}

	var refundedAmount, refundedStatus string
	f.payments.RecordRefundFunc = func(_ context.Context, id string, amount string, reason string, status string, _ time.Time) (*models.Payment, error) {
		refundedAmount = amount
		refundedStatus = status
		return &models.Payment{ID: id, PaymentStatus: status}, nil
	}

	_, err := f.service.Cancel(context.Background(), guest(), "booking-1")
	require.NoError(t, err)
	assert.Equal(t, "300.00", refundedAmount)
	assert.Equal(t, models.PaymentRefunded, refundedStatus)
}

func TestBookingService_GetIncludesPayments(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{
			ID: "booking-1", UserID: "user-1", Status: models.BookingConfirmed,
			CheckInDate: futureDay(3), CheckOutDate: futureDay(6),
			TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	f.payments.ListByBookingFunc = func(context.Context, string) ([]*models.Payment, error) {
		return []*models.Payment{{
			ID: "payment-1", Sequence: 7, PaymentStatus: models.PaymentCompleted,
			Amount: decimal.NewFromInt(300), Currency: "USD", PaymentMethod: "card",
		}}, nil
	}

	resp, err := f.service.Get(context.Background(), guest(), "booking-1")
	require.NoError(t, err)
	require.Len(t, resp.Payments, 1)
	assert.Equal(t, "PAY-00000007", resp.Payments[0].Reference)
	assert.Equal(t, "300.00", resp.Payments[0].Amount)
}

func TestBookingService_ReviewAfterCompletedStay(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{
			ID: "booking-1", UserID: "user-1", RoomID: "room-1",
			Status:      models.BookingConfirmed,
			CheckInDate: futureDay(-10), CheckOutDate: futureDay(-7),
			TotalPrice: decimal.NewFromInt(300),
		}, nil
	}
	f.rooms.GetByIDFunc = func(context.Context, string) (*models.Room, error) {
		room := testRoom("room-1", "100.00")
		room.PropertyID = "property-1"
		return room, nil
	}

	resp, err := f.service.Review(context.Background(), guest(), "booking-1", ReviewInput{
		Rating:  5,
		Comment: "Great stay",
	})
	require.NoError(t, err)
	assert.Equal(t, "property-1", resp.PropertyID)
	assert.Equal(t, 5, resp.Rating)
}

func TestBookingService_ReviewRejectedBeforeCheckout(t *testing.T) {
	f := newBookingFixture(t)

	f.bookings.GetByIDFunc = func(context.Context, string) (*models.Booking, error) {
		return &models.Booking{
			ID: "booking-1", UserID: "user-1", RoomID: "room-1",
			Status:      models.BookingConfirmed,
			CheckInDate: futureDay(3), CheckOutDate: futureDay(6),
			TotalPrice: decimal.NewFromInt(300),
		}, nil
	}

	_, err := f.service.Review(context.Background(), guest(), "booking-1", ReviewInput{Rating: 4})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestBookingService_ReviewRejectsBadRating(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.Review(context.Background(), guest(), "booking-1", ReviewInput{Rating: 0})
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = f.service.Review(context.Background(), guest(), "booking-1", ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestBookingService_GetPayment(t *testing.T) {
	f := newBookingFixture(t)

	f.payments.GetByIDFunc = func(_ context.Context, id string) (*models.Payment, error) {
		if id != "payment-1" {
			return nil, models.ErrNotFound
		}
		return &models.Payment{
			ID: "payment-1", Sequence: 42, BookingID: "booking-1", UserID: "user-1",
			Amount:        decimal.RequireFromString("300.00"),
			Currency:      "EUR",
			PaymentMethod: "card",
			PaymentStatus: models.PaymentPending,
		}, nil
	}

	resp, err := f.service.GetPayment(context.Background(), guest(), "payment-1")
	require.NoError(t, err)
	assert.Equal(t, "PAY-00000042", resp.Reference)
	assert.Equal(t, "300.00", resp.Amount)

	// Another user's payment reads as missing.
	other := &models.User{ID: "user-2", Role: models.RoleGuest}
	_, err = f.service.GetPayment(context.Background(), other, "payment-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Admins can inspect any ledger entry.
	resp, err = f.service.GetPayment(context.Background(), admin(), "payment-1")
	require.NoError(t, err)
	assert.Equal(t, "payment-1", resp.ID)
}
