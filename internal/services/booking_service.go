package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmercado/casaway/internal/models"
	pkglogger "github.com/kmercado/casaway/pkg/logger"
)

// BookingRepository defines the booking persistence operations.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Booking, error)
	ListBlockingForRooms(ctx context.Context, roomIDs []string, checkIn, checkOut time.Time) (map[string][]*models.Booking, error)
	UpdateStatus(ctx context.Context, id, from, to string) (*models.Booking, error)
}

// PaymentRepository defines the payment ledger operations.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error)
	MarkCompleted(ctx context.Context, id, transactionID string, paidAt time.Time) (*models.Payment, error)
	RecordRefund(ctx context.Context, id string, amount string, reason string, status string, at time.Time) (*models.Payment, error)
}

// ReviewRepository defines review persistence.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	ListByProperty(ctx context.Context, propertyID string, limit, offset int) ([]*models.Review, error)
}

// BookingService owns the booking lifecycle: creation against the
// availability rules, the pending/confirmed/cancelled state machine, the
// payment ledger and the derived display status.
type BookingService struct {
	bookings     BookingRepository
	rooms        RoomRepository
	availability AvailabilityRepository
	payments     PaymentRepository
	reviews      ReviewRepository
	mailer       Mailer
	logger       *slog.Logger
	auditLogger  *pkglogger.AuditLogger
	now          func() time.Time
}

func NewBookingService(
	bookings BookingRepository,
	rooms RoomRepository,
	availability AvailabilityRepository,
	payments PaymentRepository,
	reviews ReviewRepository,
	mailer Mailer,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		rooms:        rooms,
		availability: availability,
		payments:     payments,
		reviews:      reviews,
		mailer:       mailer,
		logger:       logger,
		auditLogger:  auditLogger,
		now:          time.Now,
	}
}

// BookingResponse is the API shape of a booking, including the derived
// display status and the human-facing reference.
type BookingResponse struct {
	ID           string    `json:"id"`
	Reference    string    `json:"reference"`
	UserID       string    `json:"user_id"`
	RoomID       string    `json:"room_id"`
	CheckInDate  string    `json:"check_in_date"`
	CheckOutDate string    `json:"check_out_date"`
	Nights       int       `json:"nights"`
	GuestsCount  int       `json:"guests_count"`
	Status       string    `json:"status"`
	DisplayState string    `json:"display_status"`
	TotalPrice   string    `json:"total_price"`
	CreatedAt    time.Time `json:"created_at"`

	// Payments is filled on single-booking reads only.
	Payments []*PaymentResponse `json:"payments,omitempty"`
}

// PaymentResponse is the API shape of one ledger entry.
type PaymentResponse struct {
	ID             string     `json:"id"`
	Reference      string     `json:"reference"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	PaymentMethod  string     `json:"payment_method"`
	PaymentStatus  string     `json:"payment_status"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	RefundedAmount *string    `json:"refunded_amount,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
}

func paymentToResponse(payment *models.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:            payment.ID,
		Reference:     payment.Reference(),
		Amount:        payment.Amount.StringFixed(2),
		Currency:      payment.Currency,
		PaymentMethod: payment.PaymentMethod,
		PaymentStatus: payment.PaymentStatus,
		PaidAt:        payment.PaidAt,
		RefundedAt:    payment.RefundedAt,
	}
	if payment.RefundedAmount != nil {
		refunded := payment.RefundedAmount.StringFixed(2)
		resp.RefundedAmount = &refunded
	}
	return resp
}

// CreateBookingInput is the validated booking payload.
type CreateBookingInput struct {
	RoomID      string
	CheckIn     time.Time
	CheckOut    time.Time
	GuestsCount int
}

func (s *BookingService) toResponse(booking *models.Booking) *BookingResponse {
	return &BookingResponse{
		ID:           booking.ID,
		Reference:    booking.Reference(),
		UserID:       booking.UserID,
		RoomID:       booking.RoomID,
		CheckInDate:  booking.CheckInDate.Format("2006-01-02"),
		CheckOutDate: booking.CheckOutDate.Format("2006-01-02"),
		Nights:       booking.Nights(),
		GuestsCount:  booking.GuestsCount,
		Status:       booking.Status,
		DisplayState: booking.DisplayStatus(midnightUTC(s.now())),
		TotalPrice:   booking.TotalPrice.StringFixed(2),
		CreatedAt:    booking.CreatedAt,
	}
}

// Create books a room for the user. The price is always computed server-side
// from the room's current rate; nothing from the client is trusted for money.
// The availability pre-check keeps the error friendly, while the repository's
// locked re-check and the database exclusion constraint decide the race.
func (s *BookingService) Create(ctx context.Context, user *models.User, input CreateBookingInput) (*BookingResponse, error) {
	if err := ValidateStay(input.CheckIn, input.CheckOut, midnightUTC(s.now())); err != nil {
		return nil, err
	}
	if input.GuestsCount < 1 {
		return nil, models.ErrBadRequest
	}

	room, err := s.rooms.GetByID(ctx, input.RoomID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load room", slog.String("room_id", input.RoomID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	windows, err := s.availability.ListForRoom(ctx, room.ID)
	if err != nil {
		s.logger.Error("failed to load availability windows", slog.String("room_id", room.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	covered := false
	for _, w := range windows {
		if w.Covers(input.CheckIn, input.CheckOut) {
			covered = true
			break
		}
	}
	if !covered {
		return nil, models.ErrRoomUnavailable
	}

	nights := decimal.NewFromInt(int64(input.CheckOut.Sub(input.CheckIn).Hours() / 24))
	total := room.PricePerNight.Mul(nights).Round(2)

	booking, err := s.bookings.Create(ctx, &models.Booking{
		UserID:       user.ID,
		RoomID:       room.ID,
		CheckInDate:  input.CheckIn,
		CheckOutDate: input.CheckOut,
		GuestsCount:  input.GuestsCount,
		Status:       models.BookingPending,
		TotalPrice:   total,
	})
	if err != nil {
		if errors.Is(err, models.ErrRoomUnavailable) {
			return nil, models.ErrRoomUnavailable
		}
		s.logger.Error("failed to create booking", slog.String("room_id", room.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogBookingAction("booking_created", booking.ID, user.ID)

	// The pending ledger entry tracks what the guest owes. The booking stands
	// even if this write fails; a later charge attempt re-creates the entry.
	if _, err := s.payments.Create(ctx, &models.Payment{
		BookingID:     booking.ID,
		UserID:        user.ID,
		Amount:        booking.TotalPrice,
		PaymentMethod: "card",
		PaymentStatus: models.PaymentPending,
	}); err != nil {
		s.logger.Error("failed to record pending payment", slog.String("booking_id", booking.ID), slog.Any("error", err))
	}

	if s.mailer != nil {
		if err := s.mailer.SendBookingConfirmation(ctx, user.Email, user.Name, booking.Reference(), booking.CheckInDate, booking.CheckOutDate); err != nil {
			s.logger.Error("failed to send booking confirmation", slog.String("booking_id", booking.ID), slog.Any("error", err))
		}
	}

	return s.toResponse(booking), nil
}

// Get returns one booking with its payment ledger. Guests see only their
// own; admins see any.
func (s *BookingService) Get(ctx context.Context, user *models.User, bookingID string) (*BookingResponse, error) {
	booking, err := s.loadAuthorized(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(booking)

	payments, err := s.payments.ListByBooking(ctx, booking.ID)
	if err != nil {
		s.logger.Error("failed to load payments", slog.String("booking_id", booking.ID), slog.Any("error", err))
	} else {
		for _, p := range payments {
			resp.Payments = append(resp.Payments, paymentToResponse(p))
		}
	}

	return resp, nil
}

// GetPayment returns one ledger entry. Guests see only their own payments;
// admins see any.
func (s *BookingService) GetPayment(ctx context.Context, user *models.User, paymentID string) (*PaymentResponse, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load payment", slog.String("payment_id", paymentID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if payment.UserID != user.ID && user.Role != models.RoleAdmin {
		return nil, models.ErrNotFound
	}
	return paymentToResponse(payment), nil
}

// ListForUser returns the user's bookings, newest first.
func (s *BookingService) ListForUser(ctx context.Context, user *models.User, limit, offset int) ([]*BookingResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	bookings, err := s.bookings.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list bookings", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, s.toResponse(b))
	}
	return responses, nil
}

// Confirm moves a pending booking to confirmed. Confirmation is a host or
// admin action; the guest who booked cannot confirm their own stay.
func (s *BookingService) Confirm(ctx context.Context, user *models.User, bookingID string) (*BookingResponse, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeHost(ctx, user, booking); err != nil {
		return nil, err
	}
	return s.transition(ctx, user, booking, models.BookingConfirmed, "booking_confirmed")
}

// Cancel moves a pending or confirmed booking to cancelled, freeing its
// dates for other guests.
func (s *BookingService) Cancel(ctx context.Context, user *models.User, bookingID string) (*BookingResponse, error) {
	booking, err := s.loadAuthorized(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, user, booking, models.BookingCancelled, "booking_cancelled")
}

func (s *BookingService) transition(ctx context.Context, user *models.User, booking *models.Booking, next, auditEvent string) (*BookingResponse, error) {
	if !booking.CanTransitionTo(next) {
		return nil, models.ErrInvalidTransition
	}

	updated, err := s.bookings.UpdateStatus(ctx, booking.ID, booking.Status, next)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Lost a transition race; the stored status moved underneath us.
			return nil, models.ErrInvalidTransition
		}
		s.logger.Error("failed to update booking status", slog.String("booking_id", booking.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogBookingAction(auditEvent, updated.ID, user.ID)
	s.settleLedger(ctx, updated)
	return s.toResponse(updated), nil
}

// settleLedger keeps the payment ledger in step with the booking status:
// confirmation completes the pending charge, cancellation refunds a
// completed one. Ledger failures are logged, never surfaced.
func (s *BookingService) settleLedger(ctx context.Context, booking *models.Booking) {
	payments, err := s.payments.ListByBooking(ctx, booking.ID)
	if err != nil {
		s.logger.Error("failed to load payments", slog.String("booking_id", booking.ID), slog.Any("error", err))
		return
	}

	switch booking.Status {
	case models.BookingConfirmed:
		for _, p := range payments {
			if p.PaymentStatus == models.PaymentPending {
				if _, err := s.payments.MarkCompleted(ctx, p.ID, uuid.New().String(), s.now()); err != nil {
					s.logger.Error("failed to complete payment", slog.String("payment_id", p.ID), slog.Any("error", err))
				}
				return
			}
		}
	case models.BookingCancelled:
		for _, p := range payments {
			if p.PaymentStatus == models.PaymentCompleted {
				_, err := s.payments.RecordRefund(ctx, p.ID, p.Amount.StringFixed(2),
					"booking cancelled", models.PaymentRefunded, s.now())
				if err != nil {
					s.logger.Error("failed to record refund", slog.String("payment_id", p.ID), slog.Any("error", err))
				}
				return
			}
		}
	}
}

// ReviewInput is the validated review payload.
type ReviewInput struct {
	Rating  int
	Comment string
}

// ReviewResponse is the API shape of a review.
type ReviewResponse struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	BookingID  string    `json:"booking_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review lets the guest rate the property after a completed stay. Only the
// guest who stayed may review, and only once the stay has ended.
func (s *BookingService) Review(ctx context.Context, user *models.User, bookingID string, input ReviewInput) (*ReviewResponse, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, models.ErrBadRequest
	}

	booking, err := s.loadAuthorized(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != user.ID {
		return nil, models.ErrNotFound
	}
	if booking.DisplayStatus(midnightUTC(s.now())) != models.DisplayCompleted {
		return nil, models.ErrBadRequest
	}

	room, err := s.rooms.GetByID(ctx, booking.RoomID)
	if err != nil {
		s.logger.Error("failed to load room", slog.String("room_id", booking.RoomID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	review, err := s.reviews.Create(ctx, &models.Review{
		UserID:     user.ID,
		PropertyID: room.PropertyID,
		BookingID:  booking.ID,
		Rating:     input.Rating,
		Comment:    optional(input.Comment),
	})
	if err != nil {
		s.logger.Error("failed to create review", slog.String("booking_id", booking.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogBookingAction("review_created", booking.ID, user.ID)

	return &ReviewResponse{
		ID:         review.ID,
		PropertyID: review.PropertyID,
		BookingID:  review.BookingID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}, nil
}

func (s *BookingService) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load booking", slog.String("booking_id", bookingID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return booking, nil
}

// loadAuthorized fetches the booking and enforces ownership. A booking the
// user may not touch looks exactly like a missing one.
func (s *BookingService) loadAuthorized(ctx context.Context, user *models.User, bookingID string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != user.ID && user.Role != models.RoleAdmin {
		return nil, models.ErrNotFound
	}
	return booking, nil
}

// authorizeHost admits admins and the host of the property the booked room
// belongs to. Anyone else, the booking's guest included, sees NotFound.
func (s *BookingService) authorizeHost(ctx context.Context, user *models.User, booking *models.Booking) error {
	if user.Role == models.RoleAdmin {
		return nil
	}

	details, err := s.rooms.GetDetails(ctx, booking.RoomID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load room", slog.String("room_id", booking.RoomID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if details.Property.HostID != user.ID {
		return models.ErrNotFound
	}
	return nil
}
