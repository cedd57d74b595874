package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kmercado/casaway/internal/auth"
	"github.com/kmercado/casaway/internal/models"
	"github.com/kmercado/casaway/internal/services"
	pkghttp "github.com/kmercado/casaway/pkg/http"
)

// BookingServiceInterface defines the booking operations the handler needs.
type BookingServiceInterface interface {
	Create(ctx context.Context, user *models.User, input services.CreateBookingInput) (*services.BookingResponse, error)
	Get(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error)
	ListForUser(ctx context.Context, user *models.User, limit, offset int) ([]*services.BookingResponse, error)
	Confirm(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error)
	Cancel(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error)
	Review(ctx context.Context, user *models.User, bookingID string, input services.ReviewInput) (*services.ReviewResponse, error)
	GetPayment(ctx context.Context, user *models.User, paymentID string) (*services.PaymentResponse, error)
}

// BookingMetrics records booking operation results for monitoring.
type BookingMetrics interface {
	RecordBooking(result string)
}

// BookingsHandler serves the authenticated booking surface.
type BookingsHandler struct {
	service BookingServiceInterface
	metrics BookingMetrics
}

func NewBookingsHandler(service BookingServiceInterface) *BookingsHandler {
	return &BookingsHandler{service: service}
}

// SetMetrics attaches an optional metrics recorder.
func (h *BookingsHandler) SetMetrics(m BookingMetrics) {
	h.metrics = m
}

func (h *BookingsHandler) recordBooking(result string) {
	if h.metrics != nil {
		h.metrics.RecordBooking(result)
	}
}

// CreateBookingRequest is the request body for creating a booking.
type CreateBookingRequest struct {
	RoomID      string `json:"room_id" validate:"required,uuid4"`
	CheckIn     string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOut    string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	GuestsCount int    `json:"guests_count" validate:"required,gte=1,lte=16"`
}

// Create handles POST /api/bookings.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	checkIn, _ := parseDate(req.CheckIn)
	checkOut, _ := parseDate(req.CheckOut)

	resp, err := h.service.Create(r.Context(), user, services.CreateBookingInput{
		RoomID:      req.RoomID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		GuestsCount: req.GuestsCount,
	})
	if err != nil {
		if errors.Is(err, models.ErrRoomUnavailable) {
			h.recordBooking("conflict")
		}
		// At creation time a NotFound refers to the room, not a booking.
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Room not found")
			return
		}
		h.writeBookingError(w, err)
		return
	}

	h.recordBooking("created")
	pkghttp.WriteSuccess(w, http.StatusCreated, "Booking created", resp)
}

// List handles GET /api/bookings.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	limit, offset := parsePagination(r)

	bookings, err := h.service.ListForUser(r.Context(), user, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// Get handles GET /api/bookings/{bookingID}.
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	resp, err := h.service.Get(r.Context(), user, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	pkghttp.WriteData(w, http.StatusOK, resp)
}

// Confirm handles POST /api/bookings/{bookingID}/confirm.
func (h *BookingsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	resp, err := h.service.Confirm(r.Context(), user, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	h.recordBooking("confirmed")
	pkghttp.WriteSuccess(w, http.StatusOK, "Booking confirmed", resp)
}

// Cancel handles POST /api/bookings/{bookingID}/cancel.
func (h *BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	resp, err := h.service.Cancel(r.Context(), user, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	h.recordBooking("cancelled")
	pkghttp.WriteSuccess(w, http.StatusOK, "Booking cancelled", resp)
}

// GetPayment handles GET /api/payments/{paymentID}.
func (h *BookingsHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	payment, err := h.service.GetPayment(r.Context(), user, chi.URLParam(r, "paymentID"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Payment not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, payment)
}

// ReviewRequest is the request body for reviewing a completed stay.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// Review handles POST /api/bookings/{bookingID}/review.
func (h *BookingsHandler) Review(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Review(r.Context(), user, chi.URLParam(r, "bookingID"), services.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Reviews are only accepted after a completed stay")
			return
		}
		h.writeBookingError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, "Review submitted", resp)
}

func (h *BookingsHandler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Booking not found")
	case errors.Is(err, models.ErrRoomUnavailable):
		pkghttp.WriteConflict(w, "Room is not available for the requested dates")
	case errors.Is(err, models.ErrInvalidDateRange):
		pkghttp.WriteBadRequest(w, "Invalid date range")
	case errors.Is(err, models.ErrInvalidTransition):
		pkghttp.WriteConflict(w, "Booking cannot change to the requested status")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid booking request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
