package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kmercado/casaway/internal/auth"
	"github.com/kmercado/casaway/internal/models"
	"github.com/kmercado/casaway/internal/services"
	pkghttp "github.com/kmercado/casaway/pkg/http"
)

// CatalogServiceInterface defines the catalog operations the handler needs.
type CatalogServiceInterface interface {
	ListRooms(ctx context.Context, city string, limit, offset int) ([]services.RoomSummaryResponse, error)
	GetRoom(ctx context.Context, roomID string) (*services.RoomDetailResponse, error)
	AddAvailabilityWindow(ctx context.Context, user *models.User, roomID string, input services.AvailabilityWindowInput) (*services.AvailabilityWindowResponse, error)
	RemoveAvailabilityWindow(ctx context.Context, user *models.User, roomID, windowID string) error
}

// AvailabilityServiceInterface defines the availability search operations.
type AvailabilityServiceInterface interface {
	FindAvailableRooms(ctx context.Context, input services.SearchInput) ([]*services.AvailableRoomResponse, error)
	IsRoomAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error)
	Quote(ctx context.Context, roomID string, checkIn, checkOut time.Time) (*services.AvailableRoomResponse, error)
}

// RoomsHandler serves the public room catalog and availability search.
type RoomsHandler struct {
	catalog      CatalogServiceInterface
	availability AvailabilityServiceInterface
}

func NewRoomsHandler(catalog CatalogServiceInterface, availability AvailabilityServiceInterface) *RoomsHandler {
	return &RoomsHandler{catalog: catalog, availability: availability}
}

// List handles GET /api/rooms?city=&limit=&offset=.
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	rooms, err := h.catalog.ListRooms(r.Context(), r.URL.Query().Get("city"), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// Get handles GET /api/rooms/{roomID}.
func (h *RoomsHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	detail, err := h.catalog.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Room not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, detail)
}

// Search handles GET /api/rooms/available?city=&check_in=&check_out=.
func (h *RoomsHandler) Search(w http.ResponseWriter, r *http.Request) {
	checkIn, checkOut, ok := parseStayDates(w, r)
	if !ok {
		return
	}
	limit, offset := parsePagination(r)

	results, err := h.availability.FindAvailableRooms(r.Context(), services.SearchInput{
		City:     r.URL.Query().Get("city"),
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidDateRange) {
			pkghttp.WriteBadRequest(w, "Invalid date range")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, map[string]any{
		"check_in":  checkIn.Format("2006-01-02"),
		"check_out": checkOut.Format("2006-01-02"),
		"rooms":     results,
	})
}

// CheckAvailability handles GET /api/rooms/{roomID}/availability?check_in=&check_out=.
func (h *RoomsHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	checkIn, checkOut, ok := parseStayDates(w, r)
	if !ok {
		return
	}

	available, err := h.availability.IsRoomAvailable(r.Context(), roomID, checkIn, checkOut)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidDateRange):
			pkghttp.WriteBadRequest(w, "Invalid date range")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Room not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	body := map[string]any{"available": available}
	if available {
		quote, err := h.availability.Quote(r.Context(), roomID, checkIn, checkOut)
		if err == nil {
			body["quote"] = quote
		}
	}

	pkghttp.WriteData(w, http.StatusOK, body)
}

// AvailabilityWindowRequest is the request body for declaring a window.
type AvailabilityWindowRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// CreateAvailability handles POST /api/rooms/{roomID}/availability.
// Host or admin only; the service decides by property ownership.
func (h *RoomsHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	roomID := chi.URLParam(r, "roomID")

	var req AvailabilityWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	start, _ := parseDate(req.StartDate)
	end, _ := parseDate(req.EndDate)

	window, err := h.catalog.AddAvailabilityWindow(r.Context(), user, roomID, services.AvailabilityWindowInput{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidDateRange):
			pkghttp.WriteBadRequest(w, "end_date must not be before start_date")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Room not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, "Availability window added", window)
}

// DeleteAvailability handles DELETE /api/rooms/{roomID}/availability/{windowID}.
func (h *RoomsHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	roomID := chi.URLParam(r, "roomID")
	windowID := chi.URLParam(r, "windowID")

	if err := h.catalog.RemoveAvailabilityWindow(r.Context(), user, roomID, windowID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Availability window not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Availability window removed", nil)
}

func parseStayDates(w http.ResponseWriter, r *http.Request) (checkIn, checkOut time.Time, ok bool) {
	checkIn, err := parseDate(r.URL.Query().Get("check_in"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "check_in must be a date in YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}

	checkOut, err = parseDate(r.URL.Query().Get("check_out"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "check_out must be a date in YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}

	return checkIn, checkOut, true
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
