package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmercado/casaway/internal/auth"
	"github.com/kmercado/casaway/internal/models"
	"github.com/kmercado/casaway/internal/services"
)

func postBookingJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithIdentity(req.Context(),
		&models.User{ID: "user-1", Role: models.RoleGuest}, &models.AuthToken{ID: "t"}))

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestBookingsHandler_Create(t *testing.T) {
	service := &MockBookingService{
		CreateFunc: func(_ context.Context, user *models.User, input services.CreateBookingInput) (*services.BookingResponse, error) {
			assert.Equal(t, "user-1", user.ID)
			assert.Equal(t, "2030-07-01", input.CheckIn.Format("2006-01-02"))
			assert.Equal(t, "2030-07-04", input.CheckOut.Format("2006-01-02"))
			return &services.BookingResponse{ID: "booking-1", Reference: "BK-000001", TotalPrice: "300.00"}, nil
		},
	}
	handler := NewBookingsHandler(service)

	rec := postBookingJSON(t, handler.Create, map[string]any{
		"room_id":        "3b241101-e2bb-4255-8caf-4136c566a962",
		"check_in_date":  "2030-07-01",
		"check_out_date": "2030-07-04",
		"guests_count":   2,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "BK-000001", body["data"].(map[string]any)["reference"])
}

func TestBookingsHandler_CreateConflict(t *testing.T) {
	service := &MockBookingService{
		CreateFunc: func(context.Context, *models.User, services.CreateBookingInput) (*services.BookingResponse, error) {
			return nil, models.ErrRoomUnavailable
		},
	}
	handler := NewBookingsHandler(service)

	rec := postBookingJSON(t, handler.Create, map[string]any{
		"room_id":        "3b241101-e2bb-4255-8caf-4136c566a962",
		"check_in_date":  "2030-07-01",
		"check_out_date": "2030-07-04",
		"guests_count":   2,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingsHandler_CreateValidation(t *testing.T) {
	handler := NewBookingsHandler(&MockBookingService{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing room", body: map[string]any{
			"check_in_date": "2030-07-01", "check_out_date": "2030-07-04", "guests_count": 1}},
		{name: "bad date format", body: map[string]any{
			"room_id": "3b241101-e2bb-4255-8caf-4136c566a962",
			"check_in_date": "01/07/2030", "check_out_date": "2030-07-04", "guests_count": 1}},
		{name: "zero guests", body: map[string]any{
			"room_id": "3b241101-e2bb-4255-8caf-4136c566a962",
			"check_in_date": "2030-07-01", "check_out_date": "2030-07-04", "guests_count": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postBookingJSON(t, handler.Create, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestBookingsHandler_GetNotFound(t *testing.T) {
	service := &MockBookingService{
		GetFunc: func(context.Context, *models.User, string) (*services.BookingResponse, error) {
			return nil, models.ErrNotFound
		},
	}
	handler := NewBookingsHandler(service)

	router := chi.NewRouter()
	router.Get("/api/bookings/{bookingID}", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/booking-9", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(),
		&models.User{ID: "user-1"}, &models.AuthToken{ID: "t"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingsHandler_Review(t *testing.T) {
	service := &MockBookingService{
		ReviewFunc: func(_ context.Context, user *models.User, bookingID string, input services.ReviewInput) (*services.ReviewResponse, error) {
			assert.Equal(t, "user-1", user.ID)
			assert.Equal(t, "booking-1", bookingID)
			assert.Equal(t, 5, input.Rating)
			return &services.ReviewResponse{ID: "review-1", BookingID: bookingID, Rating: input.Rating}, nil
		},
	}
	handler := NewBookingsHandler(service)

	router := chi.NewRouter()
	router.Post("/api/bookings/{bookingID}/review", handler.Review)

	raw, err := json.Marshal(map[string]any{"rating": 5, "comment": "Lovely place"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/booking-1/review", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithIdentity(req.Context(),
		&models.User{ID: "user-1", Role: models.RoleGuest}, &models.AuthToken{ID: "t"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "review-1", body["data"].(map[string]any)["id"])
}

func TestBookingsHandler_ReviewBeforeCheckout(t *testing.T) {
	service := &MockBookingService{
		ReviewFunc: func(context.Context, *models.User, string, services.ReviewInput) (*services.ReviewResponse, error) {
			return nil, models.ErrBadRequest
		},
	}
	handler := NewBookingsHandler(service)

	router := chi.NewRouter()
	router.Post("/api/bookings/{bookingID}/review", handler.Review)

	raw, err := json.Marshal(map[string]any{"rating": 4})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/booking-1/review", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithIdentity(req.Context(),
		&models.User{ID: "user-1", Role: models.RoleGuest}, &models.AuthToken{ID: "t"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingsHandler_CancelInvalidTransition(t *testing.T) {
	service := &MockBookingService{
		CancelFunc: func(context.Context, *models.User, string) (*services.BookingResponse, error) {
			return nil, models.ErrInvalidTransition
		},
	}
	handler := NewBookingsHandler(service)

	router := chi.NewRouter()
	router.Post("/api/bookings/{bookingID}/cancel", handler.Cancel)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/booking-9/cancel", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(),
		&models.User{ID: "user-1"}, &models.AuthToken{ID: "t"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
