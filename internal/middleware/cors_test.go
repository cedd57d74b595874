package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_AllowedOrigin(t *testing.T) {
	config := DefaultCORSConfig([]string{"https://app.casaway.example"})
	handler := CORS(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/rooms", nil)
	req.Header.Set("Origin", "https://app.casaway.example")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.casaway.example" {
		t.Errorf("Access-Control-Allow-Origin: got %q", got)
	}
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	config := DefaultCORSConfig([]string{"https://app.casaway.example"})
	handler := CORS(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/rooms", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin for unknown origin: %q", got)
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	config := DefaultCORSConfig([]string{"https://app.casaway.example"})

	reached := false
	handler := CORS(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest("OPTIONS", "/api/bookings", nil)
	req.Header.Set("Origin", "https://app.casaway.example")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("preflight status: got %d, want 200", w.Code)
	}
	if reached {
		t.Error("preflight request should not reach the next handler")
	}
}
