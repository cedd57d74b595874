package http

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard API response shape. Every response carries the
// success flag; errors add a human-readable message, successes usually add
// data.
type Envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Extra   map[string]any `json:"-"`
}

// MarshalJSON flattens Extra fields (retry_after, attempts_remaining, ...)
// into the top-level object next to success/message/data.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3+len(e.Extra))
	out["success"] = e.Success
	if e.Message != "" {
		out["message"] = e.Message
	}
	if e.Data != nil {
		out["data"] = e.Data
	}
	for k, v := range e.Extra {
		out[k] = v
	}
	return json.Marshal(out)
}

func write(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Encoding errors are not surfaced to the client
	_ = json.NewEncoder(w).Encode(env)
}

// WriteSuccess writes a success envelope with optional data.
func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	write(w, statusCode, Envelope{Success: true, Message: message, Data: data})
}

// WriteData writes a success envelope carrying only data.
func WriteData(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, Envelope{Success: true, Data: data})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	write(w, statusCode, Envelope{Success: false, Message: message})
}

// WriteErrorExtra writes a failure envelope with additional top-level fields
// such as retry_after or attempts_remaining.
func WriteErrorExtra(w http.ResponseWriter, statusCode int, message string, extra map[string]any) {
	write(w, statusCode, Envelope{Success: false, Message: message, Extra: extra})
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
