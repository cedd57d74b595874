package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kmercado/casaway/internal/auth"
	"github.com/kmercado/casaway/internal/models"
	"github.com/kmercado/casaway/internal/services"
	pkgauth "github.com/kmercado/casaway/pkg/auth"
	pkghttp "github.com/kmercado/casaway/pkg/http"
)

// AuthServiceInterface defines the auth operations the handler needs.
type AuthServiceInterface interface {
	Register(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error)
	Login(ctx context.Context, input services.LoginInput) (*services.AuthResponse, error)
	Logout(ctx context.Context, user *models.User, token *models.AuthToken) error
	LogoutAll(ctx context.Context, user *models.User) (int, error)
	RefreshToken(ctx context.Context, user *models.User, current *models.AuthToken) (*services.AuthResponse, error)
	Me(ctx context.Context, user *models.User) (*services.MeResponse, error)
	ActiveSessions(ctx context.Context, user *models.User, currentTokenID string) ([]*services.SessionResponse, error)
	RevokeToken(ctx context.Context, user *models.User, tokenID string) error
}

// LoginMetrics records login outcomes for monitoring.
type LoginMetrics interface {
	RecordLoginAttempt(outcome string)
}

// AuthHandler translates the HTTP surface of the authentication guard.
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
	metrics  LoginMetrics
}

func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{service: service, ipConfig: ipConfig}
}

// SetMetrics attaches an optional metrics recorder.
func (h *AuthHandler) SetMetrics(m LoginMetrics) {
	h.metrics = m
}

func (h *AuthHandler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLoginAttempt(outcome)
	}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=255"`
	Email       string            `json:"email" validate:"required,email"`
	Password    string            `json:"password" validate:"required,min=8,max=128"`
	Role        string            `json:"role" validate:"omitempty,oneof=guest host"`
	ProfileInfo map[string]string `json:"profile_info"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	DeviceName    string `json:"device_name" validate:"omitempty,max=255"`
	SingleSession bool   `json:"single_session"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		ProfileInfo: req.ProfileInfo,
		IPAddress:   pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:   r.Header.Get("User-Agent"),
	})
	if err != nil {
		h.writeAuthError(w, err, "Registration failed")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, "Registration successful", resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), services.LoginInput{
		Email:         req.Email,
		Password:      req.Password,
		DeviceName:    req.DeviceName,
		SingleSession: req.SingleSession,
		IPAddress:     pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:     r.Header.Get("User-Agent"),
	})
	if err != nil {
		h.recordLogin(loginOutcome(err))
		h.writeAuthError(w, err, "Authentication failed")
		return
	}

	h.recordLogin("success")
	pkghttp.WriteSuccess(w, http.StatusOK, "Login successful", resp)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	if err := h.service.Logout(r.Context(), user, token); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Logged out", nil)
}

// LogoutAll handles POST /api/auth/logout-all.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	count, err := h.service.LogoutAll(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Logged out everywhere", map[string]any{
		"revoked_tokens": count,
	})
}

// RefreshToken handles POST /api/auth/refresh-token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	resp, err := h.service.RefreshToken(r.Context(), user, token)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Unauthenticated.")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Token refreshed", resp)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	resp, err := h.service.Me(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, resp)
}

// ActiveSessions handles GET /api/auth/active-sessions.
func (h *AuthHandler) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	sessions, err := h.service.ActiveSessions(r.Context(), user, token.ID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

// RevokeToken handles DELETE /api/auth/tokens/{tokenID}.
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	tokenID := chi.URLParam(r, "tokenID")

	if err := h.service.RevokeToken(r.Context(), user, tokenID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Token not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Token revoked", nil)
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, models.ErrAccountLocked):
		return "locked"
	case errors.Is(err, models.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, models.ErrInvalidCredentials):
		return "failure"
	default:
		return "error"
	}
}

// writeAuthError maps guard errors onto the wire contract: 401 with
// attempts_remaining, 423 with an absolute retry_after, 429 with seconds,
// 409 for duplicate email.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error, genericMessage string) {
	var authErr *models.AuthError

	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		extra := map[string]any{}
		if errors.As(err, &authErr) {
			extra["attempts_remaining"] = authErr.AttemptsRemaining
		}
		pkghttp.WriteErrorExtra(w, http.StatusUnauthorized, "Invalid credentials", extra)

	case errors.Is(err, models.ErrAccountLocked):
		extra := map[string]any{}
		if errors.As(err, &authErr) {
			extra["retry_after"] = authErr.RetryAt.UTC().Format(time.RFC3339)
		}
		pkghttp.WriteErrorExtra(w, http.StatusLocked,
			"Account temporarily locked due to repeated failed attempts", extra)

	case errors.Is(err, models.ErrTooManyAttempts):
		extra := map[string]any{}
		if errors.As(err, &authErr) {
			extra["retry_after"] = authErr.RetryAfterSeconds
		}
		pkghttp.WriteErrorExtra(w, http.StatusTooManyRequests,
			"Too many attempts. Please try again later.", extra)

	case errors.Is(err, models.ErrDuplicateEmail):
		pkghttp.WriteConflict(w, "Email already registered")

	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, genericMessage)

	default:
		var pwErr *pkgauth.PasswordValidationError
		if errors.As(err, &pwErr) {
			pkghttp.WriteBadRequest(w, pwErr.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
