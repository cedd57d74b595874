package handlers

import (
	"context"
	"net/http"

	"github.com/kmercado/casaway/internal/services"
	pkghttp "github.com/kmercado/casaway/pkg/http"
)

// AdminServiceInterface defines the admin reads the handler needs.
type AdminServiceInterface interface {
	SecurityOverview(ctx context.Context) (*services.SecurityOverviewResponse, error)
	LoginAttempts(ctx context.Context, limit, offset int) ([]*services.LoginAttemptResponse, error)
}

// AdminHandler serves the admin-only dashboard endpoints. Routes mounting it
// must already enforce the admin role.
type AdminHandler struct {
	service AdminServiceInterface
}

func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// SecurityOverview handles GET /api/admin/security-overview.
func (h *AdminHandler) SecurityOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.SecurityOverview(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, overview)
}

// LoginAttempts handles GET /api/admin/login-attempts.
func (h *AdminHandler) LoginAttempts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	attempts, err := h.service.LoginAttempts(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteData(w, http.StatusOK, map[string]any{"attempts": attempts})
}
