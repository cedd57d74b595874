package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/kmercado/casaway/internal/models"
	pkghttp "github.com/kmercado/casaway/pkg/http"
)

// Authenticator resolves a presented bearer token to the user and token row
// behind it. Implementations reject unknown, mismatched and expired tokens
// with models.ErrUnauthorized.
type Authenticator interface {
	Authenticate(ctx context.Context, plaintext string) (*models.User, *models.AuthToken, error)
}

// Middleware validates the Authorization header and injects the resolved
// identity into the request context. Every failure is a uniform 401; the
// response never distinguishes unknown ids from wrong secrets.
func Middleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plaintext, ok := bearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Unauthenticated.")
				return
			}

			user, token, err := authenticator.Authenticate(r.Context(), plaintext)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Unauthenticated.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user, token)))
		})
	}
}

// RequireRole enforces role-based access. Must run after Middleware.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				pkghttp.WriteUnauthorized(w, "Unauthenticated.")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			pkghttp.WriteForbidden(w, "This action is unauthorized.")
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
