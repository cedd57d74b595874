package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmercado/casaway/internal/models"
)

type mockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, plaintext string) (*models.User, *models.AuthToken, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, plaintext string) (*models.User, *models.AuthToken, error) {
	return m.AuthenticateFunc(ctx, plaintext)
}

func TestMiddleware_ValidToken(t *testing.T) {
	user := &models.User{ID: "user-1", Role: models.RoleGuest}
	token := &models.AuthToken{ID: "token-1", UserID: "user-1"}

	authenticator := &mockAuthenticator{
		AuthenticateFunc: func(_ context.Context, plaintext string) (*models.User, *models.AuthToken, error) {
			assert.Equal(t, "abc|def", plaintext)
			return user, token, nil
		},
	}

	var gotUser *models.User
	var gotToken *models.AuthToken
	handler := Middleware(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		gotToken = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer abc|def")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Same(t, user, gotUser)
	assert.Same(t, token, gotToken)
}

func TestMiddleware_RejectsBadHeaders(t *testing.T) {
	authenticator := &mockAuthenticator{
		AuthenticateFunc: func(context.Context, string) (*models.User, *models.AuthToken, error) {
			t.Fatal("authenticator must not be called for malformed headers")
			return nil, nil, nil
		},
	}

	handler := Middleware(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	cases := map[string]string{
		"missing header": "",
		"no scheme":      "abc|def",
		"wrong scheme":   "Basic abc|def",
		"empty token":    "Bearer ",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"success":false,"message":"Unauthenticated."}`, rec.Body.String())
		})
	}
}

func TestMiddleware_RejectsFailedAuthentication(t *testing.T) {
	authenticator := &mockAuthenticator{
		AuthenticateFunc: func(context.Context, string) (*models.User, *models.AuthToken, error) {
			return nil, nil, models.ErrUnauthorized
		},
	}

	handler := Middleware(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer something")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		roles      []string
		wantStatus int
	}{
		{
			name:       "matching role passes",
			user:       &models.User{ID: "u1", Role: models.RoleAdmin},
			roles:      []string{models.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "any of several roles passes",
			user:       &models.User{ID: "u1", Role: models.RoleHost},
			roles:      []string{models.RoleHost, models.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong role is forbidden",
			user:       &models.User{ID: "u1", Role: models.RoleGuest},
			roles:      []string{models.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no identity is unauthorized",
			user:       nil,
			roles:      []string{models.RoleAdmin},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.user != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.user, &models.AuthToken{}))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
