package auth

import (
	"context"

	"github.com/kmercado/casaway/internal/models"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// WithIdentity stores the authenticated user and the token that proved their
// identity on the context.
func WithIdentity(ctx context.Context, user *models.User, token *models.AuthToken) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, tokenContextKey, token)
}

// UserFromContext returns the authenticated user, nil when unauthenticated.
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// TokenFromContext returns the token used on this request, nil when
// unauthenticated.
func TokenFromContext(ctx context.Context) *models.AuthToken {
	token, ok := ctx.Value(tokenContextKey).(*models.AuthToken)
	if !ok {
		return nil
	}
	return token
}
