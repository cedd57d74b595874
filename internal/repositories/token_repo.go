package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kmercado/casaway/internal/database"
	"github.com/kmercado/casaway/internal/models"
)

// TokenRepository persists auth tokens. Only hashes are stored; the plaintext
// secret never reaches this layer.
type TokenRepository struct {
	db *database.DB
}

func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, user_id, name, token_hash, abilities, last_used_at, expires_at, created_at`

func scanTokenRow(scanner rowScanner) (*models.AuthToken, error) {
	var token models.AuthToken

	err := scanner.Scan(
		&token.ID, &token.UserID, &token.Name, &token.TokenHash,
		&token.Abilities, &token.LastUsedAt, &token.ExpiresAt, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &token, nil
}

func scanTokenRows(rows pgx.Rows) ([]*models.AuthToken, error) {
	defer rows.Close()

	tokens := make([]*models.AuthToken, 0)

	for rows.Next() {
		token, err := scanTokenRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tokens, nil
}

func (r *TokenRepository) Create(ctx context.Context, token *models.AuthToken) (*models.AuthToken, error) {
	token.CreatedAt = time.Now()

	query := `
		INSERT INTO auth_tokens (id, user_id, name, token_hash, abilities, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + tokenColumns

	return scanTokenRow(r.db.Pool.QueryRow(ctx, query,
		token.ID, token.UserID, token.Name, token.TokenHash,
		token.Abilities, token.ExpiresAt, token.CreatedAt,
	))
}

func (r *TokenRepository) GetByID(ctx context.Context, id string) (*models.AuthToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM auth_tokens WHERE id = $1`
	return scanTokenRow(r.db.Pool.QueryRow(ctx, query, id))
}

// ListActiveByUser returns the user's unexpired tokens, newest first.
func (r *TokenRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.AuthToken, error) {
	query := `
		SELECT ` + tokenColumns + ` FROM auth_tokens
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}

	return scanTokenRows(rows)
}

func (r *TokenRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM auth_tokens WHERE user_id = $1 AND expires_at > now()`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// CountActive reports unexpired tokens across all users.
func (r *TokenRepository) CountActive(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM auth_tokens WHERE expires_at > now()`

	var count int64
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// TouchLastUsed stamps token usage. Best effort; callers may ignore failures.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE auth_tokens SET last_used_at = $1 WHERE id = $2`
	_, err := r.db.Pool.Exec(ctx, query, at, id)
	return database.MapPostgresError(err)
}

// DeleteByID removes a token unconditionally (logout with the token in hand).
func (r *TokenRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM auth_tokens WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteByIDForUser removes a token only when it belongs to the user.
// A token owned by someone else is indistinguishable from a missing one.
func (r *TokenRepository) DeleteByIDForUser(ctx context.Context, id, userID string) error {
	query := `DELETE FROM auth_tokens WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, id, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteAllForUser revokes every session. Returns the number removed.
func (r *TokenRepository) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return int(tag.RowsAffected()), nil
}

// Rotate inserts the replacement token and deletes the old one atomically.
// The insert-then-delete order means a crash between the two steps leaves an
// extra valid token rather than a logged-out user; the transaction makes the
// pair atomic anyway. The per-user advisory lock serializes concurrent
// refreshes of the same account so two racing refreshes cannot both consume
// the old token.
func (r *TokenRepository) Rotate(ctx context.Context, oldID string, replacement *models.AuthToken) (*models.AuthToken, error) {
	var rotated *models.AuthToken

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, replacement.UserID); err != nil {
			return database.MapPostgresError(err)
		}

		replacement.CreatedAt = time.Now()

		insert := `
			INSERT INTO auth_tokens (id, user_id, name, token_hash, abilities, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING ` + tokenColumns

		token, err := scanTokenRow(tx.QueryRow(ctx, insert,
			replacement.ID, replacement.UserID, replacement.Name, replacement.TokenHash,
			replacement.Abilities, replacement.ExpiresAt, replacement.CreatedAt,
		))
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM auth_tokens WHERE id = $1 AND user_id = $2`, oldID, replacement.UserID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			// The old token vanished mid-refresh (revoked or already rotated).
			return models.ErrUnauthorized
		}

		rotated = token
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rotated, nil
}

// DeleteExpired removes tokens past their expiry. Run by the background
// cleanup job.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return int(tag.RowsAffected()), nil
}
