package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kmercado/casaway/internal/database"
	"github.com/kmercado/casaway/internal/models"
)

// LoginAttemptRepository writes the durable authentication audit trail.
// Rows are append-only; nothing but the retention job deletes them.
type LoginAttemptRepository struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// Record inserts one attempt row.
func (r *LoginAttemptRepository) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	attempt.ID = uuid.New().String()
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now()
	}

	query := `
		INSERT INTO login_attempts (id, user_id, email, ip_address, user_agent, token_id, successful, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.ID, attempt.UserID, attempt.Email, attempt.IPAddress,
		attempt.UserAgent, attempt.TokenID, attempt.Successful, attempt.AttemptedAt,
	)
	return database.MapPostgresError(err)
}

func scanAttemptRows(rows pgx.Rows) ([]*models.LoginAttempt, error) {
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0)

	for rows.Next() {
		var a models.LoginAttempt
		err := rows.Scan(
			&a.ID, &a.UserID, &a.Email, &a.IPAddress, &a.UserAgent,
			&a.TokenID, &a.Successful, &a.AttemptedAt, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return attempts, nil
}

// ListRecent returns attempts regardless of outcome, newest first.
func (r *LoginAttemptRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, user_id, email, ip_address, user_agent, token_id, successful, attempted_at, created_at
		FROM login_attempts
		ORDER BY attempted_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}

	return scanAttemptRows(rows)
}

// ListRecentFailures returns failed attempts since the cutoff, newest first.
// Feeds the admin security overview.
func (r *LoginAttemptRepository) ListRecentFailures(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, user_id, email, ip_address, user_agent, token_id, successful, attempted_at, created_at
		FROM login_attempts
		WHERE successful = false AND attempted_at >= $1
		ORDER BY attempted_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}

	return scanAttemptRows(rows)
}

// FailureCountsByEmail aggregates failed attempts per email since the cutoff.
func (r *LoginAttemptRepository) FailureCountsByEmail(ctx context.Context, since time.Time, limit int) (map[string]int, error) {
	query := `
		SELECT email, COUNT(*) FROM login_attempts
		WHERE successful = false AND attempted_at >= $1
		GROUP BY email
		ORDER BY COUNT(*) DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query failure counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var email string
		var count int
		if err := rows.Scan(&email, &count); err != nil {
			return nil, fmt.Errorf("failed to scan failure count: %w", err)
		}
		counts[email] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

// CountSince returns total and successful attempts since the cutoff.
func (r *LoginAttemptRepository) CountSince(ctx context.Context, since time.Time) (total, successful int, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE successful)
		FROM login_attempts WHERE attempted_at >= $1
	`

	if err := r.db.Pool.QueryRow(ctx, query, since).Scan(&total, &successful); err != nil {
		return 0, 0, database.MapPostgresError(err)
	}
	return total, successful, nil
}

// DeleteOlderThan enforces the audit retention window. Run by the background
// cleanup job.
func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE attempted_at < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return int(tag.RowsAffected()), nil
}
