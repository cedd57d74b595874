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

type AvailabilityRepository struct {
	db *database.DB
}

func NewAvailabilityRepository(db *database.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func scanAvailabilityRows(rows pgx.Rows) ([]*models.Availability, error) {
	defer rows.Close()

	windows := make([]*models.Availability, 0)

	for rows.Next() {
		var a models.Availability
		err := rows.Scan(&a.ID, &a.RoomID, &a.StartDate, &a.EndDate, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		windows = append(windows, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return windows, nil
}

// ListForRoom returns a room's declared availability windows.
func (r *AvailabilityRepository) ListForRoom(ctx context.Context, roomID string) ([]*models.Availability, error) {
	query := `
		SELECT id, room_id, start_date, end_date, created_at, updated_at
		FROM availabilities WHERE room_id = $1
		ORDER BY start_date
	`

	rows, err := r.db.Pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availabilities: %w", err)
	}

	return scanAvailabilityRows(rows)
}

// ListForRooms returns every declared window for the given rooms, grouped by
// room. Whether a window covers a particular stay is decided by the caller.
func (r *AvailabilityRepository) ListForRooms(ctx context.Context, roomIDs []string) (map[string][]*models.Availability, error) {
	if len(roomIDs) == 0 {
		return map[string][]*models.Availability{}, nil
	}

	query := `
		SELECT id, room_id, start_date, end_date, created_at, updated_at
		FROM availabilities
		WHERE room_id = ANY($1)
		ORDER BY room_id, start_date
	`

	rows, err := r.db.Pool.Query(ctx, query, roomIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query availabilities: %w", err)
	}

	windows, err := scanAvailabilityRows(rows)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[string][]*models.Availability)
	for _, w := range windows {
		byRoom[w.RoomID] = append(byRoom[w.RoomID], w)
	}
	return byRoom, nil
}

// Create declares a new availability window for a room.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.Availability) (*models.Availability, error) {
	window.ID = uuid.New().String()

	now := time.Now()
	window.CreatedAt = now
	window.UpdatedAt = now

	query := `
		INSERT INTO availabilities (id, room_id, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, room_id, start_date, end_date, created_at, updated_at
	`

	var created models.Availability
	err := r.db.Pool.QueryRow(ctx, query,
		window.ID, window.RoomID, window.StartDate, window.EndDate,
		window.CreatedAt, window.UpdatedAt,
	).Scan(&created.ID, &created.RoomID, &created.StartDate, &created.EndDate, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &created, nil
}

// Delete removes an availability window.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM availabilities WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
