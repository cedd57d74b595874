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

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, seq, user_id, room_id, check_in_date, check_out_date, guests_count, status, total_price::text, created_at, updated_at`

func scanBookingRow(scanner rowScanner) (*models.Booking, error) {
	var booking models.Booking
	var total string

	err := scanner.Scan(
		&booking.ID, &booking.Sequence, &booking.UserID, &booking.RoomID,
		&booking.CheckInDate, &booking.CheckOutDate, &booking.GuestsCount,
		&booking.Status, &total, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if booking.TotalPrice, err = parseMoney(total); err != nil {
		return nil, err
	}
	return &booking, nil
}

func scanBookingRows(rows pgx.Rows) ([]*models.Booking, error) {
	defer rows.Close()

	bookings := make([]*models.Booking, 0)

	for rows.Next() {
		booking, err := scanBookingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return bookings, nil
}

// Create inserts a booking after re-checking for conflicts inside a
// transaction. The per-room advisory lock serializes concurrent creates for
// the same room so the check-then-insert is race-free; the bookings_no_overlap
// exclusion constraint remains the authoritative backstop and maps to
// models.ErrRoomUnavailable if anything slips through.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	booking.ID = uuid.New().String()
	if booking.Status == "" {
		booking.Status = models.BookingPending
	}

	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	var created *models.Booking

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, booking.RoomID); err != nil {
			return database.MapPostgresError(err)
		}

		var conflicts int
		conflictQuery := `
			SELECT COUNT(*) FROM bookings
			WHERE room_id = $1 AND status <> 'cancelled'
			  AND check_in_date < $3 AND $2 < check_out_date
		`
		if err := tx.QueryRow(ctx, conflictQuery, booking.RoomID, booking.CheckInDate, booking.CheckOutDate).Scan(&conflicts); err != nil {
			return database.MapPostgresError(err)
		}
		if conflicts > 0 {
			return models.ErrRoomUnavailable
		}

		insert := `
			INSERT INTO bookings (id, user_id, room_id, check_in_date, check_out_date, guests_count, status, total_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING ` + bookingColumns

		row, err := scanBookingRow(tx.QueryRow(ctx, insert,
			booking.ID, booking.UserID, booking.RoomID,
			booking.CheckInDate, booking.CheckOutDate, booking.GuestsCount,
			booking.Status, booking.TotalPrice.StringFixed(2),
			booking.CreatedAt, booking.UpdatedAt,
		))
		if err != nil {
			return err
		}

		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBookingRow(r.db.Pool.QueryRow(ctx, query, id))
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}

	return scanBookingRows(rows)
}

// ListBlockingForRooms returns, grouped by room, the non-cancelled bookings
// that overlap the stay for any of the given rooms.
func (r *BookingRepository) ListBlockingForRooms(ctx context.Context, roomIDs []string, checkIn, checkOut time.Time) (map[string][]*models.Booking, error) {
	if len(roomIDs) == 0 {
		return map[string][]*models.Booking{}, nil
	}

	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE room_id = ANY($1) AND status <> 'cancelled'
		  AND check_in_date < $3 AND $2 < check_out_date
		ORDER BY room_id, check_in_date
	`

	rows, err := r.db.Pool.Query(ctx, query, roomIDs, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}

	bookings, err := scanBookingRows(rows)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[string][]*models.Booking)
	for _, b := range bookings {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}
	return byRoom, nil
}

// UpdateStatus moves a booking to the next status. Transition legality is
// decided by the service; this enforces only that the row still holds the
// status the caller saw, so concurrent transitions cannot double-apply.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (*models.Booking, error) {
	query := `
		UPDATE bookings SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bookingColumns

	booking, err := scanBookingRow(r.db.Pool.QueryRow(ctx, query, to, time.Now(), id, from))
	if err != nil {
		return nil, err
	}
	return booking, nil
}
