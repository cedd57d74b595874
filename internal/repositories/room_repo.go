package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kmercado/casaway/internal/database"
	"github.com/kmercado/casaway/internal/models"
)

// RoomRepository loads rooms, their parent properties and the related
// amenity/review summaries.
type RoomRepository struct {
	db *database.DB
}

func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, property_id, room_type, price_per_night::text, description, photos, created_at, updated_at`

func scanRoomRow(scanner rowScanner) (*models.Room, error) {
	var room models.Room
	var price string

	err := scanner.Scan(
		&room.ID, &room.PropertyID, &room.RoomType, &price,
		&room.Description, &room.Photos, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if room.PricePerNight, err = parseMoney(price); err != nil {
		return nil, err
	}
	return &room, nil
}

func scanRoomRows(rows pgx.Rows) ([]*models.Room, error) {
	defer rows.Close()

	rooms := make([]*models.Room, 0)

	for rows.Next() {
		room, err := scanRoomRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rooms, nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	return scanRoomRow(r.db.Pool.QueryRow(ctx, query, id))
}

// List returns rooms filtered by city when one is given.
func (r *RoomRepository) List(ctx context.Context, city string, limit, offset int) ([]*models.Room, error) {
	query := `
		SELECT r.id, r.property_id, r.room_type, r.price_per_night::text, r.description, r.photos, r.created_at, r.updated_at
		FROM rooms r
		JOIN properties p ON p.id = r.property_id
		WHERE ($1 = '' OR lower(p.city) = lower($1))
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, city, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}

	return scanRoomRows(rows)
}

// GetDetails assembles the room aggregate: room, property, amenities and the
// property's review summary, all loaded eagerly.
func (r *RoomRepository) GetDetails(ctx context.Context, roomID string) (*models.RoomDetails, error) {
	query := `
		SELECT r.id, r.property_id, r.room_type, r.price_per_night::text, r.description, r.photos, r.created_at, r.updated_at,
		       p.id, p.host_id, p.title, p.description, p.address, p.city, p.country, p.latitude, p.longitude, p.photos, p.created_at, p.updated_at,
		       (SELECT AVG(rating)::float8 FROM reviews WHERE property_id = p.id),
		       (SELECT COUNT(*) FROM reviews WHERE property_id = p.id)
		FROM rooms r
		JOIN properties p ON p.id = r.property_id
		WHERE r.id = $1
	`

	var details models.RoomDetails
	var price string

	err := r.db.Pool.QueryRow(ctx, query, roomID).Scan(
		&details.Room.ID, &details.Room.PropertyID, &details.Room.RoomType, &price,
		&details.Room.Description, &details.Room.Photos, &details.Room.CreatedAt, &details.Room.UpdatedAt,
		&details.Property.ID, &details.Property.HostID, &details.Property.Title, &details.Property.Description,
		&details.Property.Address, &details.Property.City, &details.Property.Country,
		&details.Property.Latitude, &details.Property.Longitude, &details.Property.Photos,
		&details.Property.CreatedAt, &details.Property.UpdatedAt,
		&details.AverageRating, &details.ReviewCount,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if details.Room.PricePerNight, err = parseMoney(price); err != nil {
		return nil, err
	}

	amenities, err := r.listAmenities(ctx, roomID)
	if err != nil {
		return nil, err
	}
	details.Amenities = amenities

	return &details, nil
}

func (r *RoomRepository) listAmenities(ctx context.Context, roomID string) ([]models.Amenity, error) {
	query := `
		SELECT a.id, a.name, a.category
		FROM amenities a
		JOIN room_amenity ra ON ra.amenity_id = a.id
		WHERE ra.room_id = $1
		ORDER BY a.name
	`

	rows, err := r.db.Pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query amenities: %w", err)
	}
	defer rows.Close()

	amenities := make([]models.Amenity, 0)
	for rows.Next() {
		var a models.Amenity
		if err := rows.Scan(&a.ID, &a.Name, &a.Category); err != nil {
			return nil, fmt.Errorf("failed to scan amenity: %w", err)
		}
		amenities = append(amenities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return amenities, nil
}
