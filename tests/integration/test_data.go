package integration

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// openSeedDB opens a database/sql connection for seed helpers. Seeding goes
// through database/sql rather than the pgx pool so array columns can use
// pq.Array without hand-building literals.
func openSeedDB(t *testing.T, connStr string) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("failed to open seed connection: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedUser inserts a user and returns its ID.
func seedUser(t *testing.T, db *sql.DB, email, passwordHash, role string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)`,
		id, "Test User", email, passwordHash, role)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// seedProperty inserts a property owned by hostID and returns its ID.
func seedProperty(t *testing.T, db *sql.DB, hostID, city string, photos []string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO properties (id, host_id, title, address, city, country, photos)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, hostID, "Seaside Flat", "1 Shore Road", city, "Portugal", pq.Array(photos))
	if err != nil {
		t.Fatalf("failed to seed property: %v", err)
	}
	return id
}

// seedRoom inserts a room and returns its ID.
func seedRoom(t *testing.T, db *sql.DB, propertyID, pricePerNight string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO rooms (id, property_id, room_type, price_per_night, photos)
		VALUES ($1, $2, $3, $4, $5)`,
		id, propertyID, "double", pricePerNight, pq.Array([]string{"room.jpg"}))
	if err != nil {
		t.Fatalf("failed to seed room: %v", err)
	}
	return id
}

// seedAvailability opens a bookable window for the room.
func seedAvailability(t *testing.T, db *sql.DB, roomID string, start, end time.Time) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO availabilities (id, room_id, start_date, end_date)
		VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), roomID, start, end)
	if err != nil {
		t.Fatalf("failed to seed availability: %v", err)
	}
}

// seedToken inserts an auth token row directly and returns its ID.
func seedToken(t *testing.T, db *sql.DB, userID, tokenHash string, abilities []string, expiresAt time.Time) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO auth_tokens (id, user_id, name, token_hash, abilities, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, "seed-device", tokenHash, pq.Array(abilities), expiresAt)
	if err != nil {
		t.Fatalf("failed to seed token: %v", err)
	}
	return id
}
