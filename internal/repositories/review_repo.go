package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kmercado/casaway/internal/database"
	"github.com/kmercado/casaway/internal/models"
)

type ReviewRepository struct {
	db *database.DB
}

func NewReviewRepository(db *database.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	review.ID = uuid.New().String()
	review.CreatedAt = time.Now()

	query := `
		INSERT INTO reviews (id, user_id, property_id, booking_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, property_id, booking_id, rating, comment, created_at
	`

	var created models.Review
	err := r.db.Pool.QueryRow(ctx, query,
		review.ID, review.UserID, review.PropertyID, review.BookingID,
		review.Rating, review.Comment, review.CreatedAt,
	).Scan(&created.ID, &created.UserID, &created.PropertyID, &created.BookingID,
		&created.Rating, &created.Comment, &created.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &created, nil
}

// ListByProperty returns a property's reviews, newest first.
func (r *ReviewRepository) ListByProperty(ctx context.Context, propertyID string, limit, offset int) ([]*models.Review, error) {
	query := `
		SELECT id, user_id, property_id, booking_id, rating, comment, created_at
		FROM reviews WHERE property_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, propertyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		var review models.Review
		err := rows.Scan(&review.ID, &review.UserID, &review.PropertyID, &review.BookingID,
			&review.Rating, &review.Comment, &review.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reviews, nil
}
