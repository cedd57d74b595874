package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kmercado/casaway/internal/database"
	"github.com/kmercado/casaway/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, seq, booking_id, user_id, amount::text, currency, payment_method, payment_status, transaction_id, paid_at, refunded_amount::text, refund_reason, refunded_at, created_at, updated_at`

func scanPaymentRow(scanner rowScanner) (*models.Payment, error) {
	var payment models.Payment
	var amount string
	var refunded *string

	err := scanner.Scan(
		&payment.ID, &payment.Sequence, &payment.BookingID, &payment.UserID,
		&amount, &payment.Currency, &payment.PaymentMethod, &payment.PaymentStatus,
		&payment.TransactionID, &payment.PaidAt,
		&refunded, &payment.RefundReason, &payment.RefundedAt,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if payment.Amount, err = parseMoney(amount); err != nil {
		return nil, err
	}
	if refunded != nil {
		d, err := parseMoney(*refunded)
		if err != nil {
			return nil, err
		}
		payment.RefundedAmount = &d
	}

	return &payment, nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New().String()
	if payment.PaymentStatus == "" {
		payment.PaymentStatus = models.PaymentPending
	}
	if payment.Currency == "" {
		payment.Currency = "USD"
	}

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	query := `
		INSERT INTO payments (id, booking_id, user_id, amount, currency, payment_method, payment_status, transaction_id, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + paymentColumns

	return scanPaymentRow(r.db.Pool.QueryRow(ctx, query,
		payment.ID, payment.BookingID, payment.UserID,
		payment.Amount.StringFixed(2), payment.Currency,
		payment.PaymentMethod, payment.PaymentStatus,
		payment.TransactionID, payment.PaidAt,
		payment.CreatedAt, payment.UpdatedAt,
	))
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPaymentRow(r.db.Pool.QueryRow(ctx, query, id))
}

// ListByBooking returns a booking's payments, oldest first.
func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return payments, nil
}

// MarkCompleted records a successful charge.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, id, transactionID string, paidAt time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET payment_status = $1, transaction_id = $2, paid_at = $3, updated_at = $3
		WHERE id = $4
		RETURNING ` + paymentColumns

	return scanPaymentRow(r.db.Pool.QueryRow(ctx, query, models.PaymentCompleted, transactionID, paidAt, id))
}

// RecordRefund applies a full or partial refund.
func (r *PaymentRepository) RecordRefund(ctx context.Context, id string, amount string, reason string, status string, at time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET payment_status = $1, refunded_amount = $2, refund_reason = $3, refunded_at = $4, updated_at = $4
		WHERE id = $5
		RETURNING ` + paymentColumns

	return scanPaymentRow(r.db.Pool.QueryRow(ctx, query, status, amount, reason, at, id))
}
