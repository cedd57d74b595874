package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses
const (
	PaymentPending           = "pending"
	PaymentCompleted         = "completed"
	PaymentFailed            = "failed"
	PaymentRefunded          = "refunded"
	PaymentPartiallyRefunded = "partially_refunded"
)

type Payment struct {
	ID             string
	Sequence       int64
	BookingID      string
	UserID         string
	Amount         decimal.Decimal
	Currency       string
	PaymentMethod  string
	PaymentStatus  string
	TransactionID  *string
	PaidAt         *time.Time
	RefundedAmount *decimal.Decimal
	RefundReason   *string
	RefundedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reference returns the human-facing payment reference, e.g. PAY-00000042.
func (p *Payment) Reference() string {
	return fmt.Sprintf("PAY-%08d", p.Sequence)
}

// NetAmount is the paid amount minus any refunds.
func (p *Payment) NetAmount() decimal.Decimal {
	if p.RefundedAmount == nil {
		return p.Amount
	}
	return p.Amount.Sub(*p.RefundedAmount)
}

// IsOverdue reports whether a pending payment has been outstanding for more
// than seven days.
func (p *Payment) IsOverdue(now time.Time) bool {
	if p.PaymentStatus != PaymentPending {
		return false
	}
	return now.Sub(p.CreatedAt) > 7*24*time.Hour
}
