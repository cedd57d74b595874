package repositories

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// parseMoney converts a NUMERIC column selected as text into a decimal.
// Prices and totals always travel as text between Postgres and Go so no
// float conversion ever touches them.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse money value %q: %w", s, err)
	}
	return d, nil
}
