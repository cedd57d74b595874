package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Room struct {
	ID            string
	PropertyID    string
	RoomType      string
	PricePerNight decimal.Decimal
	Description   *string
	Photos        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RoomDetails is the fully-assembled aggregate returned by the catalog:
// room, its property, amenities and review summary loaded in one repository
// call rather than lazily.
type RoomDetails struct {
	Room          Room
	Property      Property
	Amenities     []Amenity
	AverageRating *float64
	ReviewCount   int
}
