package models

import "time"

type Property struct {
	ID          string
	HostID      string
	Title       string
	Description *string
	Address     string
	City        string
	Country     string
	Latitude    *float64
	Longitude   *float64
	Photos      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Amenity struct {
	ID       string
	Name     string
	Category string
}
