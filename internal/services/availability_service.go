package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kmercado/casaway/internal/models"
)

// RoomRepository defines the catalog reads the services need.
type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*models.Room, error)
	List(ctx context.Context, city string, limit, offset int) ([]*models.Room, error)
	GetDetails(ctx context.Context, roomID string) (*models.RoomDetails, error)
}

// AvailabilityRepository persists declared availability windows.
type AvailabilityRepository interface {
	ListForRoom(ctx context.Context, roomID string) ([]*models.Availability, error)
	ListForRooms(ctx context.Context, roomIDs []string) (map[string][]*models.Availability, error)
	Create(ctx context.Context, window *models.Availability) (*models.Availability, error)
	Delete(ctx context.Context, id string) error
}

// BookingCalendarRepository loads the bookings that could block a stay.
type BookingCalendarRepository interface {
	ListBlockingForRooms(ctx context.Context, roomIDs []string, checkIn, checkOut time.Time) (map[string][]*models.Booking, error)
}

// AvailabilityService resolves which rooms can host a stay. A room qualifies
// when at least one availability window fully covers [checkIn, checkOut] and
// no non-cancelled booking overlaps [checkIn, checkOut).
type AvailabilityService struct {
	rooms        RoomRepository
	availability AvailabilityRepository
	bookings     BookingCalendarRepository
	logger       *slog.Logger
}

func NewAvailabilityService(
	rooms RoomRepository,
	availability AvailabilityRepository,
	bookings BookingCalendarRepository,
	logger *slog.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		rooms:        rooms,
		availability: availability,
		bookings:     bookings,
		logger:       logger,
	}
}

// AvailableRoomResponse is one bookable room with its quote for the stay.
type AvailableRoomResponse struct {
	RoomID        string  `json:"room_id"`
	PropertyID    string  `json:"property_id"`
	RoomType      string  `json:"room_type"`
	Description   *string `json:"description,omitempty"`
	Nights        int     `json:"nights"`
	PricePerNight string  `json:"price_per_night"`
	TotalPrice    string  `json:"total_price"`
}

// SearchInput narrows the candidate set before availability is resolved.
type SearchInput struct {
	City     string
	CheckIn  time.Time
	CheckOut time.Time
	Limit    int
	Offset   int
}

// ValidateStay enforces the half-open date rules shared by search and
// booking: check-out strictly after check-in, check-in not in the past.
func ValidateStay(checkIn, checkOut, today time.Time) error {
	if !checkOut.After(checkIn) {
		return models.ErrInvalidDateRange
	}
	if checkIn.Before(today) {
		return models.ErrInvalidDateRange
	}
	return nil
}

// FindAvailableRooms returns the rooms that can host the stay, each with its
// price quote.
func (s *AvailabilityService) FindAvailableRooms(ctx context.Context, input SearchInput) ([]*AvailableRoomResponse, error) {
	if err := ValidateStay(input.CheckIn, input.CheckOut, midnightUTC(time.Now())); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	candidates, err := s.rooms.List(ctx, input.City, limit, input.Offset)
	if err != nil {
		s.logger.Error("failed to list rooms", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if len(candidates) == 0 {
		return []*AvailableRoomResponse{}, nil
	}

	roomIDs := make([]string, 0, len(candidates))
	for _, room := range candidates {
		roomIDs = append(roomIDs, room.ID)
	}

	windows, err := s.availability.ListForRooms(ctx, roomIDs)
	if err != nil {
		s.logger.Error("failed to load availability windows", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	blocking, err := s.bookings.ListBlockingForRooms(ctx, roomIDs, input.CheckIn, input.CheckOut)
	if err != nil {
		s.logger.Error("failed to load bookings", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	available := make([]*AvailableRoomResponse, 0)
	for _, room := range candidates {
		if !stayIsOpen(windows[room.ID], blocking[room.ID], input.CheckIn, input.CheckOut) {
			continue
		}
		available = append(available, quoteRoom(room, input.CheckIn, input.CheckOut))
	}

	return available, nil
}

// IsRoomAvailable answers for a single room. Unknown room ids surface
// ErrNotFound rather than reading as "not available".
func (s *AvailabilityService) IsRoomAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error) {
	if !checkOut.After(checkIn) {
		return false, models.ErrInvalidDateRange
	}

	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, models.ErrNotFound
		}
		s.logger.Error("failed to load room", slog.String("room_id", roomID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	windows, err := s.availability.ListForRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("failed to load availability windows", slog.String("room_id", roomID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	blocking, err := s.bookings.ListBlockingForRooms(ctx, []string{roomID}, checkIn, checkOut)
	if err != nil {
		s.logger.Error("failed to load bookings", slog.String("room_id", roomID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	return stayIsOpen(windows, blocking[roomID], checkIn, checkOut), nil
}

// Quote prices a stay in a specific room without checking availability.
func (s *AvailabilityService) Quote(ctx context.Context, roomID string, checkIn, checkOut time.Time) (*AvailableRoomResponse, error) {
	if !checkOut.After(checkIn) {
		return nil, models.ErrInvalidDateRange
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load room", slog.String("room_id", roomID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return quoteRoom(room, checkIn, checkOut), nil
}

// stayIsOpen applies the two availability rules. A room with no declared
// windows is never bookable.
func stayIsOpen(windows []*models.Availability, blocking []*models.Booking, checkIn, checkOut time.Time) bool {
	covered := false
	for _, w := range windows {
		if w.Covers(checkIn, checkOut) {
			covered = true
			break
		}
	}
	if !covered {
		return false
	}

	for _, b := range blocking {
		if b.Blocks(checkIn, checkOut) {
			return false
		}
	}
	return true
}

func quoteRoom(room *models.Room, checkIn, checkOut time.Time) *AvailableRoomResponse {
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	total := room.PricePerNight.Mul(decimal.NewFromInt(int64(nights))).Round(2)

	return &AvailableRoomResponse{
		RoomID:        room.ID,
		PropertyID:    room.PropertyID,
		RoomType:      room.RoomType,
		Description:   room.Description,
		Nights:        nights,
		PricePerNight: room.PricePerNight.StringFixed(2),
		TotalPrice:    total.StringFixed(2),
	}
}

// midnightUTC truncates to the calendar day used for all date comparisons.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
