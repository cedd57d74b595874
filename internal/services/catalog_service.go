package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kmercado/casaway/internal/models"
)

// CatalogService serves the public room listing and detail pages.
type CatalogService struct {
	rooms        RoomRepository
	availability AvailabilityRepository
	reviews      ReviewRepository
	logger       *slog.Logger
}

func NewCatalogService(rooms RoomRepository, availability AvailabilityRepository, reviews ReviewRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		rooms:        rooms,
		availability: availability,
		reviews:      reviews,
		logger:       logger,
	}
}

// RoomSummaryResponse is a room in list results.
type RoomSummaryResponse struct {
	ID            string   `json:"id"`
	PropertyID    string   `json:"property_id"`
	RoomType      string   `json:"room_type"`
	PricePerNight string   `json:"price_per_night"`
	Description   *string  `json:"description,omitempty"`
	Photos        []string `json:"photos"`
}

// PropertyResponse is the property block inside a room detail.
type PropertyResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Photos    []string `json:"photos"`
}

// AmenityResponse is one amenity on a room detail.
type AmenityResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// AvailabilityWindowResponse is one declared window on a room detail.
type AvailabilityWindowResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// RoomReviewResponse is one guest review on a room detail.
type RoomReviewResponse struct {
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomDetailResponse is the full room page: room, property, amenities,
// review summary and declared availability windows.
type RoomDetailResponse struct {
	Room          RoomSummaryResponse          `json:"room"`
	Property      PropertyResponse             `json:"property"`
	Amenities     []AmenityResponse            `json:"amenities"`
	AverageRating *float64                     `json:"average_rating"`
	ReviewCount   int                          `json:"review_count"`
	RecentReviews []RoomReviewResponse         `json:"recent_reviews"`
	Availability  []AvailabilityWindowResponse `json:"availability"`
}

func roomToSummary(room *models.Room) RoomSummaryResponse {
	return RoomSummaryResponse{
		ID:            room.ID,
		PropertyID:    room.PropertyID,
		RoomType:      room.RoomType,
		PricePerNight: room.PricePerNight.StringFixed(2),
		Description:   room.Description,
		Photos:        room.Photos,
	}
}

// ListRooms returns rooms, optionally filtered by city.
func (s *CatalogService) ListRooms(ctx context.Context, city string, limit, offset int) ([]RoomSummaryResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rooms, err := s.rooms.List(ctx, city, limit, offset)
	if err != nil {
		s.logger.Error("failed to list rooms", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	summaries := make([]RoomSummaryResponse, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, roomToSummary(room))
	}
	return summaries, nil
}

// GetRoom assembles the room detail page in two repository calls, one for
// the aggregate and one for the windows.
func (s *CatalogService) GetRoom(ctx context.Context, roomID string) (*RoomDetailResponse, error) {
	details, err := s.rooms.GetDetails(ctx, roomID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load room details", slog.String("room_id", roomID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	windows, err := s.availability.ListForRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("failed to load availability windows", slog.String("room_id", roomID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	recent, err := s.reviews.ListByProperty(ctx, details.Property.ID, 5, 0)
	if err != nil {
		s.logger.Error("failed to load reviews", slog.String("room_id", roomID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	amenities := make([]AmenityResponse, 0, len(details.Amenities))
	for _, a := range details.Amenities {
		amenities = append(amenities, AmenityResponse{Name: a.Name, Category: a.Category})
	}

	recentReviews := make([]RoomReviewResponse, 0, len(recent))
	for _, rv := range recent {
		recentReviews = append(recentReviews, RoomReviewResponse{
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			CreatedAt: rv.CreatedAt,
		})
	}

	windowResponses := make([]AvailabilityWindowResponse, 0, len(windows))
	for _, w := range windows {
		windowResponses = append(windowResponses, windowToResponse(w))
	}

	return &RoomDetailResponse{
		Room: roomToSummary(&details.Room),
		Property: PropertyResponse{
			ID:        details.Property.ID,
			Title:     details.Property.Title,
			Address:   details.Property.Address,
			City:      details.Property.City,
			Country:   details.Property.Country,
			Latitude:  details.Property.Latitude,
			Longitude: details.Property.Longitude,
			Photos:    details.Property.Photos,
		},
		Amenities:     amenities,
		AverageRating: details.AverageRating,
		ReviewCount:   details.ReviewCount,
		RecentReviews: recentReviews,
		Availability:  windowResponses,
	}, nil
}

func windowToResponse(w *models.Availability) AvailabilityWindowResponse {
	return AvailabilityWindowResponse{
		ID:        w.ID,
		StartDate: w.StartDate.Format("2006-01-02"),
		EndDate:   w.EndDate.Format("2006-01-02"),
	}
}

// AvailabilityWindowInput is the validated window payload. Dates are
// inclusive; a single-day window has equal start and end.
type AvailabilityWindowInput struct {
	StartDate time.Time
	EndDate   time.Time
}

// authorizeRoomHost admits admins and the host of the property the room
// belongs to. Everyone else sees the room as missing.
func (s *CatalogService) authorizeRoomHost(ctx context.Context, user *models.User, roomID string) error {
	details, err := s.rooms.GetDetails(ctx, roomID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load room details", slog.String("room_id", roomID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.Role != models.RoleAdmin && details.Property.HostID != user.ID {
		return models.ErrNotFound
	}
	return nil
}

// AddAvailabilityWindow declares a new bookable window on a room. Hosts may
// only manage rooms of their own properties.
func (s *CatalogService) AddAvailabilityWindow(ctx context.Context, user *models.User, roomID string, input AvailabilityWindowInput) (*AvailabilityWindowResponse, error) {
	if input.EndDate.Before(input.StartDate) {
		return nil, models.ErrInvalidDateRange
	}

	if err := s.authorizeRoomHost(ctx, user, roomID); err != nil {
		return nil, err
	}

	window, err := s.availability.Create(ctx, &models.Availability{
		RoomID:    roomID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	})
	if err != nil {
		s.logger.Error("failed to create availability window", slog.String("room_id", roomID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp := windowToResponse(window)
	return &resp, nil
}

// RemoveAvailabilityWindow withdraws a declared window. The window must
// belong to the named room; ids from other rooms read as missing.
func (s *CatalogService) RemoveAvailabilityWindow(ctx context.Context, user *models.User, roomID, windowID string) error {
	if err := s.authorizeRoomHost(ctx, user, roomID); err != nil {
		return err
	}

	windows, err := s.availability.ListForRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("failed to load availability windows", slog.String("room_id", roomID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	found := false
	for _, w := range windows {
		if w.ID == windowID {
			found = true
			break
		}
	}
	if !found {
		return models.ErrNotFound
	}

	if err := s.availability.Delete(ctx, windowID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete availability window", slog.String("window_id", windowID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}
