package venue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

var (
	ErrVenueNotFound    = errors.New("venue not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrVenueRequired    = errors.New("venue id is required")
	ErrEmptyCategoryID  = errors.New("category id must not be empty")
)

type Store interface {
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
	SaveCategories(ctx context.Context, venue *models.Venue) error
	ListCategorySettings(ctx context.Context) ([]models.CategorySetting, error)
	ReplaceCategorySettings(ctx context.Context, visibility map[string]bool) error
	ListSeats(ctx context.Context, venueID string) ([]*models.Seat, error)
}

// SeatHolds reports which seats carry a live payment hold.
type SeatHolds interface {
	SeatHolders(ctx context.Context, seatIDs []string) (map[string]string, error)
}

// Service owns category visibility. Two sources exist: the isVisible flag
// inside venues.categories, read by the public seat map, and the
// category_settings table, read only by the admin seat map.
type Service struct {
	Store          Store
	Holds          SeatHolds
	DefaultVenueID string
	Logger         *logger.Logger
}

// NewService builds the venue service. holds may be nil, in which case the
// seat map never marks seats as held.
func NewService(store Store, holds SeatHolds, defaultVenueID string, log *logger.Logger) *Service {
	return &Service{Store: store, Holds: holds, DefaultVenueID: defaultVenueID, Logger: log}
}

func (s *Service) venueID(id string) (string, error) {
	if id == "" {
		id = s.DefaultVenueID
	}
	if id == "" {
		return "", ErrVenueRequired
	}
	return id, nil
}

// VisibleCategories returns the categories whose isVisible flag is not false.
// An empty venue id falls back to the configured default venue.
func (s *Service) VisibleCategories(ctx context.Context, venueID string) ([]models.Category, error) {
	all, err := s.Categories(ctx, venueID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Category, 0, len(all))
	for _, c := range all {
		if c.Visible() {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// SeatMap returns the venue's visible categories and the seats that belong
// to them. Seats of hidden categories are left out. A failed hold lookup only
// loses the held flags.
func (s *Service) SeatMap(ctx context.Context, venueID string) (*models.SeatMap, error) {
	id, err := s.venueID(venueID)
	if err != nil {
		return nil, err
	}
	categories, err := s.VisibleCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(categories))
	for _, c := range categories {
		visible[strings.ToLower(c.Name)] = true
	}

	seats, err := s.Store.ListSeats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}

	out := &models.SeatMap{VenueID: id, Categories: categories, Seats: make([]models.MapSeat, 0, len(seats))}
	seatIDs := make([]string, 0, len(seats))
	for _, seat := range seats {
		if !visible[strings.ToLower(seat.Category)] {
			continue
		}
		ms := models.MapSeat{
			ID:         seat.ID,
			SeatNumber: seat.SeatNumber,
			Category:   seat.Category,
			Status:     seat.Status,
		}
		if seat.Row != nil {
			ms.RowNumber = seat.Row.RowNumber
			if seat.Row.Zone != nil {
				ms.Zone = seat.Row.Zone.Name
			}
		}
		out.Seats = append(out.Seats, ms)
		seatIDs = append(seatIDs, seat.ID)
	}

	if s.Holds == nil || len(seatIDs) == 0 {
		return out, nil
	}
	holders, err := s.Holds.SeatHolders(ctx, seatIDs)
	if err != nil {
		s.Logger.Warn("VENUE", fmt.Sprintf("Seat holds for venue %s unavailable: %v", id, err))
		return out, nil
	}
	for i := range out.Seats {
		_, out.Seats[i].Held = holders[out.Seats[i].ID]
	}
	return out, nil
}

// Categories returns every category of the venue, hidden ones included.
func (s *Service) Categories(ctx context.Context, venueID string) ([]models.Category, error) {
	id, err := s.venueID(venueID)
	if err != nil {
		return nil, err
	}
	venue, err := s.Store.GetVenue(ctx, id)
	if err != nil {
		return nil, err
	}
	if venue.Categories == nil {
		return []models.Category{}, nil
	}
	return venue.Categories, nil
}

// SetCategoryVisibility flips one category's flag on the venue list. Names
// match case-insensitively.
func (s *Service) SetCategoryVisibility(ctx context.Context, venueID, name string, visible bool) (*models.Category, error) {
	id, err := s.venueID(venueID)
	if err != nil {
		return nil, err
	}
	venue, err := s.Store.GetVenue(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, c := range venue.Categories {
		if strings.EqualFold(c.Name, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCategoryNotFound
	}

	flag := visible
	venue.Categories[idx].IsVisible = &flag
	if err := s.Store.SaveCategories(ctx, venue); err != nil {
		return nil, fmt.Errorf("save categories: %w", err)
	}
	s.Logger.Info("VENUE", fmt.Sprintf("Category %s of venue %s visible=%t", venue.Categories[idx].Name, id, visible))
	return &venue.Categories[idx], nil
}

// CategorySettings reads the settings table as category -> visible.
func (s *Service) CategorySettings(ctx context.Context) (map[string]bool, error) {
	rows, err := s.Store.ListCategorySettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.CategoryID] = r.IsVisible
	}
	return out, nil
}

// SaveCategorySettings replaces the whole settings table with visibility.
func (s *Service) SaveCategorySettings(ctx context.Context, visibility map[string]bool) error {
	for k := range visibility {
		if strings.TrimSpace(k) == "" {
			return ErrEmptyCategoryID
		}
	}
	if err := s.Store.ReplaceCategorySettings(ctx, visibility); err != nil {
		return err
	}
	s.Logger.Info("VENUE", fmt.Sprintf("Category settings saved (%d categories)", len(visibility)))
	return nil
}
