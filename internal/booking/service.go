package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingdb "ms-booking/internal/booking/db"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/shopspring/decimal"
)

type Store interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingsByIDs(ctx context.Context, ids []string) ([]*models.Booking, error)
	ListBookings(ctx context.Context, status string) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id, status string) error
	ApproveBooking(ctx context.Context, id string, transactionID, provider, image *string) (int64, error)
	SetPaymentProof(ctx context.Context, id, image string) (bool, error)
	CreateBooking(ctx context.Context, booking *models.Booking, seatIDs []string) error
	CancelBookingTx(ctx context.Context, id string) error
	ReleaseSeats(ctx context.Context, bookingID string) (int64, error)
	BookSeats(ctx context.Context, bookingID string) (int64, error)
	GetSeatIDsByBooking(ctx context.Context, bookingID string) ([]string, error)
	GetSeats(ctx context.Context, ids []string) ([]*models.Seat, error)
	ListSeats(ctx context.Context) ([]*models.Seat, error)
	ExpiredPendingBookings(ctx context.Context, cutoff time.Time) ([]string, error)
}

type VenueReader interface {
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
}

type HoldManager interface {
	HoldSeats(ctx context.Context, seatIDs []string, bookingID string) (bool, error)
	ReleaseSeats(ctx context.Context, seatIDs []string, bookingID string) error
	HoldBooking(ctx context.Context, bookingID string) (time.Time, error)
	ReleaseBooking(ctx context.Context, bookingID string) error
	BookingHold(ctx context.Context, bookingID string) (time.Duration, bool, error)
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev models.BookingEvent) error
}

type Service struct {
	Store          Store
	Venues         VenueReader
	Holds          HoldManager
	Events         EventPublisher
	Logger         *logger.Logger
	CancelStrategy string
}

func NewService(store Store, venues VenueReader, holds HoldManager, events EventPublisher, cancelStrategy string, log *logger.Logger) *Service {
	return &Service{
		Store:          store,
		Venues:         venues,
		Holds:          holds,
		Events:         events,
		Logger:         log,
		CancelStrategy: cancelStrategy,
	}
}

// ---------------- CANCEL ----------------

// Cancel marks the booking cancelled and frees its seats. With the compensate
// strategy the two writes are independent; when the seat release fails the
// booking is put back to pending before the error is returned. An unknown id
// touches nothing and still succeeds.
func (s *Service) Cancel(ctx context.Context, bookingID string) error {
	if bookingID == "" {
		return ErrBookingIDRequired
	}
	s.Logger.LogBooking("CANCEL", bookingID, "cancellation requested")

	seatIDs, err := s.Store.GetSeatIDsByBooking(ctx, bookingID)
	if err != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Could not list seats of %s before cancel: %v", bookingID, err))
	}

	if s.CancelStrategy == config.CancelStrategyTransaction {
		if err := s.Store.CancelBookingTx(ctx, bookingID); err != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("Cancel transaction for %s failed: %v", bookingID, err))
			return storeErr("cancel booking", err)
		}
	} else {
		if err := s.Store.UpdateBookingStatus(ctx, bookingID, models.BookingCancelled); err != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("Failed to mark %s cancelled: %v", bookingID, err))
			return storeErr("update booking", err)
		}
		if _, err := s.Store.ReleaseSeats(ctx, bookingID); err != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("Failed to release seats of %s: %v", bookingID, err))
			if revertErr := s.Store.UpdateBookingStatus(ctx, bookingID, models.BookingPending); revertErr != nil {
				s.Logger.Error("BOOKING", fmt.Sprintf("Failed to revert %s to pending: %v", bookingID, revertErr))
			}
			return storeErr("release seats", err)
		}
	}

	s.releaseHolds(ctx, bookingID, seatIDs)
	s.publish(ctx, models.BookingEvent{
		BookingID:  bookingID,
		Status:     models.BookingCancelled,
		SeatIDs:    seatIDs,
		OccurredAt: time.Now().UTC(),
	})
	s.Logger.LogBooking("CANCEL", bookingID, fmt.Sprintf("cancelled, %d seats released", len(seatIDs)))
	return nil
}

// HandleHoldExpired cancels a booking whose payment countdown ran out while it
// was still pending without proof. Anything else is left alone.
func (s *Service) HandleHoldExpired(ctx context.Context, bookingID string) error {
	b, err := s.Store.GetBooking(ctx, bookingID)
	if errors.Is(err, bookingdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr("get booking", err)
	}
	if b.Status != models.BookingPending || b.HasProof() {
		s.Logger.LogBooking("HOLD_EXPIRED", bookingID, fmt.Sprintf("status %s, proof=%t, keeping", b.Status, b.HasProof()))
		return nil
	}
	return s.Cancel(ctx, bookingID)
}

// SweepExpired cancels pending bookings older than maxAge that never got a
// proof. It covers expiry notifications missed while the service was down.
func (s *Service) SweepExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := s.Store.ExpiredPendingBookings(ctx, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, storeErr("list expired bookings", err)
	}
	cancelled := 0
	for _, id := range ids {
		if err := s.Cancel(ctx, id); err != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("Sweep could not cancel %s: %v", id, err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// ---------------- READS ----------------

// ValidateOrderIDs splits ids into those naming an existing booking and the
// rest. Malformed ids are never sent to the store.
func (s *Service) ValidateOrderIDs(ctx context.Context, ids []string) (*models.ValidationResult, error) {
	result := &models.ValidationResult{
		ValidIDs:    []string{},
		InvalidIDs:  []string{},
		AllBookings: []*models.Booking{},
	}

	var wellFormed []string
	for _, id := range dedupe(ids) {
		if utils.IsBookingID(id) {
			wellFormed = append(wellFormed, id)
		} else {
			result.InvalidIDs = append(result.InvalidIDs, id)
		}
	}
	if len(wellFormed) == 0 {
		return result, nil
	}

	bookings, err := s.Store.GetBookingsByIDs(ctx, wellFormed)
	if err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("Validate order ids: %v", err))
		return nil, storeErr("get bookings", err)
	}

	found := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		found[strings.ToLower(b.ID)] = true
	}
	for _, id := range wellFormed {
		if found[strings.ToLower(id)] {
			result.ValidIDs = append(result.ValidIDs, id)
		} else {
			result.InvalidIDs = append(result.InvalidIDs, id)
		}
	}
	result.AllBookings = bookings
	return result, nil
}

// FetchByIDs returns the bookings for ids newest first, nested with seats.
func (s *Service) FetchByIDs(ctx context.Context, ids []string) ([]*models.Booking, error) {
	if len(ids) == 0 {
		return nil, ErrNoOrderIDs
	}
	bookings, err := s.Store.GetBookingsByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("get bookings", err)
	}
	return bookings, nil
}

// Get returns the booking with the categories of the venue its seats belong to.
func (s *Service) Get(ctx context.Context, bookingID string) (*models.BookingDetails, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	details := &models.BookingDetails{Booking: b, Categories: []models.Category{}}
	if len(b.Seats) == 0 || s.Venues == nil {
		return details, nil
	}
	venueID := b.Seats[0].VenueID()
	if venueID == "" {
		return details, nil
	}
	venue, err := s.Venues.GetVenue(ctx, venueID)
	if err != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Venue %s for booking %s unavailable: %v", venueID, bookingID, err))
		return details, nil
	}
	details.Categories = venue.Categories
	return details, nil
}

func (s *Service) Status(ctx context.Context, bookingID string) (string, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	return b.Status, nil
}

func (s *Service) List(ctx context.Context, status string) ([]*models.Booking, error) {
	switch status {
	case "", models.BookingPending, models.BookingApproved, models.BookingRejected, models.BookingCancelled:
	default:
		return nil, invalid(fmt.Sprintf("unknown status %q", status))
	}
	bookings, err := s.Store.ListBookings(ctx, status)
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	return bookings, nil
}

// Seats is the admin seat map.
func (s *Service) Seats(ctx context.Context) ([]*models.Seat, error) {
	seats, err := s.Store.ListSeats(ctx)
	if err != nil {
		return nil, storeErr("list seats", err)
	}
	return seats, nil
}

// Hold reports the payment countdown for a booking.
func (s *Service) Hold(ctx context.Context, bookingID string) (*models.HoldStatus, error) {
	if bookingID == "" {
		return nil, ErrBookingIDRequired
	}
	left, active, err := s.Holds.BookingHold(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("read hold: %w", err)
	}
	return &models.HoldStatus{
		BookingID:        bookingID,
		Active:           active,
		RemainingSeconds: int64(left / time.Second),
	}, nil
}

func (s *Service) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if bookingID == "" {
		return nil, ErrBookingIDRequired
	}
	b, err := s.Store.GetBooking(ctx, bookingID)
	if errors.Is(err, bookingdb.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, storeErr("get booking", err)
	}
	return b, nil
}

// ---------------- CREATE ----------------

// Create holds the seats in Redis, then reserves them and inserts the pending
// booking in one transaction. Any failure releases the holds.
func (s *Service) Create(ctx context.Context, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	seatIDs := dedupe(req.SeatIDs)
	switch {
	case len(seatIDs) == 0:
		return nil, invalid("At least one seat is required")
	case strings.TrimSpace(req.Name) == "", strings.TrimSpace(req.Email) == "", strings.TrimSpace(req.Phone) == "":
		return nil, invalid("Name, email and phone are required")
	case req.VenueID == "":
		return nil, invalid("Venue ID is required")
	}

	venue, err := s.Venues.GetVenue(ctx, req.VenueID)
	if err != nil {
		return nil, invalid(fmt.Sprintf("Unknown venue %s", req.VenueID))
	}

	seats, err := s.Store.GetSeats(ctx, seatIDs)
	if err != nil {
		return nil, storeErr("get seats", err)
	}
	amount, err := priceSeats(venue, seats, seatIDs)
	if err != nil {
		return nil, err
	}

	bookingID := utils.NewBookingID()
	ok, err := s.Holds.HoldSeats(ctx, seatIDs, bookingID)
	if err != nil {
		return nil, fmt.Errorf("hold seats: %w", err)
	}
	if !ok {
		return nil, ErrSeatUnavailable
	}

	b := &models.Booking{
		ID:        bookingID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Amount:    amount,
		Status:    models.BookingPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateBooking(ctx, b, seatIDs); err != nil {
		s.releaseHolds(ctx, bookingID, seatIDs)
		if errors.Is(err, bookingdb.ErrSeatsTaken) {
			return nil, ErrSeatUnavailable
		}
		return nil, storeErr("create booking", err)
	}

	expiresAt, err := s.Holds.HoldBooking(ctx, bookingID)
	if err != nil {
		// The sweep still cancels the booking eventually.
		s.Logger.Warn("BOOKING", fmt.Sprintf("No countdown for %s: %v", bookingID, err))
		expiresAt = b.CreatedAt
	}

	s.publish(ctx, models.NewBookingEvent(b, seatIDs))
	s.Logger.LogBooking("CREATE", bookingID, fmt.Sprintf("%d seats, amount %s", len(seatIDs), amount.StringFixed(2)))

	return &models.CreateBookingResponse{
		BookingID:     bookingID,
		Amount:        amount,
		HoldExpiresAt: expiresAt,
	}, nil
}

// priceSeats sums the venue price of every seat's category. Seats of another
// venue or of a hidden or unknown category cannot be booked.
func priceSeats(venue *models.Venue, seats []*models.Seat, seatIDs []string) (decimal.Decimal, error) {
	if len(seats) != len(seatIDs) {
		return decimal.Zero, ErrSeatUnavailable
	}
	prices := make(map[string]models.Category, len(venue.Categories))
	for _, c := range venue.Categories {
		prices[c.Name] = c
	}

	total := decimal.Zero
	for _, seat := range seats {
		if seat.VenueID() != venue.ID {
			return decimal.Zero, invalid(fmt.Sprintf("Seat %s is not in venue %s", seat.ID, venue.ID))
		}
		category, ok := prices[seat.Category]
		if !ok || !category.Visible() {
			return decimal.Zero, ErrSeatUnavailable
		}
		total = total.Add(category.Price)
	}
	return total, nil
}

// ---------------- PAYMENT ----------------

// SubmitPaymentProof attaches the uploaded proof to a pending booking and
// stops its countdown.
func (s *Service) SubmitPaymentProof(ctx context.Context, bookingID, image string) error {
	if bookingID == "" {
		return ErrBookingIDRequired
	}
	if strings.TrimSpace(image) == "" {
		return invalid("Payment proof image is required")
	}

	ok, err := s.Store.SetPaymentProof(ctx, bookingID, image)
	if err != nil {
		return storeErr("set payment proof", err)
	}
	if !ok {
		if _, err := s.getBooking(ctx, bookingID); err != nil {
			return err
		}
		return ErrInvalidState
	}

	if err := s.Holds.ReleaseBooking(ctx, bookingID); err != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Failed to stop countdown for %s: %v", bookingID, err))
	}
	s.Logger.LogBooking("PROOF", bookingID, "payment proof attached")
	return nil
}

// Approval carries the optional gateway fields recorded with an approval.
type Approval struct {
	TransactionID string
	Provider      string
	Image         string
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// ApprovePayment approves a booking on behalf of a payment gateway. It does not
// look at the current status. It reports false when no booking has the id.
func (s *Service) ApprovePayment(ctx context.Context, bookingID string, a Approval) (bool, error) {
	if bookingID == "" {
		return false, ErrBookingIDRequired
	}
	n, err := s.Store.ApproveBooking(ctx, bookingID, optional(a.TransactionID), optional(a.Provider), optional(a.Image))
	if err != nil {
		return false, storeErr("approve booking", err)
	}
	if n == 0 {
		return false, nil
	}
	s.afterApproval(ctx, bookingID, a.Provider)
	return true, nil
}

// Approve is the admin approval of a pending booking.
func (s *Service) Approve(ctx context.Context, bookingID string) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != models.BookingPending {
		return ErrInvalidState
	}
	if _, err := s.Store.ApproveBooking(ctx, bookingID, nil, nil, nil); err != nil {
		return storeErr("approve booking", err)
	}
	s.afterApproval(ctx, bookingID, "")
	return nil
}

func (s *Service) afterApproval(ctx context.Context, bookingID, provider string) {
	booked, err := s.Store.BookSeats(ctx, bookingID)
	if err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("Approved %s but failed to mark seats booked: %v", bookingID, err))
	}
	seatIDs, err := s.Store.GetSeatIDsByBooking(ctx, bookingID)
	if err != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Could not list seats of %s: %v", bookingID, err))
	}
	s.releaseHolds(ctx, bookingID, seatIDs)

	s.publish(ctx, models.BookingEvent{
		BookingID:  bookingID,
		Status:     models.BookingApproved,
		SeatIDs:    seatIDs,
		Provider:   provider,
		OccurredAt: time.Now().UTC(),
	})
	s.Logger.LogBooking("APPROVE", bookingID, fmt.Sprintf("approved, %d seats booked", booked))
}

// Reject marks a pending or approved booking rejected and releases its seats,
// reverting the status when the release fails.
func (s *Service) Reject(ctx context.Context, bookingID string) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != models.BookingPending && b.Status != models.BookingApproved {
		return ErrInvalidState
	}

	if err := s.Store.UpdateBookingStatus(ctx, bookingID, models.BookingRejected); err != nil {
		return storeErr("update booking", err)
	}
	if _, err := s.Store.ReleaseSeats(ctx, bookingID); err != nil {
		if revertErr := s.Store.UpdateBookingStatus(ctx, bookingID, b.Status); revertErr != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("Failed to revert %s to %s: %v", bookingID, b.Status, revertErr))
		}
		return storeErr("release seats", err)
	}

	seatIDs := b.SeatIDs()
	s.releaseHolds(ctx, bookingID, seatIDs)
	s.publish(ctx, models.BookingEvent{
		BookingID:  bookingID,
		Status:     models.BookingRejected,
		SeatIDs:    seatIDs,
		Amount:     b.Amount,
		OccurredAt: time.Now().UTC(),
	})
	s.Logger.LogBooking("REJECT", bookingID, "rejected, seats released")
	return nil
}

// ---------------- HELPERS ----------------

func (s *Service) releaseHolds(ctx context.Context, bookingID string, seatIDs []string) {
	if err := s.Holds.ReleaseSeats(ctx, seatIDs, bookingID); err != nil {
		s.Logger.Warn("REDIS", fmt.Sprintf("Failed to release seat holds of %s: %v", bookingID, err))
	}
	if err := s.Holds.ReleaseBooking(ctx, bookingID); err != nil {
		s.Logger.Warn("REDIS", fmt.Sprintf("Failed to release booking hold of %s: %v", bookingID, err))
	}
}

func (s *Service) publish(ctx context.Context, ev models.BookingEvent) {
	if err := s.Events.PublishBookingEvent(ctx, ev); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s event for %s: %v", ev.Status, ev.BookingID, err))
	}
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
