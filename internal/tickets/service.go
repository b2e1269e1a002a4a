package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

var (
	ErrCodeRequired     = errors.New("ticket code is required")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrNotApproved      = errors.New("seat has no approved booking")
	ErrWrongBooking     = errors.New("seat does not belong to this booking")
	ErrAlreadyCheckedIn = errors.New("seat is already checked in")
	ErrNotCheckedIn     = errors.New("seat is not checked in")
)

const (
	ModeCheckIn  = "checkin"
	ModeCheckOut = "checkout"
	ModeInfo     = "info"
)

type Store interface {
	GetSeat(ctx context.Context, id string) (*models.Seat, error)
	SetCheckIn(ctx context.Context, seatID string, checkedIn bool, at time.Time) (bool, error)
	Attendees(ctx context.Context) ([]*models.Seat, error)
}

// ScanResult is what the scanner shows after reading a code.
type ScanResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Details  string       `json:"details,omitempty"`
	SeatInfo string       `json:"seatInfo,omitempty"`
	Mode     string       `json:"mode"`
	SeatData *models.Seat `json:"seatData,omitempty"`
}

type Service struct {
	Store  Store
	Codec  *Codec
	Logger *logger.Logger
	Now    func() time.Time
}

func NewService(store Store, codec *Codec, log *logger.Logger) *Service {
	return &Service{Store: store, Codec: codec, Logger: log, Now: time.Now}
}

// QRCode renders the ticket for one seat of an approved booking.
func (s *Service) QRCode(ctx context.Context, bookingID, seatID string) ([]byte, error) {
	seat, err := s.Store.GetSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if seat.BookingID == nil || *seat.BookingID != bookingID {
		return nil, ErrWrongBooking
	}
	if seat.Booking == nil || seat.Booking.Status != models.BookingApproved {
		return nil, ErrNotApproved
	}

	png, err := s.Codec.PNG(Token{SeatID: seat.ID, BookingID: bookingID})
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	s.Logger.LogSeat("QR", seat.ID, fmt.Sprintf("ticket issued for booking %s", bookingID))
	return png, nil
}

// resolve accepts an encrypted ticket token or a bare seat id.
func (s *Service) resolve(ctx context.Context, code string) (*models.Seat, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	seatID, bookingID := code, ""
	if token, err := s.Codec.Decrypt(code); err == nil {
		seatID, bookingID = token.SeatID, token.BookingID
	}

	seat, err := s.Store.GetSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}
	// A ticket issued for an earlier booking of this seat is void.
	if bookingID != "" && (seat.BookingID == nil || *seat.BookingID != bookingID) {
		return nil, ErrWrongBooking
	}
	return seat, nil
}

func hasApprovedBooking(seat *models.Seat) bool {
	return seat.BookingID != nil && seat.Booking != nil && seat.Booking.Status == models.BookingApproved
}

func seatInfo(seat *models.Seat) string {
	info := fmt.Sprintf("Seat %d", seat.SeatNumber)
	if seat.Row != nil {
		info = fmt.Sprintf("Row %s, %s", seat.Row.RowNumber, info)
		if seat.Row.Zone != nil {
			info += " (" + seat.Row.Zone.Name + ")"
		}
	}
	return info
}

func (s *Service) CheckIn(ctx context.Context, code string) (*ScanResult, error) {
	seat, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if !hasApprovedBooking(seat) {
		return nil, ErrNotApproved
	}
	if seat.CheckIn {
		return nil, ErrAlreadyCheckedIn
	}

	now := s.Now().UTC()
	changed, err := s.Store.SetCheckIn(ctx, seat.ID, true, now)
	if err != nil {
		return nil, fmt.Errorf("check in %s: %w", seat.ID, err)
	}
	if !changed {
		return nil, ErrAlreadyCheckedIn
	}
	seat.CheckIn = true
	seat.LastCheckIn = &now

	s.Logger.LogSeat("CHECK_IN", seat.ID, seatInfo(seat))
	return &ScanResult{
		Success:  true,
		Message:  "Check-in successful",
		Details:  seat.Booking.Name,
		SeatInfo: seatInfo(seat),
		Mode:     ModeCheckIn,
		SeatData: seat,
	}, nil
}

func (s *Service) CheckOut(ctx context.Context, code string) (*ScanResult, error) {
	seat, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if !seat.CheckIn {
		return nil, ErrNotCheckedIn
	}

	now := s.Now().UTC()
	changed, err := s.Store.SetCheckIn(ctx, seat.ID, false, now)
	if err != nil {
		return nil, fmt.Errorf("check out %s: %w", seat.ID, err)
	}
	if !changed {
		return nil, ErrNotCheckedIn
	}
	seat.CheckIn = false
	seat.LastCheckIn = &now

	s.Logger.LogSeat("CHECK_OUT", seat.ID, seatInfo(seat))
	return &ScanResult{
		Success:  true,
		Message:  "Check-out successful",
		SeatInfo: seatInfo(seat),
		Mode:     ModeCheckOut,
		SeatData: seat,
	}, nil
}

// Info describes a seat without changing it.
func (s *Service) Info(ctx context.Context, code string) (*ScanResult, error) {
	seat, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Success:  true,
		Message:  "Seat found",
		SeatInfo: seatInfo(seat),
		Mode:     ModeInfo,
		SeatData: seat,
	}
	switch {
	case !hasApprovedBooking(seat):
		result.Details = "No approved booking"
	case seat.CheckIn:
		result.Details = "Checked in"
	default:
		result.Details = "Not checked in"
	}
	return result, nil
}

func (s *Service) Attendees(ctx context.Context) ([]*models.Seat, error) {
	seats, err := s.Store.Attendees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return seats, nil
}
