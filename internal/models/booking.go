package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

func init() {
	// Amounts travel as JSON numbers, matching what browser clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	BookingPending   = "pending"
	BookingApproved  = "approved"
	BookingRejected  = "rejected"
	BookingCancelled = "cancelled"
)

const (
	ProviderKashier = "kashier"
	ProviderStripe  = "stripe"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID              string          `bun:"id,pk" json:"id"`
	Name            string          `bun:"name" json:"name"`
	Email           string          `bun:"email" json:"email"`
	Phone           string          `bun:"phone" json:"phone"`
	Amount          decimal.Decimal `bun:"amount,type:decimal(12,2),notnull" json:"amount"`
	Image           *string         `bun:"image" json:"image"`
	Status          string          `bun:"status,notnull" json:"status"`
	TransactionID   *string         `bun:"transaction_id" json:"transaction_id"`
	PaymentProvider *string         `bun:"payment_provider" json:"payment_provider"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	Seats []*Seat `bun:"rel:has-many,join:id=booking_id" json:"seats,omitempty"`
}

// HasProof reports whether a payment proof (upload or gateway marker) is attached.
func (b *Booking) HasProof() bool {
	return b.Image != nil && *b.Image != ""
}

func (b *Booking) SeatIDs() []string {
	ids := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		ids = append(ids, s.ID)
	}
	return ids
}

type CreateBookingRequest struct {
	VenueID string   `json:"venueId"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	SeatIDs []string `json:"seatIds"`
}

type CreateBookingResponse struct {
	BookingID     string          `json:"bookingId"`
	Amount        decimal.Decimal `json:"amount"`
	HoldExpiresAt time.Time       `json:"holdExpiresAt"`
}

type HoldStatus struct {
	BookingID        string `json:"bookingId"`
	Active           bool   `json:"active"`
	RemainingSeconds int64  `json:"remainingSeconds"`
}

// BookingDetails is the payment page view: a booking plus the categories of its venue.
type BookingDetails struct {
	*Booking
	Categories []Category `json:"categories"`
}

type ValidationResult struct {
	ValidIDs    []string   `json:"validIds"`
	InvalidIDs  []string   `json:"invalidIds"`
	AllBookings []*Booking `json:"allBookings"`
}
