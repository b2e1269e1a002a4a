package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingEvent is published on every lifecycle transition.
type BookingEvent struct {
	BookingID  string          `json:"booking_id"`
	Status     string          `json:"status"`
	SeatIDs    []string        `json:"seat_ids,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Provider   string          `json:"provider,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewBookingEvent(b *Booking, seatIDs []string) BookingEvent {
	ev := BookingEvent{
		BookingID:  b.ID,
		Status:     b.Status,
		SeatIDs:    seatIDs,
		Amount:     b.Amount,
		OccurredAt: time.Now().UTC(),
	}
	if b.PaymentProvider != nil {
		ev.Provider = *b.PaymentProvider
	}
	return ev
}
