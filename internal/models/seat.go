package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SeatAvailable = "available"
	SeatReserved  = "reserved"
	SeatBooked    = "booked"
)

type Seat struct {
	bun.BaseModel `bun:"table:seats,alias:s"`

	ID           string     `bun:"id,pk" json:"id"`
	SeatNumber   int        `bun:"seat_number" json:"seat_number"`
	Category     string     `bun:"category" json:"category"`
	Status       string     `bun:"status,notnull" json:"status"`
	BookingID    *string    `bun:"booking_id" json:"booking_id"`
	NameOnTicket *string    `bun:"name_on_ticket" json:"name_on_ticket"`
	CheckIn      bool       `bun:"check_in,notnull" json:"check_in"`
	LastCheckIn  *time.Time `bun:"last_check_in" json:"last_check_in"`
	RowID        string     `bun:"row_id" json:"row_id"`

	Row     *Row     `bun:"rel:belongs-to,join:row_id=id" json:"rows,omitempty"`
	Booking *Booking `bun:"rel:belongs-to,join:booking_id=id" json:"bookings,omitempty"`
}

// VenueID walks the seat's row and zone. Empty when relations were not loaded.
func (s *Seat) VenueID() string {
	if s.Row == nil || s.Row.Zone == nil {
		return ""
	}
	return s.Row.Zone.VenueID
}

type Row struct {
	bun.BaseModel `bun:"table:rows,alias:r"`

	ID        string `bun:"id,pk" json:"id"`
	RowNumber string `bun:"row_number" json:"row_number"`
	ZoneID    string `bun:"zone_id" json:"zone_id"`

	Zone *Zone `bun:"rel:belongs-to,join:zone_id=id" json:"zones,omitempty"`
}

type Zone struct {
	bun.BaseModel `bun:"table:zones,alias:z"`

	ID      string `bun:"id,pk" json:"id"`
	Name    string `bun:"name" json:"name"`
	VenueID string `bun:"venue_id" json:"venue_id"`
}

// MapSeat is the public view of a seat. Booking and ticket details stay out.
type MapSeat struct {
	ID         string `json:"id"`
	SeatNumber int    `json:"seat_number"`
	Category   string `json:"category"`
	Status     string `json:"status"`
	RowNumber  string `json:"row_number"`
	Zone       string `json:"zone"`
	Held       bool   `json:"held"`
}

type SeatMap struct {
	VenueID    string     `json:"venueId"`
	Categories []Category `json:"categories"`
	Seats      []MapSeat  `json:"seats"`
}
