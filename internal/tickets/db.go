package tickets

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{Bun: db}
}

// GetSeat loads a seat with its row, zone and booking.
func (d *DB) GetSeat(ctx context.Context, id string) (*models.Seat, error) {
	seat := new(models.Seat)
	err := d.Bun.NewSelect().
		Model(seat).
		Relation("Row.Zone").
		Relation("Booking").
		Where("s.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// SetCheckIn flips check_in only when it currently has the opposite value, so
// two scanners cannot both check the same seat in. It reports whether the row
// changed.
func (d *DB) SetCheckIn(ctx context.Context, seatID string, checkedIn bool, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("check_in = ?", checkedIn).
		Set("last_check_in = ?", at).
		Where("id = ?", seatID).
		Where("check_in = ?", !checkedIn).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Attendees lists seats of approved bookings, checked in or not.
func (d *DB) Attendees(ctx context.Context) ([]*models.Seat, error) {
	seats := make([]*models.Seat, 0)
	err := d.Bun.NewSelect().
		Model(&seats).
		Relation("Row.Zone").
		Relation("Booking").
		Where("booking.status = ?", models.BookingApproved).
		OrderExpr("s.seat_number ASC").
		Scan(ctx)
	return seats, err
}
