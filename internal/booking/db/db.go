package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when no booking matches the id.
	ErrNotFound = errors.New("booking not found")
	// ErrSeatsTaken is returned when a seat is not available inside CreateBooking.
	ErrSeatsTaken = errors.New("one or more seats are not available")
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// ---------------- BOOKINGS ----------------

// GetBooking loads one booking with its seats, rows and zones.
func (d *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking := new(models.Booking)
	err := d.Bun.NewSelect().
		Model(booking).
		Relation("Seats.Row.Zone").
		Where("b.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetBookingsByIDs is a single read returning nested bookings newest first.
// Unknown ids are simply absent from the result.
func (d *DB) GetBookingsByIDs(ctx context.Context, ids []string) ([]*models.Booking, error) {
	bookings := make([]*models.Booking, 0)
	if len(ids) == 0 {
		return bookings, nil
	}
	err := d.Bun.NewSelect().
		Model(&bookings).
		Relation("Seats.Row.Zone").
		Where("b.id IN (?)", bun.In(ids)).
		Order("b.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListBookings returns bookings newest first, optionally filtered by status.
func (d *DB) ListBookings(ctx context.Context, status string) ([]*models.Booking, error) {
	bookings := make([]*models.Booking, 0)
	q := d.Bun.NewSelect().
		Model(&bookings).
		Relation("Seats").
		Order("b.created_at DESC")
	if status != "" {
		q = q.Where("b.status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingStatus sets status on one booking. Zero affected rows is not an error.
func (d *DB) UpdateBookingStatus(ctx context.Context, id, status string) error {
	return updateBookingStatus(ctx, d.Bun, id, status)
}

func updateBookingStatus(ctx context.Context, idb bun.IDB, id, status string) error {
	_, err := idb.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ApproveBooking records the approval and gateway fields in one write.
func (d *DB) ApproveBooking(ctx context.Context, id string, transactionID, provider, image *string) (int64, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", models.BookingApproved).
		Where("id = ?", id)
	if transactionID != nil {
		q = q.Set("transaction_id = ?", *transactionID)
	}
	if provider != nil {
		q = q.Set("payment_provider = ?", *provider)
	}
	if image != nil {
		q = q.Set("image = ?", *image)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetPaymentProof attaches a proof reference to a booking that is still pending.
// It reports false when the booking was missing or no longer pending.
func (d *DB) SetPaymentProof(ctx context.Context, id, image string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("image = ?", image).
		Where("id = ?", id).
		Where("status = ?", models.BookingPending).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CreateBooking inserts a pending booking and reserves its seats in one
// transaction. Every seat must exist and be available.
func (d *DB) CreateBooking(ctx context.Context, booking *models.Booking, seatIDs []string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		count, err := tx.NewSelect().
			Model((*models.Seat)(nil)).
			Where("id IN (?)", bun.In(seatIDs)).
			Where("status = ?", models.SeatAvailable).
			Where("booking_id IS NULL").
			Count(ctx)
		if err != nil {
			return fmt.Errorf("check seats: %w", err)
		}
		if count != len(seatIDs) {
			return ErrSeatsTaken
		}

		if _, err := tx.NewInsert().Model(booking).Exec(ctx); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		_, err = tx.NewUpdate().
			Model((*models.Seat)(nil)).
			Set("status = ?", models.SeatReserved).
			Set("booking_id = ?", booking.ID).
			Where("id IN (?)", bun.In(seatIDs)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("reserve seats: %w", err)
		}
		return nil
	})
}

// CancelBookingTx marks the booking cancelled and releases its seats atomically.
func (d *DB) CancelBookingTx(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := updateBookingStatus(ctx, tx, id, models.BookingCancelled); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if _, err := releaseSeats(ctx, tx, id); err != nil {
			return fmt.Errorf("release seats: %w", err)
		}
		return nil
	})
}

// ---------------- SEATS ----------------

// ReleaseSeats frees every seat bound to the booking. booking_id and status
// are cleared in the same statement.
func (d *DB) ReleaseSeats(ctx context.Context, bookingID string) (int64, error) {
	return releaseSeats(ctx, d.Bun, bookingID)
}

func releaseSeats(ctx context.Context, idb bun.IDB, bookingID string) (int64, error) {
	res, err := idb.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("booking_id = NULL").
		Set("status = ?", models.SeatAvailable).
		Where("booking_id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BookSeats flips the booking's reserved seats to booked.
func (d *DB) BookSeats(ctx context.Context, bookingID string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("status = ?", models.SeatBooked).
		Where("booking_id = ?", bookingID).
		Where("status = ?", models.SeatReserved).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetSeatIDsByBooking lists seat ids currently bound to the booking.
func (d *DB) GetSeatIDsByBooking(ctx context.Context, bookingID string) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Seat)(nil)).
		Column("id").
		Where("booking_id = ?", bookingID).
		Order("seat_number ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetSeats loads seats with their row and zone.
func (d *DB) GetSeats(ctx context.Context, ids []string) ([]*models.Seat, error) {
	seats := make([]*models.Seat, 0, len(ids))
	if len(ids) == 0 {
		return seats, nil
	}
	err := d.Bun.NewSelect().
		Model(&seats).
		Relation("Row.Zone").
		Where("s.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// ListSeats returns the whole seat map ordered by seat number.
func (d *DB) ListSeats(ctx context.Context) ([]*models.Seat, error) {
	seats := make([]*models.Seat, 0)
	err := d.Bun.NewSelect().
		Model(&seats).
		Relation("Row.Zone").
		Order("s.seat_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// ExpiredPendingBookings returns pending bookings without proof created before cutoff.
// Used to sweep holds whose expiry notification was missed.
func (d *DB) ExpiredPendingBookings(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Column("id").
		Where("status = ?", models.BookingPending).
		Where("(image IS NULL OR image = '')").
		Where("created_at < ?", cutoff).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
