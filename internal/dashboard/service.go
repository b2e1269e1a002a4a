package dashboard

import (
	"context"
	"fmt"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

type Reader interface {
	Bookings(ctx context.Context) ([]*models.Booking, error)
	Seats(ctx context.Context) ([]*models.Seat, error)
	RecentBookings(ctx context.Context, limit int) ([]*models.Booking, error)
}

// DB reads the columns the dashboard needs straight from the tables.
type DB struct {
	Bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{Bun: db}
}

func (d *DB) Bookings(ctx context.Context) ([]*models.Booking, error) {
	bookings := make([]*models.Booking, 0)
	err := d.Bun.NewSelect().
		Model(&bookings).
		Column("id", "status", "amount", "image", "created_at").
		Scan(ctx)
	return bookings, err
}

func (d *DB) Seats(ctx context.Context) ([]*models.Seat, error) {
	seats := make([]*models.Seat, 0)
	err := d.Bun.NewSelect().
		Model(&seats).
		Column("id", "status", "category", "booking_id").
		Scan(ctx)
	return seats, err
}

func (d *DB) RecentBookings(ctx context.Context, limit int) ([]*models.Booking, error) {
	bookings := make([]*models.Booking, 0, limit)
	err := d.Bun.NewSelect().
		Model(&bookings).
		Column("id", "name", "email", "amount", "status", "created_at").
		OrderExpr("b.created_at DESC").
		Limit(limit).
		Scan(ctx)
	return bookings, err
}

type Service struct {
	Reader Reader
	Logger *logger.Logger
}

func NewService(reader Reader, log *logger.Logger) *Service {
	return &Service{Reader: reader, Logger: log}
}

// Stats runs the reads in parallel. A failed read leaves its figures empty and
// is reported under Errors; the others are still returned.
func (s *Service) Stats(ctx context.Context) *Stats {
	var in Input
	var bookingsErr, seatsErr, recentErr error

	var g errgroup.Group
	g.Go(func() error {
		in.Bookings, bookingsErr = s.Reader.Bookings(ctx)
		return nil
	})
	g.Go(func() error {
		in.Seats, seatsErr = s.Reader.Seats(ctx)
		return nil
	})
	g.Go(func() error {
		in.Recent, recentErr = s.Reader.RecentBookings(ctx, RecentLimit)
		return nil
	})
	_ = g.Wait()

	errs := make(map[string]string)
	if bookingsErr != nil {
		in.Bookings = nil
		errs["bookings"] = bookingsErr.Error()
	}
	if seatsErr != nil {
		in.Seats = nil
		errs["seats"] = seatsErr.Error()
	}
	if recentErr != nil {
		in.Recent = nil
		errs["recentBookings"] = recentErr.Error()
	}

	stats := Compute(in)
	if len(errs) > 0 {
		stats.Errors = errs
		s.Logger.Error("DASHBOARD", fmt.Sprintf("Partial dashboard: %v", errs))
	}
	return stats
}
