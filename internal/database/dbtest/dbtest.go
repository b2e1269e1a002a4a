// Package dbtest opens in-memory SQLite databases carrying the service schema.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"ms-booking/internal/database"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// New returns a fresh database closed when the test ends.
func New(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// A second connection would see a different :memory: database.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	if err := database.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return bunDB
}

// Fixture is a one-venue seat map: zone "Floor", row "A", seats 1..n.
type Fixture struct {
	Venue *models.Venue
	Zone  *models.Zone
	Row   *models.Row
	Seats []*models.Seat
}

// Seed inserts a venue with VIP/Regular categories and n available seats.
// Odd seat numbers are VIP (price 100), even ones Regular (price 50).
func Seed(t testing.TB, db *bun.DB, n int) *Fixture {
	t.Helper()
	ctx := context.Background()

	hidden := false
	f := &Fixture{
		Venue: &models.Venue{
			ID:   "venue-1",
			Name: "Main Hall",
			Categories: []models.Category{
				{Name: "VIP", Color: "#f5c518", Price: decimal.NewFromInt(100)},
				{Name: "Regular", Color: "#4caf50", Price: decimal.NewFromInt(50)},
				{Name: "Balcony", Color: "#9e9e9e", Price: decimal.NewFromInt(30), IsVisible: &hidden},
			},
		},
		Zone: &models.Zone{ID: "zone-1", Name: "Floor", VenueID: "venue-1"},
		Row:  &models.Row{ID: "row-1", RowNumber: "A", ZoneID: "zone-1"},
	}
	mustInsert(t, db, f.Venue)
	mustInsert(t, db, f.Zone)
	mustInsert(t, db, f.Row)

	for i := 1; i <= n; i++ {
		category := "Regular"
		if i%2 == 1 {
			category = "VIP"
		}
		seat := &models.Seat{
			ID:         SeatID(i),
			SeatNumber: i,
			Category:   category,
			Status:     models.SeatAvailable,
			RowID:      f.Row.ID,
		}
		f.Seats = append(f.Seats, seat)
	}
	if n > 0 {
		if _, err := db.NewInsert().Model(&f.Seats).Exec(ctx); err != nil {
			t.Fatalf("Failed to insert seats: %v", err)
		}
	}
	return f
}

// InsertBooking stores b and binds the given seats to it with seatStatus.
func InsertBooking(t testing.TB, db *bun.DB, b *models.Booking, seatStatus string, seatIDs ...string) {
	t.Helper()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.Status == "" {
		b.Status = models.BookingPending
	}
	mustInsert(t, db, b)

	if len(seatIDs) == 0 {
		return
	}
	_, err := db.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("booking_id = ?", b.ID).
		Set("status = ?", seatStatus).
		Where("id IN (?)", bun.In(seatIDs)).
		Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to bind seats: %v", err)
	}
}

func mustInsert(t testing.TB, db *bun.DB, model interface{}) {
	t.Helper()
	if _, err := db.NewInsert().Model(model).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to insert %T: %v", model, err)
	}
}

// SeatID is the id Seed gives seat number i.
func SeatID(i int) string {
	return fmt.Sprintf("seat-%02d", i)
}
