package database

import (
	"context"
	"fmt"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type ZoneLayout struct {
	Name        string
	Rows        []string
	SeatsPerRow int
	Category    string
}

// SeedPlan describes one venue's seat map.
type SeedPlan struct {
	VenueID    string
	VenueName  string
	Categories []models.Category
	Zones      []ZoneLayout
}

func DemoPlan() SeedPlan {
	return SeedPlan{
		VenueID:   "main-hall",
		VenueName: "Main Hall",
		Categories: []models.Category{
			{Name: "VIP", Color: "#f5c518", Price: decimal.NewFromInt(1500)},
			{Name: "Regular", Color: "#4caf50", Price: decimal.NewFromInt(750)},
			{Name: "Balcony", Color: "#2196f3", Price: decimal.NewFromInt(400)},
		},
		Zones: []ZoneLayout{
			{Name: "Front", Rows: []string{"A", "B"}, SeatsPerRow: 10, Category: "VIP"},
			{Name: "Floor", Rows: []string{"C", "D", "E", "F"}, SeatsPerRow: 14, Category: "Regular"},
			{Name: "Balcony", Rows: []string{"G", "H"}, SeatsPerRow: 12, Category: "Balcony"},
		},
	}
}

// SeedVenue inserts the plan's venue, zones, rows and available seats.
// Rows already present are left alone, so seeding twice is harmless.
func SeedVenue(ctx context.Context, db *bun.DB, plan SeedPlan) (int, error) {
	venue := &models.Venue{ID: plan.VenueID, Name: plan.VenueName, Categories: plan.Categories}

	var (
		zones []*models.Zone
		rows  []*models.Row
		seats []*models.Seat
	)
	for zi, layout := range plan.Zones {
		zone := &models.Zone{
			ID:      fmt.Sprintf("%s-z%d", plan.VenueID, zi+1),
			Name:    layout.Name,
			VenueID: plan.VenueID,
		}
		zones = append(zones, zone)

		for _, rowNumber := range layout.Rows {
			row := &models.Row{
				ID:        fmt.Sprintf("%s-%s", zone.ID, rowNumber),
				RowNumber: rowNumber,
				ZoneID:    zone.ID,
			}
			rows = append(rows, row)

			for n := 1; n <= layout.SeatsPerRow; n++ {
				seats = append(seats, &models.Seat{
					ID:         fmt.Sprintf("%s-%d", row.ID, n),
					SeatNumber: n,
					Category:   layout.Category,
					Status:     models.SeatAvailable,
					RowID:      row.ID,
				})
			}
		}
	}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		inserts := []interface{}{venue}
		if len(zones) > 0 {
			inserts = append(inserts, &zones)
		}
		if len(rows) > 0 {
			inserts = append(inserts, &rows)
		}
		if len(seats) > 0 {
			inserts = append(inserts, &seats)
		}
		for _, model := range inserts {
			if _, err := tx.NewInsert().Model(model).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("seed %T: %w", model, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(seats), nil
}
