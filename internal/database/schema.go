package database

import (
	"context"
	"fmt"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		(*models.Venue)(nil),
		(*models.Zone)(nil),
		(*models.Row)(nil),
		(*models.Booking)(nil),
		(*models.Seat)(nil),
		(*models.CategorySetting)(nil),
	}
}

// CreateSchema creates the tables straight from the bun models. Store tests
// use it against SQLite; postgres deployments use the SQL migrations instead.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}
