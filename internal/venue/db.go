package venue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func NewDB(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	venue := new(models.Venue)
	err := d.Bun.NewSelect().
		Model(venue).
		Where("v.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	return venue, nil
}

// ListSeats returns the venue's seats with row and zone, in seat map order.
func (d *DB) ListSeats(ctx context.Context, venueID string) ([]*models.Seat, error) {
	seats := make([]*models.Seat, 0)
	err := d.Bun.NewSelect().
		Model(&seats).
		Relation("Row.Zone").
		Where(`"row__zone"."venue_id" = ?`, venueID).
		OrderExpr(`"row__zone"."name" ASC, "row"."row_number" ASC, "s"."seat_number" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// SaveCategories rewrites the venue's category list.
func (d *DB) SaveCategories(ctx context.Context, venue *models.Venue) error {
	_, err := d.Bun.NewUpdate().
		Model(venue).
		Column("categories").
		WherePK().
		Exec(ctx)
	return err
}

func (d *DB) ListCategorySettings(ctx context.Context) ([]models.CategorySetting, error) {
	settings := make([]models.CategorySetting, 0)
	err := d.Bun.NewSelect().
		Model(&settings).
		Order("cs.category_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// ReplaceCategorySettings makes the table hold exactly visibility, in one
// transaction: rows outside the new set are deleted and the rest upserted.
func (d *DB) ReplaceCategorySettings(ctx context.Context, visibility map[string]bool) error {
	keys := make([]string, 0, len(visibility))
	for k := range visibility {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		del := tx.NewDelete().Model((*models.CategorySetting)(nil))
		if len(keys) == 0 {
			del = del.Where("1 = 1")
		} else {
			del = del.Where("category_id NOT IN (?)", bun.In(keys))
		}
		if _, err := del.Exec(ctx); err != nil {
			return fmt.Errorf("delete stale settings: %w", err)
		}
		if len(keys) == 0 {
			return nil
		}

		now := time.Now().UTC()
		rows := make([]models.CategorySetting, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, models.CategorySetting{CategoryID: k, IsVisible: visibility[k], UpdatedAt: now})
		}
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (category_id) DO UPDATE").
			Set("is_visible = EXCLUDED.is_visible").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert settings: %w", err)
		}
		return nil
	})
}
