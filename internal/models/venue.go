package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Venue struct {
	bun.BaseModel `bun:"table:venues,alias:v"`

	ID         string     `bun:"id,pk" json:"id"`
	Name       string     `bun:"name" json:"name"`
	Categories []Category `bun:"categories,type:jsonb" json:"categories"`
}

type Category struct {
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"price"`
	IsVisible *bool           `json:"isVisible,omitempty"`
}

// Visible treats a missing flag as visible.
func (c Category) Visible() bool {
	return c.IsVisible == nil || *c.IsVisible
}

// CategorySetting is the admin seat map's per-category toggle. It duplicates
// the isVisible flag on venues.categories and is kept only for that screen.
type CategorySetting struct {
	bun.BaseModel `bun:"table:category_settings,alias:cs"`

	CategoryID string    `bun:"category_id,pk" json:"category_id"`
	IsVisible  bool      `bun:"is_visible,notnull" json:"is_visible"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
