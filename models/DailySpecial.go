package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DailySpecialCategory groups daily specials for averaging.
type DailySpecialCategory string

const (
	CategoryMeat DailySpecialCategory = "meat"
	CategoryFish DailySpecialCategory = "fish"
	CategorySide DailySpecialCategory = "side"
)

// DailySpecialCategories lists the accepted categories in display order.
var DailySpecialCategories = []DailySpecialCategory{CategoryMeat, CategoryFish, CategorySide}

// Valid reports whether c is one of the known categories.
func (c DailySpecialCategory) Valid() bool {
	for _, candidate := range DailySpecialCategories {
		if c == candidate {
			return true
		}
	}
	return false
}

// DailySpecial records the cost per kilogram of a dish served on a given day.
// It stands alone and never feeds the recipe costs.
type DailySpecial struct {
	Record
	TenantID  uint                 `gorm:"not null;index:idx_daily_specials_tenant_category,priority:1;index:idx_daily_specials_tenant_date,priority:1" json:"tenant_id"`
	Category  DailySpecialCategory `gorm:"type:varchar(8);not null;index:idx_daily_specials_tenant_category,priority:2" json:"category"`
	EntryDate time.Time            `gorm:"type:date;not null;index:idx_daily_specials_tenant_date,priority:2" json:"entry_date"`
	ItemName  string               `gorm:"not null" json:"item_name"`
	CostPerKg decimal.Decimal      `gorm:"type:decimal(10,2);not null" json:"cost_per_kg"`
}

// Validate requires a name, a date, a known category and a positive cost.
func (d *DailySpecial) Validate() error {
	if strings.TrimSpace(d.ItemName) == "" {
		return invalid("item_name", "is required")
	}
	if d.EntryDate.IsZero() {
		return invalid("entry_date", "is required")
	}
	if !d.Category.Valid() {
		return invalid("category", "must be one of meat, fish, side")
	}
	if !d.CostPerKg.IsPositive() {
		return invalid("cost_per_kg", "must be greater than zero")
	}
	return nil
}
