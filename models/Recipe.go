package models

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength bounds the free-text recipe description.
const MaxDescriptionLength = 2000

var hundred = decimal.NewFromInt(100)

// Recipe is a costed composite built from components.
type Recipe struct {
	Record
	TenantID              uint                `gorm:"not null;uniqueIndex:idx_recipes_tenant_name,priority:1" json:"tenant_id"`
	Name                  string              `gorm:"not null;uniqueIndex:idx_recipes_tenant_name,priority:2" json:"name"`
	Description           string              `gorm:"type:text" json:"description"`
	CookingLossPercentage decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"cooking_loss_percentage"`
	SellableAsComponent   bool                `gorm:"not null" json:"sellable_as_component"`
	HasTray               bool                `gorm:"not null" json:"has_tray"`
	TraySizeID            *uint               `gorm:"index" json:"tray_size_id,omitempty"`
	TraySize              *TraySize           `gorm:"foreignKey:TraySizeID" json:"tray_size,omitempty"`
	Components            []Component         `gorm:"foreignKey:ParentRecipeID" json:"components,omitempty"`
	Costs                 RecipeCosts         `gorm:"embedded;embeddedPrefix:cached_" json:"costs"`
}

// RecipeCosts holds the fields owned by the recalculation engine. They are
// null until the recipe has been recalculated once.
type RecipeCosts struct {
	RawWeight   decimal.NullDecimal `gorm:"type:decimal(12,3)" json:"raw_weight"`
	TotalWeight decimal.NullDecimal `gorm:"type:decimal(12,3)" json:"total_weight"`
	TotalCost   decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"total_cost"`
	CostPerKg   decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"cost_per_kg"`
}

// CookingLoss returns the loss percentage, treating null as zero.
func (r *Recipe) CookingLoss() decimal.Decimal {
	if !r.CookingLossPercentage.Valid {
		return decimal.Zero
	}
	return r.CookingLossPercentage.Decimal
}

// UnitCost is the cached cost per kilogram, zero when never computed.
func (r *Recipe) UnitCost() decimal.Decimal {
	if !r.Costs.CostPerKg.Valid {
		return decimal.Zero
	}
	return r.Costs.CostPerKg.Decimal
}

// OwnerID returns the owning tenant.
func (r *Recipe) OwnerID() uint {
	return r.TenantID
}

// Validate checks the recipe attributes that do not need the database.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(r.Description) > MaxDescriptionLength {
		return invalid("description", "must be at most 2000 characters")
	}
	if r.CookingLossPercentage.Valid {
		loss := r.CookingLossPercentage.Decimal
		if loss.IsNegative() || loss.GreaterThan(hundred) {
			return invalid("cooking_loss_percentage", "must be between 0 and 100")
		}
	}
	if r.HasTray && r.TraySizeID == nil {
		return invalid("tray_size_id", "must be set when the recipe uses a tray")
	}
	for _, field := range []decimal.NullDecimal{r.Costs.RawWeight, r.Costs.TotalWeight, r.Costs.TotalCost, r.Costs.CostPerKg} {
		if field.Valid && field.Decimal.IsNegative() {
			return invalid("costs", "must not be negative")
		}
	}
	return nil
}
