package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Good is a purchasable item with a canonical price per kilogram.
type Good struct {
	Record
	TenantID     uint                `gorm:"not null;uniqueIndex:idx_goods_tenant_name,priority:1" json:"tenant_id"`
	Name         string              `gorm:"not null;uniqueIndex:idx_goods_tenant_name,priority:2" json:"name"`
	BaseUnit     Unit                `gorm:"type:varchar(16);not null" json:"base_unit"`
	UnitWeightKg decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"unit_weight_kg"`
	Costs        GoodCosts           `gorm:"embedded" json:"costs"`
	Purchases    []Purchase          `gorm:"foreignKey:GoodID" json:"purchases,omitempty"`
}

// GoodCosts holds the fields owned by the recalculation engine.
type GoodCosts struct {
	AvgPricePerKg decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"avg_price_per_kg"`
}

// IsPiece reports whether the good is counted rather than weighed.
func (g *Good) IsPiece() bool {
	return NormalizeUnit(string(g.BaseUnit)) == UnitPiece
}

// UnitWeight returns the mass of one piece when it is usable for conversion.
func (g *Good) UnitWeight() (decimal.Decimal, bool) {
	if g == nil || !g.UnitWeightKg.Valid || !g.UnitWeightKg.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	return g.UnitWeightKg.Decimal, true
}

// UnitCost is the weighted average price per kilogram.
func (g *Good) UnitCost() decimal.Decimal {
	return g.Costs.AvgPricePerKg
}

// OwnerID returns the owning tenant.
func (g *Good) OwnerID() uint {
	return g.TenantID
}

// Validate enforces the base unit and unit weight rules.
func (g *Good) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("name", "is required")
	}
	if !ValidBaseUnit(string(g.BaseUnit)) {
		return invalid("base_unit", "must be one of kg, l, piece")
	}
	if g.Costs.AvgPricePerKg.IsNegative() {
		return invalid("avg_price_per_kg", "must not be negative")
	}
	if g.IsPiece() {
		if !g.UnitWeightKg.Valid || !g.UnitWeightKg.Decimal.IsPositive() {
			return invalid("unit_weight_kg", "must be greater than zero for piece goods")
		}
		return nil
	}
	if g.UnitWeightKg.Valid {
		return invalid("unit_weight_kg", "must be empty unless the base unit is piece")
	}
	return nil
}
