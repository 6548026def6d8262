// Package costing computes the derived cost fields of purchases, goods and
// recipes. Nothing here triggers a cascade; the recalc dispatcher decides
// what to recompute and in which order.
package costing

import (
	"github.com/shopspring/decimal"

	"fourneau/internal/units"
	"fourneau/models"
)

// MinQuantityKg is the floor applied to a package whose converted mass is not
// positive, keeping the price per kilogram finite.
var MinQuantityKg = decimal.New(1, -3)

// NormalizePurchase fills the derived quantity and price per kilogram of p from
// its package inputs and returns p. good supplies the unit weight for pieces;
// when nil the preloaded p.Good is used. Nothing is persisted.
func NormalizePurchase(p *models.Purchase, good *models.Good) *models.Purchase {
	if p == nil {
		return nil
	}
	if good == nil {
		good = p.Good
	}

	unit := p.PackageUnit
	if unit == "" {
		unit = models.UnitKilogram
	}

	quantityKg := units.ToKilograms(p.PackageQuantity, string(unit), good)
	if !quantityKg.IsPositive() {
		quantityKg = MinQuantityKg
	}

	p.Costs.QuantityKg = quantityKg
	p.Costs.PricePerKg = p.PackagePrice.Div(quantityKg)
	return p
}
