package costing

import (
	"github.com/shopspring/decimal"

	"fourneau/models"
)

// SuggestedSellingPrice is cost per kilogram × the tenant markup, plus the
// tray price when the recipe is sold in a loaded tray. It is null when either
// the cost or the markup is unknown. The value is never stored.
func SuggestedSellingPrice(recipe *models.Recipe, tenant *models.Tenant) decimal.NullDecimal {
	if recipe == nil || tenant == nil {
		return decimal.NullDecimal{}
	}
	if !recipe.Costs.CostPerKg.Valid || !tenant.MarkupCoefficient.Valid {
		return decimal.NullDecimal{}
	}

	price := recipe.Costs.CostPerKg.Decimal.Mul(tenant.MarkupCoefficient.Decimal)
	if recipe.HasTray && recipe.TraySizeID != nil && recipe.TraySize != nil {
		price = price.Add(recipe.TraySize.Price)
	}
	return decimal.NewNullDecimal(price.Round(2))
}
