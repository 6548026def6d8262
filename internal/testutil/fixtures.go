package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/models"
)

// Dec parses a decimal literal and panics on malformed input.
func Dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

var tolerance = decimal.New(1, -4)

// AssertDecimal fails the test when got differs from want by more than 0.0001.
func AssertDecimal(tb testing.TB, label string, got decimal.Decimal, want string) {
	tb.Helper()
	if got.Sub(Dec(want)).Abs().GreaterThan(tolerance) {
		tb.Fatalf("%s = %s, want %s", label, got, want)
	}
}

// AssertNullDecimal is AssertDecimal for nullable columns; a null value fails.
func AssertNullDecimal(tb testing.TB, label string, got decimal.NullDecimal, want string) {
	tb.Helper()
	if !got.Valid {
		tb.Fatalf("%s is null, want %s", label, want)
	}
	AssertDecimal(tb, label, got.Decimal, want)
}

var fixtureSeq atomic.Int64

func create(tb testing.TB, database *gorm.DB, value any) {
	tb.Helper()
	if err := database.Create(value).Error; err != nil {
		tb.Fatalf("seed %T: %v", value, err)
	}
}

// SeedTenant stores a tenant with a 2.5 markup.
func SeedTenant(tb testing.TB, database *gorm.DB, overrides ...func(*models.Tenant)) *models.Tenant {
	tb.Helper()
	tenant := &models.Tenant{
		Email:             fmt.Sprintf("chef%d@fourneau.test", fixtureSeq.Add(1)),
		PasswordHash:      "hash",
		Name:              "Chef",
		MarkupCoefficient: decimal.NewNullDecimal(Dec("2.5")),
	}
	for _, override := range overrides {
		override(tenant)
	}
	create(tb, database, tenant)
	return tenant
}

// SeedSupplier stores an active supplier.
func SeedSupplier(tb testing.TB, database *gorm.DB, tenantID uint, name string) *models.Supplier {
	tb.Helper()
	supplier := &models.Supplier{TenantID: tenantID, Name: name, Active: true}
	create(tb, database, supplier)
	return supplier
}

// SeedGood stores a kilogram-based good with a zero average price.
func SeedGood(tb testing.TB, database *gorm.DB, tenantID uint, name string, overrides ...func(*models.Good)) *models.Good {
	tb.Helper()
	good := &models.Good{TenantID: tenantID, Name: name, BaseUnit: models.UnitKilogram}
	for _, override := range overrides {
		override(good)
	}
	create(tb, database, good)
	return good
}

// WithAvgPrice sets the cached average price of a seeded good.
func WithAvgPrice(value string) func(*models.Good) {
	return func(g *models.Good) {
		g.Costs.AvgPricePerKg = Dec(value)
	}
}

// SeedPurchase stores an active purchase already expressed in kilograms,
// with derived fields filled in as the normalizer would.
func SeedPurchase(tb testing.TB, database *gorm.DB, good *models.Good, supplier *models.Supplier, quantityKg, pricePerKg string, overrides ...func(*models.Purchase)) *models.Purchase {
	tb.Helper()
	qty := Dec(quantityKg)
	price := Dec(pricePerKg)
	purchase := &models.Purchase{
		GoodID:          good.ID,
		SupplierID:      supplier.ID,
		PackageQuantity: qty,
		PackageUnit:     models.UnitKilogram,
		PackagePrice:    qty.Mul(price),
		Active:          true,
		Costs: models.PurchaseCosts{
			QuantityKg: qty,
			PricePerKg: price,
		},
	}
	for _, override := range overrides {
		override(purchase)
	}
	create(tb, database, purchase)
	return purchase
}

// Inactive marks a seeded purchase as inactive.
func Inactive(p *models.Purchase) {
	p.Active = false
}

// SeedRecipe stores a recipe with no components and null cached costs.
func SeedRecipe(tb testing.TB, database *gorm.DB, tenantID uint, name string, overrides ...func(*models.Recipe)) *models.Recipe {
	tb.Helper()
	recipe := &models.Recipe{TenantID: tenantID, Name: name}
	for _, override := range overrides {
		override(recipe)
	}
	create(tb, database, recipe)
	return recipe
}

// Sellable marks a seeded recipe as usable as a sub-recipe.
func Sellable(r *models.Recipe) {
	r.SellableAsComponent = true
}

// WithCostPerKg sets the cached cost per kilogram of a seeded recipe.
func WithCostPerKg(value string) func(*models.Recipe) {
	return func(r *models.Recipe) {
		r.Costs.CostPerKg = decimal.NewNullDecimal(Dec(value))
	}
}

// WithCookingLoss sets the cooking loss percentage of a seeded recipe.
func WithCookingLoss(value string) func(*models.Recipe) {
	return func(r *models.Recipe) {
		r.CookingLossPercentage = decimal.NewNullDecimal(Dec(value))
	}
}

// SeedComponent inserts a component line without running the composition
// checks, so tests can build structures the validator would refuse.
func SeedComponent(tb testing.TB, database *gorm.DB, parent *models.Recipe, kind models.ComponentType, targetID uint, quantityKg string) *models.Component {
	tb.Helper()
	component := &models.Component{
		ParentRecipeID: parent.ID,
		ComponentType:  kind,
		ComponentID:    targetID,
		QuantityKg:     Dec(quantityKg),
		QuantityUnit:   models.UnitKilogram,
	}
	create(tb, database, component)
	return component
}

// ReloadGood fetches a good by id.
func ReloadGood(tb testing.TB, database *gorm.DB, id uint) *models.Good {
	tb.Helper()
	var good models.Good
	if err := database.First(&good, id).Error; err != nil {
		tb.Fatalf("reload good %d: %v", id, err)
	}
	return &good
}

// ReloadRecipe fetches a recipe by id.
func ReloadRecipe(tb testing.TB, database *gorm.DB, id uint) *models.Recipe {
	tb.Helper()
	var recipe models.Recipe
	if err := database.First(&recipe, id).Error; err != nil {
		tb.Fatalf("reload recipe %d: %v", id, err)
	}
	return &recipe
}

// ReloadPurchase fetches a purchase by id.
func ReloadPurchase(tb testing.TB, database *gorm.DB, id uint) *models.Purchase {
	tb.Helper()
	var purchase models.Purchase
	if err := database.First(&purchase, id).Error; err != nil {
		tb.Fatalf("reload purchase %d: %v", id, err)
	}
	return &purchase
}
