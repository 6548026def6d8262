package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/models"
)

// Precision of the cached recipe figures.
const (
	WeightPlaces = 3
	CostPlaces   = 4
)

var hundred = decimal.NewFromInt(100)

// UnitCosts maps a component target to the entity that prices it.
type UnitCosts map[models.ComponentRef]models.Costed

// UnitCost returns the cost per kilogram of ref, zero when the target is gone.
func (u UnitCosts) UnitCost(ref models.ComponentRef) decimal.Decimal {
	costed, ok := u[ref]
	if !ok || costed == nil {
		return decimal.Zero
	}
	return costed.UnitCost()
}

// ComputeRecipeCosts derives the four cached recipe figures from its
// components. A null cooking loss counts as zero.
func ComputeRecipeCosts(components []models.Component, prices UnitCosts, cookingLoss decimal.NullDecimal) models.RecipeCosts {
	rawWeight := decimal.Zero
	totalCost := decimal.Zero
	for _, component := range components {
		rawWeight = rawWeight.Add(component.QuantityKg)
		totalCost = totalCost.Add(component.QuantityKg.Mul(prices.UnitCost(component.Ref())))
	}

	loss := decimal.Zero
	if cookingLoss.Valid {
		loss = cookingLoss.Decimal
	}
	totalWeight := rawWeight.Mul(decimal.NewFromInt(1).Sub(loss.Div(hundred)))

	costPerKg := decimal.Zero
	if totalWeight.IsPositive() {
		costPerKg = totalCost.Div(totalWeight)
	}

	return models.RecipeCosts{
		RawWeight:   decimal.NewNullDecimal(rawWeight.Round(WeightPlaces)),
		TotalWeight: decimal.NewNullDecimal(totalWeight.Round(WeightPlaces)),
		TotalCost:   decimal.NewNullDecimal(totalCost.Round(CostPlaces)),
		CostPerKg:   decimal.NewNullDecimal(costPerKg.Round(CostPlaces)),
	}
}

// LoadUnitCosts fetches every good and sub-recipe referenced by components.
func LoadUnitCosts(tx *gorm.DB, components []models.Component) (UnitCosts, error) {
	var goodIDs, recipeIDs []uint
	for _, component := range components {
		switch component.ComponentType {
		case models.ComponentGood:
			goodIDs = append(goodIDs, component.ComponentID)
		case models.ComponentRecipe:
			recipeIDs = append(recipeIDs, component.ComponentID)
		}
	}

	prices := make(UnitCosts, len(components))
	if len(goodIDs) > 0 {
		var goods []*models.Good
		if err := tx.Where("id IN ?", goodIDs).Find(&goods).Error; err != nil {
			return nil, fmt.Errorf("load component goods: %w", err)
		}
		for _, good := range goods {
			prices[models.ComponentRef{Type: models.ComponentGood, ID: good.ID}] = good
		}
	}
	if len(recipeIDs) > 0 {
		var recipes []*models.Recipe
		if err := tx.Where("id IN ?", recipeIDs).Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("load component sub-recipes: %w", err)
		}
		for _, recipe := range recipes {
			prices[models.ComponentRef{Type: models.ComponentRecipe, ID: recipe.ID}] = recipe
		}
	}
	return prices, nil
}

// RecalculateRecipe recomputes the cached figures of recipe from its current
// components and writes them straight to the columns, skipping hooks and
// validation. recipe is updated in memory as well.
func RecalculateRecipe(tx *gorm.DB, recipe *models.Recipe) error {
	if recipe == nil {
		return nil
	}

	var components []models.Component
	if err := tx.Where("parent_recipe_id = ?", recipe.ID).Order("id asc").Find(&components).Error; err != nil {
		return fmt.Errorf("load components of recipe %d: %w", recipe.ID, err)
	}

	prices, err := LoadUnitCosts(tx, components)
	if err != nil {
		return fmt.Errorf("recipe %d: %w", recipe.ID, err)
	}

	costs := ComputeRecipeCosts(components, prices, recipe.CookingLossPercentage)
	updates := map[string]any{
		"cached_raw_weight":   costs.RawWeight,
		"cached_total_weight": costs.TotalWeight,
		"cached_total_cost":   costs.TotalCost,
		"cached_cost_per_kg":  costs.CostPerKg,
	}
	if err := tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).UpdateColumns(updates).Error; err != nil {
		return fmt.Errorf("store costs of recipe %d: %w", recipe.ID, err)
	}
	recipe.Costs = costs
	return nil
}
