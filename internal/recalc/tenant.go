package recalc

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fourneau/internal/costing"
	"fourneau/internal/dbctx"
	"fourneau/internal/log"
	"fourneau/models"
)

// RecalculateTenant rebuilds every cached figure of one tenant: purchases
// and averages of all goods, then recipes holding only goods, then recipes
// holding sub-recipes. Tenants never share rows, so callers may run several
// tenants concurrently.
func (d *Dispatcher) RecalculateTenant(dbc dbctx.Context, tenantID uint) (Result, error) {
	dbc.Ctx = log.WithCascade(dbc.Context())
	var result Result
	err := dbc.InTx(d.db, func(tx *gorm.DB) error {
		result = Result{}

		var goods []*models.Good
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ?", tenantID).
			Order("id asc").
			Find(&goods).Error; err != nil {
			return fmt.Errorf("lock goods: %w", err)
		}
		for _, good := range goods {
			if err := renormalizePurchases(tx, good); err != nil {
				return err
			}
			if err := costing.RecalculateAveragePrice(tx, good); err != nil {
				return err
			}
			result.Goods++
		}

		nested := tx.Model(&models.Component{}).
			Select("parent_recipe_id").
			Where("component_type = ?", models.ComponentRecipe)

		var leaves []*models.Recipe
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id NOT IN (?)", tenantID, nested).
			Order("id asc").
			Find(&leaves).Error; err != nil {
			return fmt.Errorf("lock recipes: %w", err)
		}
		var composites []*models.Recipe
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id IN (?)", tenantID, nested).
			Order("id asc").
			Find(&composites).Error; err != nil {
			return fmt.Errorf("lock recipes with sub-recipes: %w", err)
		}

		for _, recipe := range append(leaves, composites...) {
			if err := recalculateRecipe(dbc, tx, recipe); err != nil {
				return err
			}
			result.Recipes++
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("recalculate tenant %d: %w", tenantID, err)
	}
	log.Info(dbc.Ctx, "tenant recalculated", "tenant_id", tenantID, "goods", result.Goods, "recipes", result.Recipes)
	return result, nil
}
