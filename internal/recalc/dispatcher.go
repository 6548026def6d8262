// Package recalc decides which cached costs to recompute after a business
// event and in which order: purchases, then the good's average, then the
// recipes using the good, then one hop up to the recipes using those.
//
// Callers persist the record that triggered the event before dispatching;
// the dispatcher only ever writes derived columns.
package recalc

import (
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fourneau/internal/costing"
	"fourneau/internal/dbctx"
	"fourneau/internal/log"
	"fourneau/models"
)

// Dispatcher runs each event inside a single transaction, reusing the one
// carried by the dbctx.Context when present.
type Dispatcher struct {
	db *gorm.DB
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{db: db}
}

// Result counts what one event recalculated.
type Result struct {
	Goods   int
	Recipes int
}

func (r *Result) add(other Result) {
	r.Goods += other.Goods
	r.Recipes += other.Recipes
}

// OnPurchaseChanged recomputes the good the purchase belongs to and the
// recipes depending on it. good may be nil, in which case the preloaded
// purchase.Good or purchase.GoodID is used.
func (d *Dispatcher) OnPurchaseChanged(dbc dbctx.Context, purchase *models.Purchase, good *models.Good) (Result, error) {
	var goodID uint
	switch {
	case good != nil:
		goodID = good.ID
	case purchase != nil && purchase.Good != nil:
		goodID = purchase.Good.ID
	case purchase != nil:
		goodID = purchase.GoodID
	}
	if goodID == 0 {
		return Result{}, nil
	}

	dbc.Ctx = log.WithCascade(dbc.Context())
	var result Result
	err := dbc.InTx(d.db, func(tx *gorm.DB) error {
		var err error
		result, err = d.goodChanged(dbc, tx, goodID)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("purchase change for good %d: %w", goodID, err)
	}
	log.Info(dbc.Ctx, "purchase change recalculated", "good_id", goodID, "goods", result.Goods, "recipes", result.Recipes)
	return result, nil
}

// OnComponentChanged recomputes recipe after one of its components was
// added, updated or removed, then its parents when it is reusable.
func (d *Dispatcher) OnComponentChanged(dbc dbctx.Context, recipe *models.Recipe) (Result, error) {
	return d.recipeEvent(dbc, recipe, "component change recalculated")
}

// OnRecipeAttributesChanged is OnComponentChanged for a change of cooking
// loss or tray. Callers gate it with CostAttributesChanged.
func (d *Dispatcher) OnRecipeAttributesChanged(dbc dbctx.Context, recipe *models.Recipe) (Result, error) {
	return d.recipeEvent(dbc, recipe, "recipe attribute change recalculated")
}

// CostAttributesChanged reports whether an update touched a field that
// feeds the recipe costs. Name and description are cosmetic.
func CostAttributesChanged(before, after *models.Recipe) bool {
	if before == nil || after == nil {
		return before != after
	}
	if before.CookingLossPercentage.Valid != after.CookingLossPercentage.Valid {
		return true
	}
	if before.CookingLossPercentage.Valid && !before.CookingLossPercentage.Decimal.Equal(after.CookingLossPercentage.Decimal) {
		return true
	}
	if before.HasTray != after.HasTray {
		return true
	}
	switch {
	case before.TraySizeID == nil && after.TraySizeID == nil:
		return false
	case before.TraySizeID == nil || after.TraySizeID == nil:
		return true
	default:
		return *before.TraySizeID != *after.TraySizeID
	}
}

// OnSupplierForceRemoved recomputes every good that lost purchases when a
// supplier was deleted along with its purchases.
func (d *Dispatcher) OnSupplierForceRemoved(dbc dbctx.Context, goodIDs []uint) (Result, error) {
	ids := uniqueIDs(goodIDs)
	if len(ids) == 0 {
		return Result{}, nil
	}

	dbc.Ctx = log.WithCascade(dbc.Context())
	var result Result
	err := dbc.InTx(d.db, func(tx *gorm.DB) error {
		result = Result{}
		for _, id := range ids {
			partial, err := d.goodChanged(dbc, tx, id)
			if err != nil {
				return err
			}
			result.add(partial)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("supplier removal: %w", err)
	}
	log.Info(dbc.Ctx, "supplier removal recalculated", "goods", result.Goods, "recipes", result.Recipes)
	return result, nil
}

// FullGoodRecalculation renormalizes every purchase of good before running
// the purchase change cascade. Imports use it after bulk writes.
func (d *Dispatcher) FullGoodRecalculation(dbc dbctx.Context, good *models.Good) (Result, error) {
	if good == nil {
		return Result{}, nil
	}

	dbc.Ctx = log.WithCascade(dbc.Context())
	var result Result
	err := dbc.InTx(d.db, func(tx *gorm.DB) error {
		if err := renormalizePurchases(tx, good); err != nil {
			return err
		}
		var err error
		result, err = d.goodChanged(dbc, tx, good.ID)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("full recalculation of good %d: %w", good.ID, err)
	}
	log.Info(dbc.Ctx, "good fully recalculated", "good_id", good.ID, "recipes", result.Recipes)
	return result, nil
}

func (d *Dispatcher) recipeEvent(dbc dbctx.Context, recipe *models.Recipe, message string) (Result, error) {
	if recipe == nil || recipe.ID == 0 {
		return Result{}, nil
	}

	dbc.Ctx = log.WithCascade(dbc.Context())
	var result Result
	var costs models.RecipeCosts
	err := dbc.InTx(d.db, func(tx *gorm.DB) error {
		locked, err := lockRecipes(tx, []uint{recipe.ID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			result = Result{}
			return nil
		}
		target := locked[0]
		if err := recalculateRecipe(dbc, tx, target); err != nil {
			return err
		}
		costs = target.Costs
		result = Result{Recipes: 1}

		parents, err := d.propagate(dbc, tx, target)
		result.Recipes += parents
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("recipe %d: %w", recipe.ID, err)
	}
	if result.Recipes > 0 {
		recipe.Costs = costs
	}
	log.Info(dbc.Ctx, message, "recipe_id", recipe.ID, "recipes", result.Recipes)
	return result, nil
}

// goodChanged locks and recomputes one good, the recipes using it directly,
// and the parents of the reusable ones. A good deleted meanwhile is skipped.
func (d *Dispatcher) goodChanged(dbc dbctx.Context, tx *gorm.DB, goodID uint) (Result, error) {
	var good models.Good
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&good, goodID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug(dbc.Ctx, "good vanished before recalculation", "good_id", goodID)
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("lock good %d: %w", goodID, err)
	}

	if err := costing.RecalculateAveragePrice(tx, &good); err != nil {
		return Result{}, err
	}
	log.Debug(dbc.Ctx, "good average recalculated", "good_id", good.ID, "avg_price_per_kg", good.Costs.AvgPricePerKg.String())
	result := Result{Goods: 1}

	var recipeIDs []uint
	if err := tx.Model(&models.Component{}).
		Where("component_type = ? AND component_id = ?", models.ComponentGood, good.ID).
		Distinct().
		Pluck("parent_recipe_id", &recipeIDs).Error; err != nil {
		return Result{}, fmt.Errorf("find recipes using good %d: %w", good.ID, err)
	}

	recipes, err := lockRecipes(tx, recipeIDs)
	if err != nil {
		return Result{}, err
	}
	for _, recipe := range recipes {
		if err := recalculateRecipe(dbc, tx, recipe); err != nil {
			return Result{}, err
		}
		result.Recipes++

		parents, err := d.propagate(dbc, tx, recipe)
		if err != nil {
			return Result{}, err
		}
		result.Recipes += parents
	}
	return result, nil
}

// propagate recalculates the direct parents of a reusable recipe. It never
// goes further: sub-recipes cannot contain sub-recipes.
func (d *Dispatcher) propagate(dbc dbctx.Context, tx *gorm.DB, recipe *models.Recipe) (int, error) {
	if !recipe.SellableAsComponent {
		return 0, nil
	}

	var parentIDs []uint
	if err := tx.Model(&models.Component{}).
		Where("component_type = ? AND component_id = ?", models.ComponentRecipe, recipe.ID).
		Distinct().
		Pluck("parent_recipe_id", &parentIDs).Error; err != nil {
		return 0, fmt.Errorf("find parents of recipe %d: %w", recipe.ID, err)
	}

	parents, err := lockRecipes(tx, parentIDs)
	if err != nil {
		return 0, err
	}
	for _, parent := range parents {
		if err := recalculateRecipe(dbc, tx, parent); err != nil {
			return 0, err
		}
	}
	return len(parents), nil
}

func recalculateRecipe(dbc dbctx.Context, tx *gorm.DB, recipe *models.Recipe) error {
	if err := costing.RecalculateRecipe(tx, recipe); err != nil {
		return err
	}
	log.Debug(dbc.Ctx, "recipe recalculated", "recipe_id", recipe.ID, "cost_per_kg", recipe.Costs.CostPerKg.Decimal.String())
	return nil
}

// lockRecipes selects the recipes FOR UPDATE in id order so that concurrent
// cascades acquire row locks in the same sequence.
func lockRecipes(tx *gorm.DB, ids []uint) ([]*models.Recipe, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var recipes []*models.Recipe
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("lock recipes: %w", err)
	}
	return recipes, nil
}

func renormalizePurchases(tx *gorm.DB, good *models.Good) error {
	var purchases []models.Purchase
	if err := tx.Where("good_id = ?", good.ID).Order("id asc").Find(&purchases).Error; err != nil {
		return fmt.Errorf("load purchases of good %d: %w", good.ID, err)
	}
	for i := range purchases {
		purchase := costing.NormalizePurchase(&purchases[i], good)
		if err := tx.Model(&models.Purchase{}).Where("id = ?", purchase.ID).UpdateColumns(map[string]any{
			"quantity_kg":  purchase.Costs.QuantityKg,
			"price_per_kg": purchase.Costs.PricePerKg,
		}).Error; err != nil {
			return fmt.Errorf("store purchase %d: %w", purchase.ID, err)
		}
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
