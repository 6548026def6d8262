// Package composition guards the shape of the recipe graph: a recipe holds
// goods and at most one level of reusable sub-recipes, all from its own
// tenant.
package composition

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fourneau/internal/dbctx"
	"fourneau/models"
)

// Validator checks a component before it is created or updated.
type Validator struct {
	db *gorm.DB
}

func NewValidator(db *gorm.DB) *Validator {
	return &Validator{db: db}
}

// Validate returns a *Violation when component would break the composition
// rules, nil when it may be persisted. A component with a non-zero ID is
// treated as an update of that row. Storage failures are returned as is.
func (v *Validator) Validate(dbc dbctx.Context, component *models.Component) error {
	if component == nil {
		return violation(ErrInvalidComponent, "component is required")
	}
	if !component.ComponentType.Valid() {
		return violation(ErrInvalidComponent, "unknown component type %q", component.ComponentType)
	}
	if !component.QuantityKg.IsPositive() {
		return violation(ErrInvalidComponent, "quantity must be greater than zero")
	}

	tx := dbc.Conn(v.db)

	ids := []uint{component.ParentRecipeID}
	if component.IsRecipe() {
		ids = append(ids, component.ComponentID)
	}
	recipes, err := lockRecipes(tx, ids)
	if err != nil {
		return err
	}

	parent, ok := recipes[component.ParentRecipeID]
	if !ok {
		return violation(ErrTargetNotFound, "recipe %d", component.ParentRecipeID)
	}

	if component.IsRecipe() && component.ComponentID == parent.ID {
		return violation(ErrSelfReference, "recipe %d", parent.ID)
	}

	duplicates := tx.Model(&models.Component{}).
		Where("parent_recipe_id = ? AND component_type = ? AND component_id = ?", parent.ID, component.ComponentType, component.ComponentID)
	if component.ID != 0 {
		duplicates = duplicates.Where("id <> ?", component.ID)
	}
	var count int64
	if err := duplicates.Count(&count).Error; err != nil {
		return fmt.Errorf("check duplicate components: %w", err)
	}
	if count > 0 {
		return violation(ErrDuplicateComponent, "%s %d", component.ComponentType, component.ComponentID)
	}

	if !component.IsRecipe() {
		var good models.Good
		if err := tx.First(&good, component.ComponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return violation(ErrTargetNotFound, "good %d", component.ComponentID)
			}
			return fmt.Errorf("load good %d: %w", component.ComponentID, err)
		}
		return checkTenant(parent, &good)
	}

	sub, ok := recipes[component.ComponentID]
	if !ok {
		return violation(ErrTargetNotFound, "recipe %d", component.ComponentID)
	}
	if err := checkTenant(parent, sub); err != nil {
		return err
	}
	if !sub.SellableAsComponent {
		return violation(ErrNotSellable, "recipe %d", sub.ID)
	}
	return v.checkDepth(tx, parent, sub)
}

// lockRecipes loads the recipes by id, locking their rows in id order so that
// concurrent edits touching a shared recipe check the depth rules one after
// the other.
func lockRecipes(tx *gorm.DB, ids []uint) (map[uint]*models.Recipe, error) {
	var recipes []*models.Recipe
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("lock recipes %v: %w", ids, err)
	}
	byID := make(map[uint]*models.Recipe, len(recipes))
	for _, recipe := range recipes {
		byID[recipe.ID] = recipe
	}
	return byID, nil
}

func checkTenant(parent *models.Recipe, target models.Costed) error {
	if target.OwnerID() != parent.TenantID {
		return violation(ErrTenantMismatch, "recipe %d", parent.ID)
	}
	return nil
}

// checkDepth enforces the one level cap from both sides: the sub-recipe must
// not hold sub-recipes, and the parent must not itself be a sub-recipe. The
// back reference is reported first since it is the more specific rule.
func (v *Validator) checkDepth(tx *gorm.DB, parent, sub *models.Recipe) error {
	var back int64
	if err := tx.Model(&models.Component{}).
		Where("parent_recipe_id = ? AND component_type = ? AND component_id = ?", sub.ID, models.ComponentRecipe, parent.ID).
		Count(&back).Error; err != nil {
		return fmt.Errorf("check back reference: %w", err)
	}
	if back > 0 {
		return violation(ErrCircularReference, "recipe %d contains recipe %d", sub.ID, parent.ID)
	}

	var nested int64
	if err := tx.Model(&models.Component{}).
		Where("parent_recipe_id = ? AND component_type = ?", sub.ID, models.ComponentRecipe).
		Count(&nested).Error; err != nil {
		return fmt.Errorf("check nested sub-recipes: %w", err)
	}
	if nested > 0 {
		return violation(ErrMaxDepth, "recipe %d already contains sub-recipes", sub.ID)
	}

	var usedAsSub int64
	if err := tx.Model(&models.Component{}).
		Where("component_type = ? AND component_id = ?", models.ComponentRecipe, parent.ID).
		Count(&usedAsSub).Error; err != nil {
		return fmt.Errorf("check parent usage: %w", err)
	}
	if usedAsSub > 0 {
		return violation(ErrMaxDepth, "recipe %d is itself used as a sub-recipe", parent.ID)
	}
	return nil
}
