package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/costing"
	"fourneau/internal/dbctx"
	"fourneau/internal/recalc"
	"fourneau/models"
)

// RecipeInput carries the editable attributes of a recipe.
type RecipeInput struct {
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	CookingLossPercentage decimal.NullDecimal `json:"cooking_loss_percentage"`
	SellableAsComponent   bool                `json:"sellable_as_component"`
	HasTray               bool                `json:"has_tray"`
	TraySizeID            *uint               `json:"tray_size_id"`
}

// CostSheet is a recipe with its cached costs and the derived selling price.
type CostSheet struct {
	Recipe                *models.Recipe      `json:"recipe"`
	SuggestedSellingPrice decimal.NullDecimal `json:"suggested_selling_price"`
}

// CreateRecipe stores an empty recipe with zeroed costs.
func (s *Service) CreateRecipe(dbc dbctx.Context, tenantID uint, in RecipeInput) (*models.Recipe, error) {
	recipe := &models.Recipe{TenantID: tenantID}
	err := s.inTx(dbc, "create recipe", func(dbc dbctx.Context, tx *gorm.DB) error {
		applyRecipeInput(recipe, in)
		if !recipe.CookingLossPercentage.Valid {
			recipe.CookingLossPercentage = decimal.NewNullDecimal(decimal.Zero)
		}
		if err := checkRecipe(tx, recipe); err != nil {
			return err
		}
		if err := tx.Omit("TraySize", "Components").Create(recipe).Error; err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		return costing.RecalculateRecipe(tx, recipe)
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateRecipe saves new attributes. Costs are recalculated only when the
// cooking loss or tray changed.
func (s *Service) UpdateRecipe(dbc dbctx.Context, tenantID, recipeID uint, in RecipeInput) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.inTx(dbc, "update recipe", func(dbc dbctx.Context, tx *gorm.DB) error {
		if err := owned(tx, tenantID, recipeID, &recipe, "recipe"); err != nil {
			return err
		}
		before := recipe

		applyRecipeInput(&recipe, in)
		if err := checkRecipe(tx, &recipe); err != nil {
			return err
		}
		if before.SellableAsComponent && !recipe.SellableAsComponent {
			used, err := usedAsSubRecipe(tx, recipe.ID)
			if err != nil {
				return err
			}
			if used {
				return inUse("recipe is used as a sub-recipe and must stay sellable")
			}
		}

		if err := tx.Model(&recipe).
			Select("Name", "Description", "CookingLossPercentage", "SellableAsComponent", "HasTray", "TraySizeID").
			Updates(&recipe).Error; err != nil {
			return fmt.Errorf("save recipe %d: %w", recipe.ID, err)
		}
		if !recalc.CostAttributesChanged(&before, &recipe) {
			return nil
		}
		_, err := s.dispatcher.OnRecipeAttributesChanged(dbc, &recipe)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// DeleteRecipe removes a recipe and its lines. Recipes used as sub-recipes
// must be detached first.
func (s *Service) DeleteRecipe(dbc dbctx.Context, tenantID, recipeID uint) error {
	return s.inTx(dbc, "delete recipe", func(dbc dbctx.Context, tx *gorm.DB) error {
		var recipe models.Recipe
		if err := owned(tx, tenantID, recipeID, &recipe, "recipe"); err != nil {
			return err
		}
		used, err := usedAsSubRecipe(tx, recipe.ID)
		if err != nil {
			return err
		}
		if used {
			return inUse("recipe is used as a sub-recipe")
		}
		if err := tx.Where("parent_recipe_id = ?", recipe.ID).Delete(&models.Component{}).Error; err != nil {
			return fmt.Errorf("delete components of recipe %d: %w", recipe.ID, err)
		}
		if err := tx.Delete(&models.Recipe{}, recipe.ID).Error; err != nil {
			return fmt.Errorf("delete recipe %d: %w", recipe.ID, err)
		}
		return nil
	})
}

// DuplicateRecipe copies a recipe and its lines under the first free
// "<name> (copy)", "<name> (copy 2)"… name.
func (s *Service) DuplicateRecipe(dbc dbctx.Context, tenantID, recipeID uint) (*models.Recipe, error) {
	var duplicate *models.Recipe
	err := s.inTx(dbc, "duplicate recipe", func(dbc dbctx.Context, tx *gorm.DB) error {
		var source models.Recipe
		if err := owned(tx, tenantID, recipeID, &source, "recipe"); err != nil {
			return err
		}
		var components []models.Component
		if err := tx.Where("parent_recipe_id = ?", source.ID).Order("id asc").Find(&components).Error; err != nil {
			return fmt.Errorf("load components of recipe %d: %w", source.ID, err)
		}

		name, err := copyName(tx, tenantID, source.Name)
		if err != nil {
			return err
		}
		duplicate = &models.Recipe{
			TenantID:              tenantID,
			Name:                  name,
			Description:           source.Description,
			CookingLossPercentage: source.CookingLossPercentage,
			SellableAsComponent:   source.SellableAsComponent,
			HasTray:               source.HasTray,
			TraySizeID:            source.TraySizeID,
		}
		if err := tx.Omit("TraySize", "Components").Create(duplicate).Error; err != nil {
			return fmt.Errorf("insert recipe copy: %w", err)
		}
		for _, component := range components {
			line := models.Component{
				ParentRecipeID: duplicate.ID,
				ComponentType:  component.ComponentType,
				ComponentID:    component.ComponentID,
				QuantityKg:     component.QuantityKg,
				QuantityUnit:   component.QuantityUnit,
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("copy component %d: %w", component.ID, err)
			}
		}
		return costing.RecalculateRecipe(tx, duplicate)
	})
	if err != nil {
		return nil, err
	}
	return duplicate, nil
}

// RecipeCosts returns the cached costs of a recipe along with the suggested
// selling price for the tenant.
func (s *Service) RecipeCosts(dbc dbctx.Context, tenantID, recipeID uint) (*CostSheet, error) {
	conn := dbc.Conn(s.db)
	var recipe models.Recipe
	if err := owned(conn.Preload("TraySize").Preload("Components", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}), tenantID, recipeID, &recipe, "recipe"); err != nil {
		return nil, mapError("recipe costs", err)
	}
	var tenant models.Tenant
	if err := conn.First(&tenant, tenantID).Error; err != nil {
		return nil, mapError("recipe costs", err)
	}
	return &CostSheet{
		Recipe:                &recipe,
		SuggestedSellingPrice: costing.SuggestedSellingPrice(&recipe, &tenant),
	}, nil
}

func applyRecipeInput(recipe *models.Recipe, in RecipeInput) {
	recipe.Name = strings.TrimSpace(in.Name)
	recipe.Description = in.Description
	recipe.CookingLossPercentage = in.CookingLossPercentage
	recipe.SellableAsComponent = in.SellableAsComponent
	recipe.HasTray = in.HasTray
	recipe.TraySizeID = in.TraySizeID
	if !recipe.HasTray {
		recipe.TraySizeID = nil
	}
}

// checkRecipe runs the model checks and verifies the tray belongs to the
// recipe's tenant.
func checkRecipe(tx *gorm.DB, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}
	if recipe.TraySizeID == nil {
		return nil
	}
	var tray models.TraySize
	err := owned(tx, recipe.TenantID, *recipe.TraySizeID, &tray, "tray size")
	if errors.Is(err, ErrNotFound) {
		return validationError("tray_size_id must reference a tray of the same tenant")
	}
	return err
}

func usedAsSubRecipe(tx *gorm.DB, recipeID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.Component{}).
		Where("component_type = ? AND component_id = ?", models.ComponentRecipe, recipeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check sub-recipe usage of %d: %w", recipeID, err)
	}
	return count > 0, nil
}

func copyName(tx *gorm.DB, tenantID uint, name string) (string, error) {
	for n := 1; ; n++ {
		candidate := name + " (copy)"
		if n > 1 {
			candidate = fmt.Sprintf("%s (copy %d)", name, n)
		}
		var count int64
		if err := tx.Model(&models.Recipe{}).Where("tenant_id = ? AND name = ?", tenantID, candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check recipe name: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
}
