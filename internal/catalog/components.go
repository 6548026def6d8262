package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/internal/units"
	"fourneau/models"
)

// ComponentInput describes a recipe line. Quantity is expressed in Unit and
// converted to kilograms against the referenced good.
type ComponentInput struct {
	RecipeID uint                 `json:"recipe_id"`
	Type     models.ComponentType `json:"component_type"`
	TargetID uint                 `json:"component_id"`
	Quantity decimal.Decimal      `json:"quantity"`
	Unit     string               `json:"unit"`
}

// AddComponent validates the composition rules, stores the line and
// recalculates the recipe and its parents.
func (s *Service) AddComponent(dbc dbctx.Context, tenantID uint, in ComponentInput) (*models.Component, error) {
	var component *models.Component
	err := s.inTx(dbc, "add component", func(dbc dbctx.Context, tx *gorm.DB) error {
		var recipe models.Recipe
		if err := owned(tx, tenantID, in.RecipeID, &recipe, "recipe"); err != nil {
			return err
		}

		component = &models.Component{
			ParentRecipeID: recipe.ID,
			ComponentType:  in.Type,
			ComponentID:    in.TargetID,
		}
		if err := s.setQuantity(tx, component, in.Quantity, in.Unit); err != nil {
			return err
		}
		if err := s.validator.Validate(dbc, component); err != nil {
			return err
		}
		if err := tx.Create(component).Error; err != nil {
			return fmt.Errorf("insert component: %w", err)
		}
		_, err := s.dispatcher.OnComponentChanged(dbc, &recipe)
		return err
	})
	if err != nil {
		return nil, err
	}
	return component, nil
}

// UpdateComponent changes the quantity of a line. Its target is fixed; a
// different target is a remove followed by an add.
func (s *Service) UpdateComponent(dbc dbctx.Context, tenantID, componentID uint, quantity decimal.Decimal, unit string) (*models.Component, error) {
	var component *models.Component
	err := s.inTx(dbc, "update component", func(dbc dbctx.Context, tx *gorm.DB) error {
		var recipe *models.Recipe
		var err error
		component, recipe, err = loadComponent(tx, tenantID, componentID)
		if err != nil {
			return err
		}
		if err := s.setQuantity(tx, component, quantity, unit); err != nil {
			return err
		}
		if err := s.validator.Validate(dbc, component); err != nil {
			return err
		}
		if err := tx.Save(component).Error; err != nil {
			return fmt.Errorf("save component %d: %w", component.ID, err)
		}
		_, err = s.dispatcher.OnComponentChanged(dbc, recipe)
		return err
	})
	if err != nil {
		return nil, err
	}
	return component, nil
}

// RemoveComponent deletes a line and recalculates its recipe.
func (s *Service) RemoveComponent(dbc dbctx.Context, tenantID, componentID uint) error {
	return s.inTx(dbc, "remove component", func(dbc dbctx.Context, tx *gorm.DB) error {
		component, recipe, err := loadComponent(tx, tenantID, componentID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Component{}, component.ID).Error; err != nil {
			return fmt.Errorf("delete component %d: %w", component.ID, err)
		}
		_, err = s.dispatcher.OnComponentChanged(dbc, recipe)
		return err
	})
}

// setQuantity converts quantity to kilograms. Piece quantities use the unit
// weight of the referenced good; the display unit is kept for rendering.
func (s *Service) setQuantity(tx *gorm.DB, component *models.Component, quantity decimal.Decimal, unit string) error {
	normalized := models.NormalizeUnit(unit)
	if normalized == "" {
		normalized = models.UnitKilogram
	}
	if !models.ValidUnit(string(normalized)) {
		return validationError("unit must be one of kg, g, l, cl, ml, piece")
	}
	if !quantity.IsPositive() {
		return validationError("quantity must be greater than zero")
	}

	var ref *models.Good
	if normalized == models.UnitPiece {
		if component.ComponentType != models.ComponentGood {
			return validationError("sub-recipes cannot be measured in pieces")
		}
		var good models.Good
		if err := tx.First(&good, component.ComponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("good", component.ComponentID)
			}
			return fmt.Errorf("load good %d: %w", component.ComponentID, err)
		}
		if _, ok := good.UnitWeight(); !ok {
			return validationError("unit piece needs a good with a unit weight")
		}
		ref = &good
	}

	component.QuantityKg = units.ToKilograms(quantity, string(normalized), ref)
	component.QuantityUnit = normalized
	return nil
}

func loadComponent(tx *gorm.DB, tenantID, componentID uint) (*models.Component, *models.Recipe, error) {
	var component models.Component
	if err := tx.First(&component, componentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("component", componentID)
		}
		return nil, nil, fmt.Errorf("load component %d: %w", componentID, err)
	}
	var recipe models.Recipe
	if err := owned(tx, tenantID, component.ParentRecipeID, &recipe, "recipe"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, notFound("component", componentID)
		}
		return nil, nil, err
	}
	return &component, &recipe, nil
}
