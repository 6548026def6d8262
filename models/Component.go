package models

import "github.com/shopspring/decimal"

// ComponentType discriminates what a component line points at.
type ComponentType string

const (
	ComponentGood   ComponentType = "Good"
	ComponentRecipe ComponentType = "Recipe"
)

// Valid reports whether t is one of the known component types.
func (t ComponentType) Valid() bool {
	return t == ComponentGood || t == ComponentRecipe
}

// Component is one line of a recipe. It references either a good or a
// reusable sub-recipe through (ComponentType, ComponentID).
type Component struct {
	Record
	ParentRecipeID uint            `gorm:"not null;uniqueIndex:idx_components_unique,priority:1" json:"parent_recipe_id"`
	ComponentType  ComponentType   `gorm:"type:varchar(16);not null;uniqueIndex:idx_components_unique,priority:2;index:idx_components_target,priority:1" json:"component_type"`
	ComponentID    uint            `gorm:"not null;uniqueIndex:idx_components_unique,priority:3;index:idx_components_target,priority:2" json:"component_id"`
	QuantityKg     decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"quantity_kg"`
	QuantityUnit   Unit            `gorm:"type:varchar(16);not null" json:"quantity_unit"`
}

// Ref returns the polymorphic reference carried by the component.
func (c *Component) Ref() ComponentRef {
	return ComponentRef{Type: c.ComponentType, ID: c.ComponentID}
}

// IsRecipe reports whether the component is a sub-recipe.
func (c *Component) IsRecipe() bool {
	return c.ComponentType == ComponentRecipe
}

// ComponentRef identifies a component target.
type ComponentRef struct {
	Type ComponentType
	ID   uint
}

// Costed is implemented by every entity that can be used as a component.
type Costed interface {
	UnitCost() decimal.Decimal
	OwnerID() uint
}

var (
	_ Costed = (*Good)(nil)
	_ Costed = (*Recipe)(nil)
)
