package models

import "github.com/shopspring/decimal"

// MinMarkupCoefficient is the lowest markup a tenant may configure.
var MinMarkupCoefficient = decimal.New(1, -1)

// Tenant owns every good, supplier, recipe and tray. The engine treats the
// identifier as opaque and never crosses it.
type Tenant struct {
	Record
	Email             string              `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash      string              `gorm:"not null" json:"-"`
	Name              string              `json:"name"`
	MarkupCoefficient decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"markup_coefficient"`
}

// Validate checks the markup coefficient bounds.
func (t *Tenant) Validate() error {
	if t.MarkupCoefficient.Valid && t.MarkupCoefficient.Decimal.LessThan(MinMarkupCoefficient) {
		return invalid("markup_coefficient", "must be greater than or equal to 0.1")
	}
	return nil
}
