// Package units converts entered quantities to kilograms and back.
//
// Liquids are costed by weight with 1 l taken as 1 kg. Pieces convert through
// the unit weight of the referenced good. Unknown unit codes are treated as
// kilograms rather than rejected.
package units

import (
	"github.com/shopspring/decimal"

	"fourneau/models"
)

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
)

// ToKilograms converts quantity expressed in unit into kilograms. ref is only
// consulted for pieces; a missing or weightless ref yields zero.
func ToKilograms(quantity decimal.Decimal, unit string, ref *models.Good) decimal.Decimal {
	switch models.NormalizeUnit(unit) {
	case models.UnitKilogram, models.UnitLiter:
		return quantity
	case models.UnitGram, models.UnitMilliliter:
		return quantity.Div(thousand)
	case models.UnitCentiliter:
		return quantity.Div(hundred)
	case models.UnitPiece:
		weight, ok := ref.UnitWeight()
		if !ok {
			return decimal.Zero
		}
		return quantity.Mul(weight)
	default:
		// TODO: reject unknown units once purchase imports validate their unit column.
		return quantity
	}
}

// ToDisplayUnit converts kilograms back into unit. Pieces without a usable
// unit weight are returned as kilograms unchanged.
func ToDisplayUnit(kilograms decimal.Decimal, unit string, ref *models.Good) decimal.Decimal {
	switch models.NormalizeUnit(unit) {
	case models.UnitKilogram, models.UnitLiter:
		return kilograms
	case models.UnitGram, models.UnitMilliliter:
		return kilograms.Mul(thousand)
	case models.UnitCentiliter:
		return kilograms.Mul(hundred)
	case models.UnitPiece:
		weight, ok := ref.UnitWeight()
		if !ok {
			return kilograms
		}
		return kilograms.Div(weight)
	default:
		return kilograms
	}
}
