package models

import "strings"

// Unit is the unit a quantity was entered in.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "l"
	UnitCentiliter Unit = "cl"
	UnitMilliliter Unit = "ml"
	UnitPiece      Unit = "piece"
)

// PackageUnits lists the units accepted for purchases and component quantities.
var PackageUnits = []Unit{UnitKilogram, UnitGram, UnitLiter, UnitCentiliter, UnitMilliliter, UnitPiece}

// BaseUnits lists the measurement modes a good can be tracked in.
var BaseUnits = []Unit{UnitKilogram, UnitLiter, UnitPiece}

// NormalizeUnit lowercases and trims a unit code.
func NormalizeUnit(value string) Unit {
	return Unit(strings.ToLower(strings.TrimSpace(value)))
}

// ValidUnit reports whether value names one of the package units.
func ValidUnit(value string) bool {
	return containsUnit(PackageUnits, NormalizeUnit(value))
}

// ValidBaseUnit reports whether value names one of the base units.
func ValidBaseUnit(value string) bool {
	return containsUnit(BaseUnits, NormalizeUnit(value))
}

func containsUnit(set []Unit, unit Unit) bool {
	for _, candidate := range set {
		if candidate == unit {
			return true
		}
	}
	return false
}
