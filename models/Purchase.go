package models

import "github.com/shopspring/decimal"

// Purchase is one supplier's packaged offer for a good.
type Purchase struct {
	Record
	GoodID          uint            `gorm:"not null;index" json:"good_id"`
	Good            *Good           `gorm:"foreignKey:GoodID" json:"-"`
	SupplierID      uint            `gorm:"not null;index" json:"supplier_id"`
	Supplier        *Supplier       `gorm:"foreignKey:SupplierID" json:"-"`
	PackageQuantity decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"package_quantity"`
	PackageUnit     Unit            `gorm:"type:varchar(16);not null" json:"package_unit"`
	PackagePrice    decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"package_price"`
	Active          bool            `gorm:"not null;index" json:"active"`
	Costs           PurchaseCosts   `gorm:"embedded" json:"costs"`
}

// PurchaseCosts are derived from the package inputs and stored next to them.
type PurchaseCosts struct {
	QuantityKg decimal.Decimal `gorm:"type:decimal(14,6);not null" json:"quantity_kg"`
	PricePerKg decimal.Decimal `gorm:"type:decimal(14,6);not null" json:"price_per_kg"`
}

// Validate checks the package inputs.
func (p *Purchase) Validate() error {
	if !p.PackageQuantity.IsPositive() {
		return invalid("package_quantity", "must be greater than zero")
	}
	if p.PackagePrice.IsNegative() {
		return invalid("package_price", "must not be negative")
	}
	if !ValidUnit(string(p.PackageUnit)) {
		return invalid("package_unit", "must be one of kg, g, l, cl, ml, piece")
	}
	return nil
}
