package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TraySize is a packaging tray whose price is added to the selling price of
// recipes sold in it.
type TraySize struct {
	Record
	TenantID uint            `gorm:"not null;uniqueIndex:idx_tray_sizes_tenant_name,priority:1" json:"tenant_id"`
	Name     string          `gorm:"not null;uniqueIndex:idx_tray_sizes_tenant_name,priority:2" json:"name"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

// Validate requires a name and a price of zero or more.
func (t *TraySize) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("name", "is required")
	}
	if t.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	return nil
}
