package models

// Supplier sells packaged goods to a tenant.
type Supplier struct {
	Record
	TenantID  uint       `gorm:"not null;uniqueIndex:idx_suppliers_tenant_name,priority:1" json:"tenant_id"`
	Name      string     `gorm:"not null;uniqueIndex:idx_suppliers_tenant_name,priority:2" json:"name"`
	Active    bool       `gorm:"not null" json:"active"`
	Purchases []Purchase `gorm:"foreignKey:SupplierID" json:"purchases,omitempty"`
}
