package catalog

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/models"
)

// CreateSupplier stores an active supplier.
func (s *Service) CreateSupplier(dbc dbctx.Context, tenantID uint, name string) (*models.Supplier, error) {
	supplier := &models.Supplier{TenantID: tenantID, Name: strings.TrimSpace(name), Active: true}
	if supplier.Name == "" {
		return nil, validationError("name is required")
	}
	if err := dbc.Conn(s.db).Omit("Purchases").Create(supplier).Error; err != nil {
		return nil, mapError("create supplier", err)
	}
	return supplier, nil
}

// UpdateSupplier renames a supplier.
func (s *Service) UpdateSupplier(dbc dbctx.Context, tenantID, supplierID uint, name string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.inTx(dbc, "update supplier", func(dbc dbctx.Context, tx *gorm.DB) error {
		if err := owned(tx, tenantID, supplierID, &supplier, "supplier"); err != nil {
			return err
		}
		supplier.Name = strings.TrimSpace(name)
		if supplier.Name == "" {
			return validationError("name is required")
		}
		if err := tx.Model(&supplier).Update("name", supplier.Name).Error; err != nil {
			return fmt.Errorf("rename supplier %d: %w", supplier.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// FindOrCreateSupplier returns the tenant's supplier with that name, creating
// it when missing.
func (s *Service) FindOrCreateSupplier(dbc dbctx.Context, tenantID uint, name string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := dbc.Conn(s.db).Where("tenant_id = ? AND name = ?", tenantID, strings.TrimSpace(name)).Limit(1).Find(&supplier).Error
	if err != nil {
		return nil, mapError("find supplier", err)
	}
	if supplier.ID != 0 {
		return &supplier, nil
	}
	return s.CreateSupplier(dbc, tenantID, name)
}

// DeleteSupplier removes a supplier that has no purchases left.
func (s *Service) DeleteSupplier(dbc dbctx.Context, tenantID, supplierID uint) error {
	return s.inTx(dbc, "delete supplier", func(dbc dbctx.Context, tx *gorm.DB) error {
		var supplier models.Supplier
		if err := owned(tx, tenantID, supplierID, &supplier, "supplier"); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Purchase{}).Where("supplier_id = ?", supplier.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count purchases of supplier %d: %w", supplier.ID, err)
		}
		if count > 0 {
			return inUse(fmt.Sprintf("supplier has %d purchase(s); deactivate it or force the removal", count))
		}
		if err := tx.Delete(&models.Supplier{}, supplier.ID).Error; err != nil {
			return fmt.Errorf("delete supplier %d: %w", supplier.ID, err)
		}
		return nil
	})
}

// ForceDeleteSupplier removes a supplier along with its purchases and
// recalculates every good that lost an offer.
func (s *Service) ForceDeleteSupplier(dbc dbctx.Context, tenantID, supplierID uint) error {
	return s.inTx(dbc, "force delete supplier", func(dbc dbctx.Context, tx *gorm.DB) error {
		var supplier models.Supplier
		if err := owned(tx, tenantID, supplierID, &supplier, "supplier"); err != nil {
			return err
		}
		goodIDs, err := supplierGoodIDs(tx, supplier.ID, false)
		if err != nil {
			return err
		}
		if err := tx.Where("supplier_id = ?", supplier.ID).Delete(&models.Purchase{}).Error; err != nil {
			return fmt.Errorf("delete purchases of supplier %d: %w", supplier.ID, err)
		}
		if err := tx.Delete(&models.Supplier{}, supplier.ID).Error; err != nil {
			return fmt.Errorf("delete supplier %d: %w", supplier.ID, err)
		}
		_, err = s.dispatcher.OnSupplierForceRemoved(dbc, goodIDs)
		return err
	})
}

// DeactivateSupplier deactivates a supplier and all of its purchases, then
// recalculates the goods whose active offers changed.
func (s *Service) DeactivateSupplier(dbc dbctx.Context, tenantID, supplierID uint) error {
	return s.inTx(dbc, "deactivate supplier", func(dbc dbctx.Context, tx *gorm.DB) error {
		var supplier models.Supplier
		if err := owned(tx, tenantID, supplierID, &supplier, "supplier"); err != nil {
			return err
		}
		goodIDs, err := supplierGoodIDs(tx, supplier.ID, true)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Purchase{}).Where("supplier_id = ?", supplier.ID).Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate purchases of supplier %d: %w", supplier.ID, err)
		}
		if err := tx.Model(&models.Supplier{}).Where("id = ?", supplier.ID).Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate supplier %d: %w", supplier.ID, err)
		}
		for _, goodID := range goodIDs {
			if _, err := s.dispatcher.OnPurchaseChanged(dbc, &models.Purchase{GoodID: goodID}, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// ActivateSupplier marks the supplier active again. Its purchases stay
// inactive until toggled one by one.
func (s *Service) ActivateSupplier(dbc dbctx.Context, tenantID, supplierID uint) error {
	return s.inTx(dbc, "activate supplier", func(dbc dbctx.Context, tx *gorm.DB) error {
		var supplier models.Supplier
		if err := owned(tx, tenantID, supplierID, &supplier, "supplier"); err != nil {
			return err
		}
		if err := tx.Model(&models.Supplier{}).Where("id = ?", supplier.ID).Update("active", true).Error; err != nil {
			return fmt.Errorf("activate supplier %d: %w", supplier.ID, err)
		}
		return nil
	})
}

func supplierGoodIDs(tx *gorm.DB, supplierID uint, activeOnly bool) ([]uint, error) {
	query := tx.Model(&models.Purchase{}).Where("supplier_id = ?", supplierID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var ids []uint
	if err := query.Distinct().Pluck("good_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list goods of supplier %d: %w", supplierID, err)
	}
	return ids, nil
}
