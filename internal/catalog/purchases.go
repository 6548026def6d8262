package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/costing"
	"fourneau/internal/dbctx"
	"fourneau/models"
)

// PurchaseInput carries a supplier offer as entered by the user.
type PurchaseInput struct {
	GoodID          uint            `json:"good_id"`
	SupplierID      uint            `json:"supplier_id"`
	PackageQuantity decimal.Decimal `json:"package_quantity"`
	PackageUnit     string          `json:"package_unit"`
	PackagePrice    decimal.Decimal `json:"package_price"`
	Active          *bool           `json:"active,omitempty"`
}

// CreatePurchase stores a new offer and refreshes the good's average price
// and every recipe depending on it.
func (s *Service) CreatePurchase(dbc dbctx.Context, tenantID uint, in PurchaseInput) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.inTx(dbc, "create purchase", func(dbc dbctx.Context, tx *gorm.DB) error {
		var good models.Good
		if err := owned(tx, tenantID, in.GoodID, &good, "good"); err != nil {
			return err
		}
		var supplier models.Supplier
		if err := owned(tx, tenantID, in.SupplierID, &supplier, "supplier"); err != nil {
			return err
		}

		purchase = &models.Purchase{GoodID: good.ID, SupplierID: supplier.ID, Active: true}
		if err := applyPurchaseInput(purchase, in, &good); err != nil {
			return err
		}
		if err := tx.Create(purchase).Error; err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		_, err := s.dispatcher.OnPurchaseChanged(dbc, purchase, &good)
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// UpdatePurchase changes the package, price, supplier or activation of an
// offer. The good of a purchase is fixed once created.
func (s *Service) UpdatePurchase(dbc dbctx.Context, tenantID, purchaseID uint, in PurchaseInput) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.inTx(dbc, "update purchase", func(dbc dbctx.Context, tx *gorm.DB) error {
		var good *models.Good
		var err error
		purchase, good, err = loadPurchase(tx, tenantID, purchaseID)
		if err != nil {
			return err
		}
		if in.GoodID != 0 && in.GoodID != purchase.GoodID {
			return validationError("the good of a purchase cannot be changed")
		}
		if in.SupplierID != 0 && in.SupplierID != purchase.SupplierID {
			var supplier models.Supplier
			if err := owned(tx, tenantID, in.SupplierID, &supplier, "supplier"); err != nil {
				return err
			}
			purchase.SupplierID = supplier.ID
		}

		if err := applyPurchaseInput(purchase, in, good); err != nil {
			return err
		}
		if err := tx.Omit("Good", "Supplier").Save(purchase).Error; err != nil {
			return fmt.Errorf("save purchase %d: %w", purchase.ID, err)
		}
		_, err = s.dispatcher.OnPurchaseChanged(dbc, purchase, good)
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// DeletePurchase removes an offer and refreshes the good it priced.
func (s *Service) DeletePurchase(dbc dbctx.Context, tenantID, purchaseID uint) error {
	return s.inTx(dbc, "delete purchase", func(dbc dbctx.Context, tx *gorm.DB) error {
		purchase, good, err := loadPurchase(tx, tenantID, purchaseID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Purchase{}, purchase.ID).Error; err != nil {
			return fmt.Errorf("delete purchase %d: %w", purchase.ID, err)
		}
		_, err = s.dispatcher.OnPurchaseChanged(dbc, purchase, good)
		return err
	})
}

// TogglePurchase flips the activation flag of an offer.
func (s *Service) TogglePurchase(dbc dbctx.Context, tenantID, purchaseID uint) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.inTx(dbc, "toggle purchase", func(dbc dbctx.Context, tx *gorm.DB) error {
		var good *models.Good
		var err error
		purchase, good, err = loadPurchase(tx, tenantID, purchaseID)
		if err != nil {
			return err
		}
		purchase.Active = !purchase.Active
		if err := tx.Model(&models.Purchase{}).Where("id = ?", purchase.ID).Update("active", purchase.Active).Error; err != nil {
			return fmt.Errorf("toggle purchase %d: %w", purchase.ID, err)
		}
		_, err = s.dispatcher.OnPurchaseChanged(dbc, purchase, good)
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListPurchases returns the offers for one good, or for every good of the
// tenant when goodID is zero.
func (s *Service) ListPurchases(dbc dbctx.Context, tenantID, goodID uint) ([]models.Purchase, error) {
	query := dbc.Conn(s.db).
		Joins("JOIN goods ON goods.id = purchases.good_id").
		Where("goods.tenant_id = ?", tenantID).
		Order("purchases.good_id asc, purchases.id asc")
	if goodID != 0 {
		query = query.Where("purchases.good_id = ?", goodID)
	}
	var purchases []models.Purchase
	if err := query.Find(&purchases).Error; err != nil {
		return nil, mapError("list purchases", err)
	}
	return purchases, nil
}

// loadPurchase returns the purchase and its good, hiding purchases of other
// tenants behind ErrNotFound.
func loadPurchase(tx *gorm.DB, tenantID, purchaseID uint) (*models.Purchase, *models.Good, error) {
	var purchase models.Purchase
	if err := tx.First(&purchase, purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("purchase", purchaseID)
		}
		return nil, nil, fmt.Errorf("load purchase %d: %w", purchaseID, err)
	}
	var good models.Good
	if err := owned(tx, tenantID, purchase.GoodID, &good, "good"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, notFound("purchase", purchaseID)
		}
		return nil, nil, err
	}
	return &purchase, &good, nil
}

func applyPurchaseInput(purchase *models.Purchase, in PurchaseInput, good *models.Good) error {
	unit := models.NormalizeUnit(in.PackageUnit)
	if unit == "" {
		unit = models.UnitKilogram
	}
	purchase.PackageQuantity = in.PackageQuantity
	purchase.PackageUnit = unit
	purchase.PackagePrice = in.PackagePrice
	if in.Active != nil {
		purchase.Active = *in.Active
	}
	if err := purchase.Validate(); err != nil {
		return err
	}
	if unit == models.UnitPiece {
		if _, ok := good.UnitWeight(); !ok {
			return validationError("package_unit piece needs a good with a unit weight")
		}
	}
	costing.NormalizePurchase(purchase, good)
	return nil
}
