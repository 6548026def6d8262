package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/models"
)

// GoodInput carries the editable attributes of a good.
type GoodInput struct {
	Name         string              `json:"name"`
	BaseUnit     string              `json:"base_unit"`
	UnitWeightKg decimal.NullDecimal `json:"unit_weight_kg"`
}

// CreateGood stores a good with a zero average price.
func (s *Service) CreateGood(dbc dbctx.Context, tenantID uint, in GoodInput) (*models.Good, error) {
	good := &models.Good{TenantID: tenantID}
	err := s.inTx(dbc, "create good", func(dbc dbctx.Context, tx *gorm.DB) error {
		applyGoodInput(good, in)
		if err := good.Validate(); err != nil {
			return err
		}
		if err := tx.Omit("Purchases").Create(good).Error; err != nil {
			return fmt.Errorf("insert good: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return good, nil
}

// UpdateGood saves new attributes. A change of base unit or unit weight
// alters the mass of piece purchases, so every purchase is renormalized.
func (s *Service) UpdateGood(dbc dbctx.Context, tenantID, goodID uint, in GoodInput) (*models.Good, error) {
	var good models.Good
	err := s.inTx(dbc, "update good", func(dbc dbctx.Context, tx *gorm.DB) error {
		if err := owned(tx, tenantID, goodID, &good, "good"); err != nil {
			return err
		}
		before := good

		applyGoodInput(&good, in)
		if err := good.Validate(); err != nil {
			return err
		}
		if _, ok := good.UnitWeight(); !ok {
			if err := checkNoPiecePurchases(tx, good.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(&good).Select("Name", "BaseUnit", "UnitWeightKg").Updates(&good).Error; err != nil {
			return fmt.Errorf("save good %d: %w", good.ID, err)
		}
		if before.BaseUnit == good.BaseUnit && sameNullDecimal(before.UnitWeightKg, good.UnitWeightKg) {
			return nil
		}
		_, err := s.dispatcher.FullGoodRecalculation(dbc, &good)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &good, nil
}

// DeleteGood removes a good and its purchases. Goods still used by a recipe
// cannot be removed.
func (s *Service) DeleteGood(dbc dbctx.Context, tenantID, goodID uint) error {
	return s.inTx(dbc, "delete good", func(dbc dbctx.Context, tx *gorm.DB) error {
		var good models.Good
		if err := owned(tx, tenantID, goodID, &good, "good"); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Component{}).
			Where("component_type = ? AND component_id = ?", models.ComponentGood, good.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check usage of good %d: %w", good.ID, err)
		}
		if count > 0 {
			return inUse(fmt.Sprintf("good is used by %d recipe line(s)", count))
		}
		if err := tx.Where("good_id = ?", good.ID).Delete(&models.Purchase{}).Error; err != nil {
			return fmt.Errorf("delete purchases of good %d: %w", good.ID, err)
		}
		if err := tx.Delete(&models.Good{}, good.ID).Error; err != nil {
			return fmt.Errorf("delete good %d: %w", good.ID, err)
		}
		return nil
	})
}

// FindGoodByName looks a good up by its exact name within the tenant.
func (s *Service) FindGoodByName(dbc dbctx.Context, tenantID uint, name string) (*models.Good, error) {
	var good models.Good
	err := dbc.Conn(s.db).Where("tenant_id = ? AND name = ?", tenantID, strings.TrimSpace(name)).First(&good).Error
	if err != nil {
		return nil, mapError("find good", err)
	}
	return &good, nil
}

// checkNoPiecePurchases refuses to drop the unit weight of a good whose
// purchases are still counted in pieces.
func checkNoPiecePurchases(tx *gorm.DB, goodID uint) error {
	var count int64
	if err := tx.Model(&models.Purchase{}).
		Where("good_id = ? AND package_unit = ?", goodID, models.UnitPiece).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count piece purchases of good %d: %w", goodID, err)
	}
	if count > 0 {
		return inUse(fmt.Sprintf("good has %d purchase(s) counted in pieces", count))
	}
	return nil
}

func applyGoodInput(good *models.Good, in GoodInput) {
	good.Name = strings.TrimSpace(in.Name)
	good.BaseUnit = models.NormalizeUnit(in.BaseUnit)
	good.UnitWeightKg = in.UnitWeightKg
}

func sameNullDecimal(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// RecalculateGood renormalizes every purchase of a good and runs the
// purchase change cascade.
func (s *Service) RecalculateGood(dbc dbctx.Context, tenantID, goodID uint) (*models.Good, error) {
	var good models.Good
	err := s.inTx(dbc, "recalculate good", func(dbc dbctx.Context, tx *gorm.DB) error {
		if err := owned(tx, tenantID, goodID, &good, "good"); err != nil {
			return err
		}
		if _, err := s.dispatcher.FullGoodRecalculation(dbc, &good); err != nil {
			return err
		}
		return tx.First(&good, good.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &good, nil
}
