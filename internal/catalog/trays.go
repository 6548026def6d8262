package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/models"
)

// CreateTraySize stores a tray a recipe can be sold in.
func (s *Service) CreateTraySize(dbc dbctx.Context, tenantID uint, name string, price decimal.Decimal) (*models.TraySize, error) {
	tray := &models.TraySize{TenantID: tenantID, Name: strings.TrimSpace(name), Price: price}
	if err := tray.Validate(); err != nil {
		return nil, mapError("create tray size", err)
	}
	if err := dbc.Conn(s.db).Create(tray).Error; err != nil {
		return nil, mapError("create tray size", err)
	}
	return tray, nil
}

// UpdateTraySize renames or reprices a tray. Selling prices are derived on
// read, so nothing is recalculated.
func (s *Service) UpdateTraySize(dbc dbctx.Context, tenantID, trayID uint, name string, price decimal.Decimal) (*models.TraySize, error) {
	var tray models.TraySize
	err := s.inTx(dbc, "update tray size", func(dbc dbctx.Context, tx *gorm.DB) error {
		if err := owned(tx, tenantID, trayID, &tray, "tray size"); err != nil {
			return err
		}
		tray.Name = strings.TrimSpace(name)
		tray.Price = price
		if err := tray.Validate(); err != nil {
			return err
		}
		if err := tx.Model(&tray).Select("Name", "Price").Updates(&tray).Error; err != nil {
			return fmt.Errorf("save tray %d: %w", tray.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tray, nil
}

// DeleteTraySize removes a tray. Recipes sold in it lose their tray and are
// recalculated.
func (s *Service) DeleteTraySize(dbc dbctx.Context, tenantID, trayID uint) error {
	return s.inTx(dbc, "delete tray size", func(dbc dbctx.Context, tx *gorm.DB) error {
		var tray models.TraySize
		if err := owned(tx, tenantID, trayID, &tray, "tray size"); err != nil {
			return err
		}
		var recipes []models.Recipe
		if err := tx.Where("tray_size_id = ?", tray.ID).Order("id asc").Find(&recipes).Error; err != nil {
			return fmt.Errorf("find recipes using tray %d: %w", tray.ID, err)
		}
		if err := tx.Model(&models.Recipe{}).Where("tray_size_id = ?", tray.ID).
			Updates(map[string]any{"has_tray": false, "tray_size_id": nil}).Error; err != nil {
			return fmt.Errorf("detach tray %d: %w", tray.ID, err)
		}
		if err := tx.Delete(&models.TraySize{}, tray.ID).Error; err != nil {
			return fmt.Errorf("delete tray %d: %w", tray.ID, err)
		}
		for i := range recipes {
			if _, err := s.dispatcher.OnRecipeAttributesChanged(dbc, &recipes[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
