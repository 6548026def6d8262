package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/models"
)

// SettingsInput carries the tenant level settings.
type SettingsInput struct {
	Name              string              `json:"name"`
	MarkupCoefficient decimal.NullDecimal `json:"markup_coefficient"`
}

// Tenant loads a tenant by id.
func (s *Service) Tenant(dbc dbctx.Context, tenantID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := dbc.Conn(s.db).First(&tenant, tenantID).Error; err != nil {
		return nil, mapError("load tenant", err)
	}
	return &tenant, nil
}

// UpdateSettings saves the tenant name and markup. The markup only feeds the
// suggested selling price, which is never cached, so nothing is recalculated.
func (s *Service) UpdateSettings(dbc dbctx.Context, tenantID uint, in SettingsInput) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.inTx(dbc, "update settings", func(dbc dbctx.Context, tx *gorm.DB) error {
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			return err
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			tenant.Name = name
		}
		tenant.MarkupCoefficient = in.MarkupCoefficient
		if err := tenant.Validate(); err != nil {
			return err
		}
		if err := tx.Model(&tenant).Select("Name", "MarkupCoefficient").Updates(&tenant).Error; err != nil {
			return fmt.Errorf("save tenant %d: %w", tenant.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
