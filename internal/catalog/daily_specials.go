package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/models"
)

// entryDateLayout is the format accepted for daily special dates.
const entryDateLayout = "2006-01-02"

// DailySpecialInput carries the editable attributes of a daily special.
type DailySpecialInput struct {
	Category  string          `json:"category"`
	EntryDate string          `json:"entry_date"`
	ItemName  string          `json:"item_name"`
	CostPerKg decimal.Decimal `json:"cost_per_kg"`
}

// DailySpecialAverages holds the mean cost per kilogram of each category,
// rounded to cents. A category without entries averages to zero.
type DailySpecialAverages struct {
	Meat decimal.Decimal `json:"meat"`
	Fish decimal.Decimal `json:"fish"`
	Side decimal.Decimal `json:"side"`
}

// For returns the average of one category.
func (a DailySpecialAverages) For(category models.DailySpecialCategory) decimal.Decimal {
	switch category {
	case models.CategoryMeat:
		return a.Meat
	case models.CategoryFish:
		return a.Fish
	case models.CategorySide:
		return a.Side
	}
	return decimal.Zero
}

func (s *Service) CreateDailySpecial(dbc dbctx.Context, tenantID uint, in DailySpecialInput) (*models.DailySpecial, error) {
	special := &models.DailySpecial{TenantID: tenantID}
	if err := applyDailySpecialInput(special, in); err != nil {
		return nil, mapError("create daily special", err)
	}
	if err := dbc.Conn(s.db).Create(special).Error; err != nil {
		return nil, mapError("create daily special", err)
	}
	return special, nil
}

func (s *Service) UpdateDailySpecial(dbc dbctx.Context, tenantID, specialID uint, in DailySpecialInput) (*models.DailySpecial, error) {
	var special models.DailySpecial
	err := s.inTx(dbc, "update daily special", func(dbc dbctx.Context, tx *gorm.DB) error {
		if err := owned(tx, tenantID, specialID, &special, "daily special"); err != nil {
			return err
		}
		if err := applyDailySpecialInput(&special, in); err != nil {
			return err
		}
		if err := tx.Model(&special).Select("Category", "EntryDate", "ItemName", "CostPerKg").Updates(&special).Error; err != nil {
			return fmt.Errorf("save daily special %d: %w", special.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &special, nil
}

func (s *Service) DeleteDailySpecial(dbc dbctx.Context, tenantID, specialID uint) error {
	result := dbc.Conn(s.db).Where("tenant_id = ?", tenantID).Delete(&models.DailySpecial{}, specialID)
	if result.Error != nil {
		return mapError("delete daily special", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("daily special", specialID)
	}
	return nil
}

// ListDailySpecials returns the tenant's entries, newest first. An empty
// category lists every category.
func (s *Service) ListDailySpecials(dbc dbctx.Context, tenantID uint, category string) ([]models.DailySpecial, error) {
	query := dbc.Conn(s.db).Where("tenant_id = ?", tenantID).Order("entry_date desc, id desc")
	if category = strings.TrimSpace(category); category != "" {
		if !models.DailySpecialCategory(category).Valid() {
			return nil, validationError("category must be one of meat, fish, side")
		}
		query = query.Where("category = ?", category)
	}
	var specials []models.DailySpecial
	if err := query.Find(&specials).Error; err != nil {
		return nil, mapError("list daily specials", err)
	}
	return specials, nil
}

// DailySpecialAverages computes the per category averages of the tenant.
func (s *Service) DailySpecialAverages(dbc dbctx.Context, tenantID uint) (DailySpecialAverages, error) {
	var specials []models.DailySpecial
	if err := dbc.Conn(s.db).Select("category", "cost_per_kg").
		Where("tenant_id = ?", tenantID).
		Find(&specials).Error; err != nil {
		return DailySpecialAverages{}, mapError("average daily specials", err)
	}

	sums := make(map[models.DailySpecialCategory]decimal.Decimal, len(models.DailySpecialCategories))
	counts := make(map[models.DailySpecialCategory]int64, len(models.DailySpecialCategories))
	for _, special := range specials {
		sums[special.Category] = sums[special.Category].Add(special.CostPerKg)
		counts[special.Category]++
	}
	average := func(category models.DailySpecialCategory) decimal.Decimal {
		if counts[category] == 0 {
			return decimal.Zero
		}
		return sums[category].Div(decimal.NewFromInt(counts[category])).Round(2)
	}
	return DailySpecialAverages{
		Meat: average(models.CategoryMeat),
		Fish: average(models.CategoryFish),
		Side: average(models.CategorySide),
	}, nil
}

func applyDailySpecialInput(special *models.DailySpecial, in DailySpecialInput) error {
	special.Category = models.DailySpecialCategory(strings.ToLower(strings.TrimSpace(in.Category)))
	special.ItemName = strings.TrimSpace(in.ItemName)
	special.CostPerKg = in.CostPerKg
	special.EntryDate = time.Time{}
	if value := strings.TrimSpace(in.EntryDate); value != "" {
		date, err := time.Parse(entryDateLayout, value)
		if err != nil {
			return validationError("entry_date must be formatted as YYYY-MM-DD")
		}
		special.EntryDate = date
	}
	return special.Validate()
}
