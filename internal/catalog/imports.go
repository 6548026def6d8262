package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/models"
)

// Offer is one line of a supplier price list.
type Offer struct {
	GoodName string
	Quantity decimal.Decimal
	Unit     string
	Price    decimal.Decimal
}

// ImportOutcome tells what ImportOffer did with a line.
type ImportOutcome string

const (
	OfferCreated ImportOutcome = "created"
	OfferUpdated ImportOutcome = "updated"
)

// ImportOffer records an offer from supplierID. Unknown goods are created
// with a base unit guessed from the offer unit; an existing purchase of the
// same good from the same supplier is updated in place.
func (s *Service) ImportOffer(dbc dbctx.Context, tenantID, supplierID uint, offer Offer) (ImportOutcome, error) {
	name := strings.TrimSpace(offer.GoodName)
	if name == "" {
		return "", validationError("good name is required")
	}

	var outcome ImportOutcome
	err := s.inTx(dbc, "import offer", func(dbc dbctx.Context, tx *gorm.DB) error {
		good, err := s.FindGoodByName(dbc, tenantID, name)
		switch {
		case errors.Is(err, ErrNotFound):
			base, ok := baseUnitFor(offer.Unit)
			if !ok {
				return validationError(fmt.Sprintf("good %q does not exist and cannot be created from unit %q", name, offer.Unit))
			}
			good, err = s.CreateGood(dbc, tenantID, GoodInput{Name: name, BaseUnit: string(base)})
			if err != nil {
				return err
			}
		case err != nil:
			return err
		}

		input := PurchaseInput{
			GoodID:          good.ID,
			SupplierID:      supplierID,
			PackageQuantity: offer.Quantity,
			PackageUnit:     offer.Unit,
			PackagePrice:    offer.Price,
		}

		var existing models.Purchase
		if err := tx.Where("good_id = ? AND supplier_id = ?", good.ID, supplierID).Order("id asc").Limit(1).Find(&existing).Error; err != nil {
			return fmt.Errorf("find purchase: %w", err)
		}
		if existing.ID == 0 {
			_, err = s.CreatePurchase(dbc, tenantID, input)
			outcome = OfferCreated
			return err
		}
		_, err = s.UpdatePurchase(dbc, tenantID, existing.ID, input)
		outcome = OfferUpdated
		return err
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// baseUnitFor maps a package unit to the base unit of a new good. Pieces
// need a unit weight, which a price list does not carry.
func baseUnitFor(unit string) (models.Unit, bool) {
	switch models.NormalizeUnit(unit) {
	case models.UnitKilogram, models.UnitGram, "":
		return models.UnitKilogram, true
	case models.UnitLiter, models.UnitCentiliter, models.UnitMilliliter:
		return models.UnitLiter, true
	default:
		return "", false
	}
}
