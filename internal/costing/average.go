package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/models"
)

// AveragePricePlaces is the precision of the cached average price.
const AveragePricePlaces = 4

// WeightedAverage returns Σ(quantityKg × pricePerKg) / Σ quantityKg over the
// active purchases, rounded to AveragePricePlaces. It is zero when no active
// purchase carries any mass.
func WeightedAverage(purchases []models.Purchase) decimal.Decimal {
	weighted := decimal.Zero
	totalKg := decimal.Zero
	for _, purchase := range purchases {
		if !purchase.Active {
			continue
		}
		weighted = weighted.Add(purchase.Costs.QuantityKg.Mul(purchase.Costs.PricePerKg))
		totalKg = totalKg.Add(purchase.Costs.QuantityKg)
	}
	if !totalKg.IsPositive() {
		return decimal.Zero
	}
	return weighted.Div(totalKg).Round(AveragePricePlaces)
}

// RecalculateAveragePrice recomputes the average price of good from its active
// purchases and writes it straight to the column, skipping hooks and
// validation. good is updated in memory as well.
func RecalculateAveragePrice(tx *gorm.DB, good *models.Good) error {
	if good == nil {
		return nil
	}

	var purchases []models.Purchase
	if err := tx.Where("good_id = ? AND active = ?", good.ID, true).Find(&purchases).Error; err != nil {
		return fmt.Errorf("load active purchases of good %d: %w", good.ID, err)
	}

	average := WeightedAverage(purchases)
	if err := tx.Model(&models.Good{}).Where("id = ?", good.ID).UpdateColumn("avg_price_per_kg", average).Error; err != nil {
		return fmt.Errorf("store average price of good %d: %w", good.ID, err)
	}
	good.Costs.AvgPricePerKg = average
	return nil
}
