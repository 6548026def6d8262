package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fourneau/internal/catalog"
	"fourneau/internal/db"
	"fourneau/internal/dbctx"
	applog "fourneau/internal/log"
	"fourneau/models"
)

// DemoEmail and DemoPassword sign in to the seeded kitchen.
const (
	DemoEmail    = "chef@fourneau.app"
	DemoPassword = "fourneau"
)

// New returns an in-memory sqlite database seeded with a demo kitchen whose
// cached costs have been computed by the engine.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:fourneau-mock-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

type seeder struct {
	dbc     dbctx.Context
	service *catalog.Service
	tenant  uint
	err     error
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	tenant := &models.Tenant{
		Name:              "Maison Fourneau",
		Email:             DemoEmail,
		PasswordHash:      string(password),
		MarkupCoefficient: decimal.NewNullDecimal(decimal.RequireFromString("2.5")),
	}
	if err := database.WithContext(ctx).Create(tenant).Error; err != nil {
		return err
	}

	s := &seeder{dbc: dbctx.New(ctx), service: catalog.NewService(database), tenant: tenant.ID}

	metro := s.supplier("Metro")
	halles := s.supplier("Halles Primeur")

	butter := s.good("Butter", "kg", "")
	shallots := s.good("Shallots", "kg", "")
	wine := s.good("White wine", "l", "")
	cream := s.good("Cream", "l", "")
	salmon := s.good("Salmon fillet", "kg", "")
	eggs := s.good("Eggs", "piece", "0.06")

	s.purchase(butter, metro, "250", "g", "2.40", true)
	s.purchase(butter, halles, "1", "kg", "8.50", true)
	s.purchase(shallots, halles, "5", "kg", "12.00", true)
	s.purchase(wine, metro, "75", "cl", "6.90", true)
	s.purchase(cream, metro, "1", "l", "4.20", true)
	s.purchase(salmon, halles, "1", "kg", "24.00", true)
	s.purchase(salmon, metro, "2", "kg", "39.00", false)
	s.purchase(eggs, halles, "30", "piece", "7.50", true)

	individual := s.tray("Individual", "0.35")
	s.tray("Platter", "2.50")

	sauce := s.recipe(catalog.RecipeInput{
		Name:                  "Beurre blanc",
		Description:           "Reduced shallots and white wine mounted with butter.",
		CookingLossPercentage: decimal.NewNullDecimal(decimal.RequireFromString("15")),
		SellableAsComponent:   true,
	})
	s.component(sauce, models.ComponentGood, butter, "250", "g")
	s.component(sauce, models.ComponentGood, shallots, "80", "g")
	s.component(sauce, models.ComponentGood, wine, "20", "cl")
	s.component(sauce, models.ComponentGood, cream, "10", "cl")

	plate := s.recipe(catalog.RecipeInput{
		Name:                  "Salmon with beurre blanc",
		CookingLossPercentage: decimal.NewNullDecimal(decimal.RequireFromString("20")),
		HasTray:               true,
		TraySizeID:            &individual,
	})
	s.component(plate, models.ComponentGood, salmon, "180", "g")
	s.component(plate, models.ComponentRecipe, sauce, "50", "g")

	omelette := s.recipe(catalog.RecipeInput{Name: "Omelette"})
	s.component(omelette, models.ComponentGood, eggs, "3", "piece")
	s.component(omelette, models.ComponentGood, butter, "10", "g")

	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1)
	s.dailySpecial("meat", today, "Pork tenderloin", "12.50")
	s.dailySpecial("fish", today, "Cod loin", "18.00")
	s.dailySpecial("side", today, "Ratatouille", "4.50")
	s.dailySpecial("meat", yesterday, "Flank steak", "15.80")
	s.dailySpecial("fish", yesterday, "Grilled salmon steak", "21.50")
	s.dailySpecial("side", yesterday, "Zucchini gratin", "3.80")

	if s.err != nil {
		return s.err
	}

	if _, err := s.service.Dispatcher().RecalculateTenant(s.dbc, tenant.ID); err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded", "tenant_id", tenant.ID)
	return nil
}

func (s *seeder) supplier(name string) uint {
	if s.err != nil {
		return 0
	}
	supplier, err := s.service.CreateSupplier(s.dbc, s.tenant, name)
	if err != nil {
		s.err = fmt.Errorf("seed supplier %s: %w", name, err)
		return 0
	}
	return supplier.ID
}

func (s *seeder) good(name, unit, weight string) uint {
	if s.err != nil {
		return 0
	}
	in := catalog.GoodInput{Name: name, BaseUnit: unit}
	if weight != "" {
		in.UnitWeightKg = decimal.NewNullDecimal(decimal.RequireFromString(weight))
	}
	good, err := s.service.CreateGood(s.dbc, s.tenant, in)
	if err != nil {
		s.err = fmt.Errorf("seed good %s: %w", name, err)
		return 0
	}
	return good.ID
}

func (s *seeder) purchase(goodID, supplierID uint, quantity, unit, price string, active bool) {
	if s.err != nil {
		return
	}
	_, err := s.service.CreatePurchase(s.dbc, s.tenant, catalog.PurchaseInput{
		GoodID:          goodID,
		SupplierID:      supplierID,
		PackageQuantity: decimal.RequireFromString(quantity),
		PackageUnit:     unit,
		PackagePrice:    decimal.RequireFromString(price),
		Active:          &active,
	})
	if err != nil {
		s.err = fmt.Errorf("seed purchase of good %d: %w", goodID, err)
	}
}

func (s *seeder) tray(name, price string) uint {
	if s.err != nil {
		return 0
	}
	tray, err := s.service.CreateTraySize(s.dbc, s.tenant, name, decimal.RequireFromString(price))
	if err != nil {
		s.err = fmt.Errorf("seed tray %s: %w", name, err)
		return 0
	}
	return tray.ID
}

func (s *seeder) recipe(in catalog.RecipeInput) uint {
	if s.err != nil {
		return 0
	}
	recipe, err := s.service.CreateRecipe(s.dbc, s.tenant, in)
	if err != nil {
		s.err = fmt.Errorf("seed recipe %s: %w", in.Name, err)
		return 0
	}
	return recipe.ID
}

func (s *seeder) component(recipeID uint, kind models.ComponentType, targetID uint, quantity, unit string) {
	if s.err != nil {
		return
	}
	_, err := s.service.AddComponent(s.dbc, s.tenant, catalog.ComponentInput{
		RecipeID: recipeID,
		Type:     kind,
		TargetID: targetID,
		Quantity: decimal.RequireFromString(quantity),
		Unit:     unit,
	})
	if err != nil {
		s.err = fmt.Errorf("seed component of recipe %d: %w", recipeID, err)
	}
}

func (s *seeder) dailySpecial(category string, day time.Time, name, cost string) {
	if s.err != nil {
		return
	}
	_, err := s.service.CreateDailySpecial(s.dbc, s.tenant, catalog.DailySpecialInput{
		Category:  category,
		EntryDate: day.Format("2006-01-02"),
		ItemName:  name,
		CostPerKg: decimal.RequireFromString(cost),
	})
	if err != nil {
		s.err = fmt.Errorf("seed daily special %s: %w", name, err)
	}
}
