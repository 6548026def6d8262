package recalc

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/dbctx"
	"fourneau/internal/testutil"
	"fourneau/models"
)

func background() dbctx.Context {
	return dbctx.New(context.Background())
}

type kitchen struct {
	db       *gorm.DB
	tenant   *models.Tenant
	metro    *models.Supplier
	butter   *models.Good
	purchase *models.Purchase
	sauce    *models.Recipe
	fish     *models.Recipe
	platter  *models.Recipe
}

// newKitchen builds butter → beurre blanc (reusable) → sole meunière, plus a
// platter forced on top of the sole to exercise the one hop cap.
func newKitchen(t *testing.T) kitchen {
	t.Helper()

	database := testutil.OpenDB(t)
	tenant := testutil.SeedTenant(t, database)
	metro := testutil.SeedSupplier(t, database, tenant.ID, "Metro")
	butter := testutil.SeedGood(t, database, tenant.ID, "Butter", testutil.WithAvgPrice("10"))
	purchase := testutil.SeedPurchase(t, database, butter, metro, "1", "10")

	sauce := testutil.SeedRecipe(t, database, tenant.ID, "Beurre blanc", testutil.Sellable, testutil.WithCostPerKg("10"))
	testutil.SeedComponent(t, database, sauce, models.ComponentGood, butter.ID, "1")

	fish := testutil.SeedRecipe(t, database, tenant.ID, "Sole meuniere", testutil.Sellable, testutil.WithCostPerKg("10"))
	testutil.SeedComponent(t, database, fish, models.ComponentRecipe, sauce.ID, "1")

	platter := testutil.SeedRecipe(t, database, tenant.ID, "Platter", testutil.WithCostPerKg("10"))
	testutil.SeedComponent(t, database, platter, models.ComponentRecipe, fish.ID, "1")

	return kitchen{db: database, tenant: tenant, metro: metro, butter: butter, purchase: purchase, sauce: sauce, fish: fish, platter: platter}
}

func reprice(t *testing.T, database *gorm.DB, purchase *models.Purchase, pricePerKg string) {
	t.Helper()
	purchase.PackagePrice = purchase.PackageQuantity.Mul(testutil.Dec(pricePerKg))
	purchase.Costs.PricePerKg = testutil.Dec(pricePerKg)
	if err := database.Save(purchase).Error; err != nil {
		t.Fatalf("save purchase: %v", err)
	}
}

func TestOnPurchaseChangedCascadesOneHop(t *testing.T) {
	t.Parallel()

	k := newKitchen(t)
	reprice(t, k.db, k.purchase, "20")

	result, err := NewDispatcher(k.db).OnPurchaseChanged(background(), k.purchase, k.butter)
	if err != nil {
		t.Fatalf("OnPurchaseChanged: %v", err)
	}
	if result.Goods != 1 || result.Recipes != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	testutil.AssertDecimal(t, "butter", testutil.ReloadGood(t, k.db, k.butter.ID).Costs.AvgPricePerKg, "20")
	testutil.AssertNullDecimal(t, "sauce", testutil.ReloadRecipe(t, k.db, k.sauce.ID).Costs.CostPerKg, "20")
	testutil.AssertNullDecimal(t, "fish", testutil.ReloadRecipe(t, k.db, k.fish.ID).Costs.CostPerKg, "20")
	testutil.AssertNullDecimal(t, "platter", testutil.ReloadRecipe(t, k.db, k.platter.ID).Costs.CostPerKg, "10")
}

func TestOnPurchaseChangedResolvesGoodFromPurchase(t *testing.T) {
	t.Parallel()

	k := newKitchen(t)
	reprice(t, k.db, k.purchase, "12")

	if _, err := NewDispatcher(k.db).OnPurchaseChanged(background(), &models.Purchase{GoodID: k.butter.ID}, nil); err != nil {
		t.Fatalf("OnPurchaseChanged: %v", err)
	}
	testutil.AssertDecimal(t, "butter", testutil.ReloadGood(t, k.db, k.butter.ID).Costs.AvgPricePerKg, "12")
}

func TestOnPurchaseChangedWithoutGoodIsNoop(t *testing.T) {
	t.Parallel()

	result, err := NewDispatcher(testutil.OpenDB(t)).OnPurchaseChanged(background(), nil, nil)
	if err != nil || result != (Result{}) {
		t.Fatalf("expected no-op, got %+v, %v", result, err)
	}
}

func TestNonReusableRecipeDoesNotPropagate(t *testing.T) {
	t.Parallel()

	database := testutil.OpenDB(t)
	tenant := testutil.SeedTenant(t, database)
	supplier := testutil.SeedSupplier(t, database, tenant.ID, "Metro")
	cream := testutil.SeedGood(t, database, tenant.ID, "Cream")
	purchase := testutil.SeedPurchase(t, database, cream, supplier, "1", "4")
	private := testutil.SeedRecipe(t, database, tenant.ID, "Chantilly")
	testutil.SeedComponent(t, database, private, models.ComponentGood, cream.ID, "1")
	// Composition checks would refuse this line; it proves the flag gates propagation.
	parent := testutil.SeedRecipe(t, database, tenant.ID, "Pavlova", testutil.WithCostPerKg("1"))
	testutil.SeedComponent(t, database, parent, models.ComponentRecipe, private.ID, "1")

	if _, err := NewDispatcher(database).OnPurchaseChanged(background(), purchase, cream); err != nil {
		t.Fatalf("OnPurchaseChanged: %v", err)
	}

	testutil.AssertNullDecimal(t, "chantilly", testutil.ReloadRecipe(t, database, private.ID).Costs.CostPerKg, "4")
	testutil.AssertNullDecimal(t, "pavlova", testutil.ReloadRecipe(t, database, parent.ID).Costs.CostPerKg, "1")
}

func TestActivationToggleChangesAverage(t *testing.T) {
	t.Parallel()

	database := testutil.OpenDB(t)
	tenant := testutil.SeedTenant(t, database)
	first := testutil.SeedSupplier(t, database, tenant.ID, "Metro")
	second := testutil.SeedSupplier(t, database, tenant.ID, "Transgourmet")
	oil := testutil.SeedGood(t, database, tenant.ID, "Olive oil")
	testutil.SeedPurchase(t, database, oil, first, "10", "2")
	expensive := testutil.SeedPurchase(t, database, oil, second, "5", "4")
	dispatcher := NewDispatcher(database)

	steps := []struct {
		active bool
		want   string
	}{
		{true, "2.6667"},
		{false, "2"},
		{true, "2.6667"},
	}
	for _, step := range steps {
		if err := database.Model(&models.Purchase{}).Where("id = ?", expensive.ID).UpdateColumn("active", step.active).Error; err != nil {
			t.Fatalf("toggle purchase: %v", err)
		}
		if _, err := dispatcher.OnPurchaseChanged(background(), expensive, oil); err != nil {
			t.Fatalf("OnPurchaseChanged: %v", err)
		}
		testutil.AssertDecimal(t, "average", testutil.ReloadGood(t, database, oil.ID).Costs.AvgPricePerKg, step.want)
	}
}

func TestOnComponentChanged(t *testing.T) {
	t.Parallel()

	k := newKitchen(t)
	shallot := testutil.SeedGood(t, k.db, k.tenant.ID, "Shallot", testutil.WithAvgPrice("4"))
	testutil.SeedComponent(t, k.db, k.sauce, models.ComponentGood, shallot.ID, "1")

	result, err := NewDispatcher(k.db).OnComponentChanged(background(), k.sauce)
	if err != nil {
		t.Fatalf("OnComponentChanged: %v", err)
	}
	if result.Recipes != 2 {
		t.Fatalf("expected sauce and fish to be recalculated, got %+v", result)
	}

	testutil.AssertNullDecimal(t, "sauce in memory", k.sauce.Costs.CostPerKg, "7")
	testutil.AssertNullDecimal(t, "sauce", testutil.ReloadRecipe(t, k.db, k.sauce.ID).Costs.TotalCost, "14")
	testutil.AssertNullDecimal(t, "fish", testutil.ReloadRecipe(t, k.db, k.fish.ID).Costs.CostPerKg, "7")
	testutil.AssertNullDecimal(t, "platter", testutil.ReloadRecipe(t, k.db, k.platter.ID).Costs.CostPerKg, "10")
}

func TestOnRecipeAttributesChanged(t *testing.T) {
	t.Parallel()

	k := newKitchen(t)
	loss := decimal.NewNullDecimal(testutil.Dec("50"))
	if err := k.db.Model(k.sauce).Update("cooking_loss_percentage", loss).Error; err != nil {
		t.Fatalf("update loss: %v", err)
	}

	if _, err := NewDispatcher(k.db).OnRecipeAttributesChanged(background(), k.sauce); err != nil {
		t.Fatalf("OnRecipeAttributesChanged: %v", err)
	}

	stored := testutil.ReloadRecipe(t, k.db, k.sauce.ID)
	testutil.AssertNullDecimal(t, "total_weight", stored.Costs.TotalWeight, "0.5")
	testutil.AssertNullDecimal(t, "cost_per_kg", stored.Costs.CostPerKg, "20")
	testutil.AssertNullDecimal(t, "fish", testutil.ReloadRecipe(t, k.db, k.fish.ID).Costs.CostPerKg, "20")
}

func TestCostAttributesChanged(t *testing.T) {
	t.Parallel()

	one, two := uint(1), uint(2)
	base := models.Recipe{Name: "Soup", CookingLossPercentage: decimal.NewNullDecimal(testutil.Dec("10"))}

	cases := []struct {
		name   string
		modify func(*models.Recipe)
		want   bool
	}{
		{"unchanged", func(*models.Recipe) {}, false},
		{"name", func(r *models.Recipe) { r.Name = "Velouté" }, false},
		{"description", func(r *models.Recipe) { r.Description = "silky" }, false},
		{"same loss other scale", func(r *models.Recipe) { r.CookingLossPercentage = decimal.NewNullDecimal(testutil.Dec("10.00")) }, false},
		{"loss", func(r *models.Recipe) { r.CookingLossPercentage = decimal.NewNullDecimal(testutil.Dec("12")) }, true},
		{"loss cleared", func(r *models.Recipe) { r.CookingLossPercentage = decimal.NullDecimal{} }, true},
		{"tray flag", func(r *models.Recipe) { r.HasTray = true }, true},
		{"tray set", func(r *models.Recipe) { r.TraySizeID = &one }, true},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			before := base
			after := base
			tt.modify(&after)
			if got := CostAttributesChanged(&before, &after); got != tt.want {
				t.Fatalf("CostAttributesChanged = %v, want %v", got, tt.want)
			}
		})
	}

	withTray := base
	withTray.TraySizeID = &one
	otherTray := base
	otherTray.TraySizeID = &two
	if !CostAttributesChanged(&withTray, &otherTray) {
		t.Fatalf("expected a tray swap to count as a change")
	}
}

func TestOnSupplierForceRemoved(t *testing.T) {
	t.Parallel()

	database := testutil.OpenDB(t)
	tenant := testutil.SeedTenant(t, database)
	leaving := testutil.SeedSupplier(t, database, tenant.ID, "Closing down")
	staying := testutil.SeedSupplier(t, database, tenant.ID, "Metro")
	flour := testutil.SeedGood(t, database, tenant.ID, "Flour", testutil.WithAvgPrice("1.5"))
	sugar := testutil.SeedGood(t, database, tenant.ID, "Sugar", testutil.WithAvgPrice("3"))
	testutil.SeedPurchase(t, database, flour, leaving, "10", "2")
	testutil.SeedPurchase(t, database, flour, staying, "10", "1")
	testutil.SeedPurchase(t, database, sugar, leaving, "1", "3")
	cake := testutil.SeedRecipe(t, database, tenant.ID, "Sponge")
	testutil.SeedComponent(t, database, cake, models.ComponentGood, flour.ID, "1")
	testutil.SeedComponent(t, database, cake, models.ComponentGood, sugar.ID, "1")

	if err := database.Where("supplier_id = ?", leaving.ID).Delete(&models.Purchase{}).Error; err != nil {
		t.Fatalf("delete purchases: %v", err)
	}

	result, err := NewDispatcher(database).OnSupplierForceRemoved(background(), []uint{sugar.ID, flour.ID, flour.ID})
	if err != nil {
		t.Fatalf("OnSupplierForceRemoved: %v", err)
	}
	if result.Goods != 2 {
		t.Fatalf("expected two goods, got %+v", result)
	}

	testutil.AssertDecimal(t, "flour", testutil.ReloadGood(t, database, flour.ID).Costs.AvgPricePerKg, "1")
	testutil.AssertDecimal(t, "sugar", testutil.ReloadGood(t, database, sugar.ID).Costs.AvgPricePerKg, "0")
	testutil.AssertNullDecimal(t, "sponge", testutil.ReloadRecipe(t, database, cake.ID).Costs.TotalCost, "1")
}

func TestDispatchRollsBackWithCallerTransaction(t *testing.T) {
	t.Parallel()

	k := newKitchen(t)
	errAbort := errors.New("abort")

	err := k.db.Transaction(func(tx *gorm.DB) error {
		reprice(t, tx, k.purchase, "30")
		dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
		if _, err := NewDispatcher(k.db).OnPurchaseChanged(dbc, k.purchase, k.butter); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected abort, got %v", err)
	}

	testutil.AssertDecimal(t, "butter", testutil.ReloadGood(t, k.db, k.butter.ID).Costs.AvgPricePerKg, "10")
	testutil.AssertNullDecimal(t, "sauce", testutil.ReloadRecipe(t, k.db, k.sauce.ID).Costs.CostPerKg, "10")
}

func TestFullGoodRecalculationRenormalizesPurchases(t *testing.T) {
	t.Parallel()

	database := testutil.OpenDB(t)
	tenant := testutil.SeedTenant(t, database)
	supplier := testutil.SeedSupplier(t, database, tenant.ID, "Metro")
	egg := testutil.SeedGood(t, database, tenant.ID, "Egg", func(g *models.Good) {
		g.BaseUnit = models.UnitPiece
		g.UnitWeightKg = decimal.NewNullDecimal(testutil.Dec("0.05"))
	})
	stale := testutil.SeedPurchase(t, database, egg, supplier, "1", "1", func(p *models.Purchase) {
		p.PackageQuantity = testutil.Dec("30")
		p.PackageUnit = models.UnitPiece
		p.PackagePrice = testutil.Dec("6")
	})
	omelette := testutil.SeedRecipe(t, database, tenant.ID, "Omelette")
	testutil.SeedComponent(t, database, omelette, models.ComponentGood, egg.ID, "0.15")

	if _, err := NewDispatcher(database).FullGoodRecalculation(background(), egg); err != nil {
		t.Fatalf("FullGoodRecalculation: %v", err)
	}

	stored := testutil.ReloadPurchase(t, database, stale.ID)
	testutil.AssertDecimal(t, "quantity_kg", stored.Costs.QuantityKg, "1.5")
	testutil.AssertDecimal(t, "price_per_kg", stored.Costs.PricePerKg, "4")
	testutil.AssertDecimal(t, "egg", testutil.ReloadGood(t, database, egg.ID).Costs.AvgPricePerKg, "4")
	testutil.AssertNullDecimal(t, "omelette", testutil.ReloadRecipe(t, database, omelette.ID).Costs.TotalCost, "0.6")
}
