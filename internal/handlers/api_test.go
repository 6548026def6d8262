package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"fourneau/internal/catalog"
	"fourneau/internal/testutil"
	"fourneau/models"
)

type apiFixture struct {
	sm       *scs.SessionManager
	db       *gorm.DB
	tenant   *models.Tenant
	supplier *models.Supplier
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	sm := withTestSessionManager(t)
	db := withTestDatabase(t)
	tenant := testutil.SeedTenant(t, db)
	return apiFixture{
		sm:       sm,
		db:       db,
		tenant:   tenant,
		supplier: testutil.SeedSupplier(t, db, tenant.ID, "Metro"),
	}
}

func (f apiFixture) do(t *testing.T, handler http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = signedIn(t, f.sm, req, f.tenant.ID)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
}

func TestResourcePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		id     uint
		action string
		hasID  bool
		ok     bool
	}{
		{"/app/api/purchases", 0, "", false, true},
		{"/app/api/purchases/", 0, "", false, true},
		{"/app/api/purchases/12", 12, "", true, true},
		{"/app/api/purchases/12/toggle", 12, "toggle", true, true},
		{"/app/api/purchases/abc", 0, "", true, false},
		{"/app/api/purchases/0", 0, "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			id, action, hasID, ok := resourcePath(tt.path, "/app/api/purchases")
			if id != tt.id || action != tt.action || hasID != tt.hasID || ok != tt.ok {
				t.Fatalf("resourcePath(%q) = (%d, %q, %t, %t), want (%d, %q, %t, %t)",
					tt.path, id, action, hasID, ok, tt.id, tt.action, tt.hasID, tt.ok)
			}
		})
	}
}

func TestPurchaseResourceCreateAndToggle(t *testing.T) {
	f := newAPIFixture(t)
	flour := testutil.SeedGood(t, f.db, f.tenant.ID, "Flour")
	bread := testutil.SeedRecipe(t, f.db, f.tenant.ID, "Bread")
	testutil.SeedComponent(t, f.db, bread, models.ComponentGood, flour.ID, "0.5")

	body := `{"good_id":` + itoa(flour.ID) + `,"supplier_id":` + itoa(f.supplier.ID) +
		`,"package_quantity":"500","package_unit":"g","package_price":"1.2"}`
	w := f.do(t, PurchaseResource, http.MethodPost, "/app/api/purchases", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var purchase models.Purchase
	decodeBody(t, w, &purchase)
	testutil.AssertDecimal(t, "price per kg", purchase.Costs.PricePerKg, "2.4")
	testutil.AssertDecimal(t, "avg price", testutil.ReloadGood(t, f.db, flour.ID).Costs.AvgPricePerKg, "2.4")
	testutil.AssertNullDecimal(t, "bread cost", testutil.ReloadRecipe(t, f.db, bread.ID).Costs.TotalCost, "1.2")

	w = f.do(t, PurchaseResource, http.MethodPost, "/app/api/purchases/"+itoa(purchase.ID)+"/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on toggle, got %d: %s", w.Code, w.Body.String())
	}
	testutil.AssertDecimal(t, "avg price after toggle", testutil.ReloadGood(t, f.db, flour.ID).Costs.AvgPricePerKg, "0")

	w = f.do(t, PurchaseResource, http.MethodGet, "/app/api/purchases?good_id="+itoa(flour.ID), "")
	var listed []models.Purchase
	decodeBody(t, w, &listed)
	if w.Code != http.StatusOK || len(listed) != 1 || listed[0].Active {
		t.Fatalf("unexpected listing %d: %s", w.Code, w.Body.String())
	}
}

func TestPurchaseResourceErrors(t *testing.T) {
	f := newAPIFixture(t)
	flour := testutil.SeedGood(t, f.db, f.tenant.ID, "Flour")
	other := testutil.SeedTenant(t, f.db)
	foreign := testutil.SeedPurchase(t, f.db,
		testutil.SeedGood(t, f.db, other.ID, "Salt"),
		testutil.SeedSupplier(t, f.db, other.ID, "Elsewhere"), "1", "1")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"zero quantity", http.MethodPost, "/app/api/purchases",
			`{"good_id":` + itoa(flour.ID) + `,"supplier_id":` + itoa(f.supplier.ID) + `,"package_quantity":"0","package_unit":"kg","package_price":"1"}`,
			http.StatusUnprocessableEntity},
		{"malformed payload", http.MethodPost, "/app/api/purchases", `{`, http.StatusBadRequest},
		{"other tenant", http.MethodDelete, "/app/api/purchases/" + itoa(foreign.ID), "", http.StatusNotFound},
		{"bad identifier", http.MethodDelete, "/app/api/purchases/abc", "", http.StatusNotFound},
		{"unknown action", http.MethodPost, "/app/api/purchases/" + itoa(foreign.ID) + "/archive", "", http.StatusNotFound},
		{"method", http.MethodPatch, "/app/api/purchases", "", http.StatusMethodNotAllowed},
		{"bad filter", http.MethodGet, "/app/api/purchases?good_id=x", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, PurchaseResource, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAPIRequiresTenant(t *testing.T) {
	withTestSessionManager(t)
	withTestDatabase(t)

	req := loadSession(t, sessionManager, httptest.NewRequest(http.MethodGet, "/app/api/purchases", nil))
	w := httptest.NewRecorder()
	PurchaseResource(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRecipeAndComponentResources(t *testing.T) {
	f := newAPIFixture(t)
	butter := testutil.SeedGood(t, f.db, f.tenant.ID, "Butter", testutil.WithAvgPrice("8"))

	w := f.do(t, RecipeResource, http.MethodPost, "/app/api/recipes", `{"name":"Sauce","sellable_as_component":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var sauce models.Recipe
	decodeBody(t, w, &sauce)

	body := `{"recipe_id":` + itoa(sauce.ID) + `,"component_type":"Good","component_id":` + itoa(butter.ID) + `,"quantity":"250","unit":"g"}`
	w = f.do(t, RecipeComponentResource, http.MethodPost, "/app/api/recipe-components", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for component, got %d: %s", w.Code, w.Body.String())
	}
	var component models.Component
	decodeBody(t, w, &component)

	self := `{"recipe_id":` + itoa(sauce.ID) + `,"component_type":"Recipe","component_id":` + itoa(sauce.ID) + `,"quantity":"1","unit":"kg"}`
	if w := f.do(t, RecipeComponentResource, http.MethodPost, "/app/api/recipe-components", self); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a self reference, got %d", w.Code)
	}

	w = f.do(t, RecipeResource, http.MethodGet, "/app/api/recipes/"+itoa(sauce.ID)+"/costs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for costs, got %d: %s", w.Code, w.Body.String())
	}
	var sheet catalog.CostSheet
	decodeBody(t, w, &sheet)
	testutil.AssertNullDecimal(t, "total cost", sheet.Recipe.Costs.TotalCost, "2")
	testutil.AssertNullDecimal(t, "cost per kg", sheet.Recipe.Costs.CostPerKg, "8")
	testutil.AssertNullDecimal(t, "selling price", sheet.SuggestedSellingPrice, "20")

	w = f.do(t, RecipeComponentResource, http.MethodPut, "/app/api/recipe-components/"+itoa(component.ID), `{"quantity":"0.5","unit":"kg"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on component update, got %d: %s", w.Code, w.Body.String())
	}
	testutil.AssertNullDecimal(t, "total cost after update", testutil.ReloadRecipe(t, f.db, sauce.ID).Costs.TotalCost, "4")

	w = f.do(t, RecipeResource, http.MethodPost, "/app/api/recipes/"+itoa(sauce.ID)+"/duplicate", "")
	var copied models.Recipe
	decodeBody(t, w, &copied)
	if w.Code != http.StatusCreated || copied.Name != "Sauce (copy)" {
		t.Fatalf("unexpected duplicate %d: %s", w.Code, w.Body.String())
	}

	if w := f.do(t, RecipeComponentResource, http.MethodDelete, "/app/api/recipe-components/"+itoa(component.ID), ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on component removal, got %d", w.Code)
	}
	if w := f.do(t, RecipeResource, http.MethodDelete, "/app/api/recipes/"+itoa(sauce.ID), ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on recipe removal, got %d", w.Code)
	}
}

func TestSupplierResourceDelete(t *testing.T) {
	f := newAPIFixture(t)
	butter := testutil.SeedGood(t, f.db, f.tenant.ID, "Butter")
	testutil.SeedPurchase(t, f.db, butter, f.supplier, "1", "8")
	path := "/app/api/suppliers/" + itoa(f.supplier.ID)

	w := f.do(t, SupplierResource, http.MethodPut, path, `{"name":"Metro Cash"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on rename, got %d: %s", w.Code, w.Body.String())
	}
	var renamed models.Supplier
	decodeBody(t, w, &renamed)
	if renamed.Name != "Metro Cash" {
		t.Fatalf("expected renamed supplier, got %q", renamed.Name)
	}
	if w := f.do(t, SupplierResource, http.MethodPut, path, `{"name":" "}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a blank name, got %d", w.Code)
	}

	if w := f.do(t, SupplierResource, http.MethodPost, path+"/deactivate", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on deactivate, got %d", w.Code)
	}
	testutil.AssertDecimal(t, "avg after deactivate", testutil.ReloadGood(t, f.db, butter.ID).Costs.AvgPricePerKg, "0")

	if w := f.do(t, SupplierResource, http.MethodDelete, path, ""); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while purchases exist, got %d", w.Code)
	}
	if w := f.do(t, SupplierResource, http.MethodDelete, path+"?force=true", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on forced removal, got %d", w.Code)
	}
	var count int64
	f.db.Model(&models.Purchase{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected purchases to be removed, %d left", count)
	}
}

func TestGoodTrayAndSettingsResources(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, GoodResource, http.MethodPost, "/app/api/goods", `{"name":"Eggs","base_unit":"piece","unit_weight_kg":"0.05"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var eggs models.Good
	decodeBody(t, w, &eggs)

	if w := f.do(t, GoodResource, http.MethodPost, "/app/api/goods", `{"name":"Eggs","base_unit":"kg"}`); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate name, got %d", w.Code)
	}
	if w := f.do(t, GoodResource, http.MethodPost, "/app/api/goods/"+itoa(eggs.ID)+"/recalculate", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on recalculate, got %d", w.Code)
	}

	w = f.do(t, TraySizeResource, http.MethodPost, "/app/api/tray-sizes", `{"name":"Large","price":"0.8"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for tray, got %d: %s", w.Code, w.Body.String())
	}
	var tray models.TraySize
	decodeBody(t, w, &tray)
	w = f.do(t, TraySizeResource, http.MethodPut, "/app/api/tray-sizes/"+itoa(tray.ID), `{"name":"Large","price":"1.1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on tray update, got %d: %s", w.Code, w.Body.String())
	}
	decodeBody(t, w, &tray)
	testutil.AssertDecimal(t, "tray price", tray.Price, "1.1")
	if w := f.do(t, TraySizeResource, http.MethodPut, "/app/api/tray-sizes/"+itoa(tray.ID), `{"name":"Large","price":"-1"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a negative price, got %d", w.Code)
	}
	if w := f.do(t, TraySizeResource, http.MethodDelete, "/app/api/tray-sizes/"+itoa(tray.ID), ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on tray removal, got %d", w.Code)
	}

	if w := f.do(t, Settings, http.MethodPut, "/app/api/settings", `{"markup_coefficient":"0.05"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a low markup, got %d", w.Code)
	}
	w = f.do(t, Settings, http.MethodPut, "/app/api/settings", `{"name":"Bistro","markup_coefficient":"3"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on settings update, got %d: %s", w.Code, w.Body.String())
	}
	w = f.do(t, Settings, http.MethodGet, "/app/api/settings", "")
	var tenant models.Tenant
	decodeBody(t, w, &tenant)
	if tenant.Name != "Bistro" {
		t.Fatalf("expected updated name, got %q", tenant.Name)
	}
	testutil.AssertNullDecimal(t, "markup", tenant.MarkupCoefficient, "3")
}

func TestDailySpecialResource(t *testing.T) {
	f := newAPIFixture(t)

	for _, body := range []string{
		`{"category":"meat","entry_date":"2026-10-18","item_name":"Pork tenderloin","cost_per_kg":"12.50"}`,
		`{"category":"meat","entry_date":"2026-10-19","item_name":"Flank steak","cost_per_kg":"15.80"}`,
		`{"category":"side","entry_date":"2026-10-19","item_name":"Ratatouille","cost_per_kg":"4.50"}`,
	} {
		if w := f.do(t, DailySpecialResource, http.MethodPost, "/app/api/daily-specials", body); w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}
	if w := f.do(t, DailySpecialResource, http.MethodPost, "/app/api/daily-specials", `{"category":"fish","entry_date":"2026-10-19","item_name":"Cod","cost_per_kg":"0"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a zero cost, got %d", w.Code)
	}

	w := f.do(t, DailySpecialResource, http.MethodGet, "/app/api/daily-specials", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var listed dailySpecialsResponse
	decodeBody(t, w, &listed)
	if len(listed.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(listed.Entries))
	}
	testutil.AssertDecimal(t, "meat average", listed.Averages.Meat, "14.15")
	testutil.AssertDecimal(t, "fish average", listed.Averages.Fish, "0")
	testutil.AssertDecimal(t, "side average", listed.Averages.Side, "4.5")

	w = f.do(t, DailySpecialResource, http.MethodGet, "/app/api/daily-specials?category=side", "")
	decodeBody(t, w, &listed)
	if len(listed.Entries) != 1 || listed.Entries[0].ItemName != "Ratatouille" {
		t.Fatalf("expected only the side entry, got %+v", listed.Entries)
	}
	path := "/app/api/daily-specials/" + itoa(listed.Entries[0].ID)

	if w := f.do(t, DailySpecialResource, http.MethodPut, path, `{"category":"side","entry_date":"2026-10-19","item_name":"Ratatouille","cost_per_kg":"5"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", w.Code, w.Body.String())
	}
	if w := f.do(t, DailySpecialResource, http.MethodDelete, path, ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on removal, got %d", w.Code)
	}
	if w := f.do(t, DailySpecialResource, http.MethodDelete, path, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second removal, got %d", w.Code)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
