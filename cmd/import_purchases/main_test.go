package main

import (
	"context"
	"strings"
	"testing"

	"fourneau/internal/catalog"
	"fourneau/internal/testutil"
	"fourneau/models"
)

func TestParseOffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fields  []string
		want    catalog.Offer
		wantErr bool
	}{
		{
			name:   "plain",
			fields: []string{"Butter", "250", "g", "2.40"},
			want:   catalog.Offer{GoodName: "Butter", Quantity: testutil.Dec("250"), Unit: "g", Price: testutil.Dec("2.4")},
		},
		{
			name:   "decimal comma and currency",
			fields: []string{" Cream ", "0,5", "l", "2,10 €"},
			want:   catalog.Offer{GoodName: "Cream", Quantity: testutil.Dec("0.5"), Unit: "l", Price: testutil.Dec("2.1")},
		},
		{name: "missing name", fields: []string{"", "1", "kg", "3"}, wantErr: true},
		{name: "bad quantity", fields: []string{"Salt", "a lot", "kg", "3"}, wantErr: true},
		{name: "bad price", fields: []string{"Salt", "1", "kg", "free"}, wantErr: true},
		{name: "short", fields: []string{"Salt", "1", "kg"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseOffer(tt.fields)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOffer returned error: %v", err)
			}
			if got.GoodName != tt.want.GoodName || got.Unit != tt.want.Unit ||
				!got.Quantity.Equal(tt.want.Quantity) || !got.Price.Equal(tt.want.Price) {
				t.Fatalf("parseOffer = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOffersFromCSV(t *testing.T) {
	t.Parallel()

	input := "good;quantity;unit;price\nButter;250;g;2.40\nShallots;5;kg\nCream;1;l;4,20\n"
	offers, skipped, err := offersFromCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("offersFromCSV returned error: %v", err)
	}
	if len(offers) != 2 || skipped != 1 {
		t.Fatalf("expected 2 offers and 1 skipped line, got %d and %d", len(offers), skipped)
	}
	if offers[1].GoodName != "Cream" {
		t.Fatalf("unexpected second offer %+v", offers[1])
	}
}

func TestOffersFromText(t *testing.T) {
	t.Parallel()

	text := "HALLES PRIMEUR - tarif semaine 42\nGood;Quantity;Unit;Price\nShallots;5;kg;12,00\nSalmon fillet;1;kg;??\nPage 1/1\n"
	offers, skipped := offersFromText(text)
	if len(offers) != 1 || offers[0].GoodName != "Shallots" {
		t.Fatalf("unexpected offers %+v", offers)
	}
	if skipped != 1 {
		t.Fatalf("expected the unreadable salmon line to be counted, got %d", skipped)
	}
}

func TestImportOffersCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	database := testutil.OpenDB(t)
	tenant := testutil.SeedTenant(t, database)
	service := catalog.NewService(database)
	ctx := context.Background()

	offers := []catalog.Offer{
		{GoodName: "Butter", Quantity: testutil.Dec("250"), Unit: "g", Price: testutil.Dec("2.40")},
		{GoodName: "Eggs", Quantity: testutil.Dec("30"), Unit: "piece", Price: testutil.Dec("7.50")},
	}
	summary, err := importOffers(ctx, service, tenant.ID, "Metro", offers)
	if err != nil {
		t.Fatalf("importOffers returned error: %v", err)
	}
	if summary.created != 1 || summary.rejected != 1 {
		t.Fatalf("unexpected first summary %+v", summary)
	}

	offers[0].Price = testutil.Dec("2.00")
	summary, err = importOffers(ctx, service, tenant.ID, "Metro", offers[:1])
	if err != nil {
		t.Fatalf("importOffers returned error: %v", err)
	}
	if summary.updated != 1 {
		t.Fatalf("expected the butter offer to be updated, got %+v", summary)
	}

	var butter models.Good
	if err := database.Where("tenant_id = ? AND name = ?", tenant.ID, "Butter").First(&butter).Error; err != nil {
		t.Fatalf("load butter: %v", err)
	}
	testutil.AssertDecimal(t, "butter average", butter.Costs.AvgPricePerKg, "8")

	var suppliers int64
	database.Model(&models.Supplier{}).Where("tenant_id = ?", tenant.ID).Count(&suppliers)
	if suppliers != 1 {
		t.Fatalf("expected the supplier to be reused, got %d", suppliers)
	}
}
