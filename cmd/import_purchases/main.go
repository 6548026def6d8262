package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fourneau/internal/catalog"
	"fourneau/internal/config"
	"fourneau/internal/db"
	"fourneau/internal/dbctx"
	applog "fourneau/internal/log"
	"fourneau/models"
)

// A price list holds one offer per line: good;quantity;unit;price.
const fieldSeparator = ';'

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: import_purchases <price-list.csv|price-list.pdf> <supplier name>")
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, supplierName string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("price list path must not be empty")
	}
	if strings.TrimSpace(supplierName) == "" {
		return fmt.Errorf("supplier name must not be empty")
	}

	offers, skipped, err := readOffers(path)
	if err != nil {
		return fmt.Errorf("read price list: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	tenantID, err := resolveTenant(ctx, database)
	if err != nil {
		return fmt.Errorf("resolve tenant: %w", err)
	}

	summary, err := importOffers(ctx, catalog.NewService(database), tenantID, supplierName, offers)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %s: %d created, %d updated, %d rejected, %d unreadable lines\n",
		filepath.Base(path), summary.created, summary.updated, summary.rejected, skipped)
	return nil
}

type importSummary struct {
	created  int
	updated  int
	rejected int
}

// importOffers records each offer in its own transaction. Offers the catalog
// refuses are logged and counted; storage failures abort the import.
func importOffers(ctx context.Context, service *catalog.Service, tenantID uint, supplierName string, offers []catalog.Offer) (importSummary, error) {
	var summary importSummary
	dbc := dbctx.New(ctx)

	supplier, err := service.FindOrCreateSupplier(dbc, tenantID, supplierName)
	if err != nil {
		return summary, fmt.Errorf("resolve supplier %q: %w", supplierName, err)
	}

	for idx, offer := range offers {
		outcome, err := service.ImportOffer(dbc, tenantID, supplier.ID, offer)
		switch {
		case errors.Is(err, catalog.ErrValidation), errors.Is(err, catalog.ErrInUse):
			applog.Warn(ctx, "offer rejected", "line", idx+1, "good", offer.GoodName, "error", err)
			summary.rejected++
		case err != nil:
			return summary, fmt.Errorf("offer %d (%s): %w", idx+1, offer.GoodName, err)
		case outcome == catalog.OfferCreated:
			summary.created++
		default:
			summary.updated++
		}
	}
	return summary, nil
}

func resolveTenant(ctx context.Context, database *gorm.DB) (uint, error) {
	var tenant models.Tenant
	email := strings.TrimSpace(os.Getenv("IMPORT_TENANT_EMAIL"))
	if email != "" {
		if err := database.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&tenant).Error; err != nil {
			return 0, fmt.Errorf("find tenant by email %q: %w", strings.ToLower(email), err)
		}
		return tenant.ID, nil
	}

	if err := database.WithContext(ctx).Order("id asc").First(&tenant).Error; err != nil {
		return 0, fmt.Errorf("find default tenant: %w", err)
	}
	return tenant.ID, nil
}

func readOffers(path string) ([]catalog.Offer, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := extractTextFromPDF(data)
		if err != nil {
			return nil, 0, fmt.Errorf("extract pdf text: %w", err)
		}
		offers, skipped := offersFromText(text)
		return offers, skipped, nil
	}
	return offersFromCSV(bytes.NewReader(data))
}

func offersFromCSV(r io.Reader) ([]catalog.Offer, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = fieldSeparator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, err
	}

	var (
		offers  []catalog.Offer
		skipped int
	)
	for idx, row := range rows {
		if idx == 0 && isHeader(row) {
			continue
		}
		offer, err := parseOffer(row)
		if err != nil {
			skipped++
			continue
		}
		offers = append(offers, offer)
	}
	return offers, skipped, nil
}

// offersFromText reads the offers out of extracted PDF text. Lines that do
// not carry four fields are page furniture and are skipped silently; lines
// with four unparsable fields are counted.
func offersFromText(text string) ([]catalog.Offer, int) {
	var (
		offers  []catalog.Offer
		skipped int
	)
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Split(line, string(fieldSeparator))
		if len(fields) != 4 || isHeader(fields) {
			continue
		}
		offer, err := parseOffer(fields)
		if err != nil {
			skipped++
			continue
		}
		offers = append(offers, offer)
	}
	return offers, skipped
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			for _, word := range row.Content {
				builder.WriteString(word.S)
			}
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "good")
}

func parseOffer(fields []string) (catalog.Offer, error) {
	if len(fields) != 4 {
		return catalog.Offer{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return catalog.Offer{}, errors.New("missing good name")
	}
	quantity, err := parseAmount(fields[1])
	if err != nil {
		return catalog.Offer{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := parseAmount(fields[3])
	if err != nil {
		return catalog.Offer{}, fmt.Errorf("price: %w", err)
	}
	return catalog.Offer{
		GoodName: name,
		Quantity: quantity,
		Unit:     strings.TrimSpace(fields[2]),
		Price:    price,
	}, nil
}

// parseAmount accepts a decimal comma and a trailing currency sign.
func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimSpace(strings.TrimSuffix(value, "€"))
	value = strings.ReplaceAll(value, ",", ".")
	return decimal.NewFromString(value)
}
