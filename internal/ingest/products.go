package ingest

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	domainCatalog "github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// roColumnMap translates the shop export's Romanian headers to the
// document field names.
var roColumnMap = map[string]string{
	"Cod Produs (SKU)":                    "sku",
	"Denumire Produs":                     "name",
	"Cod Grupa":                           "group_code",
	"Activ in Magazin":                    "active",
	"Stare Stoc":                          "stock_status",
	"Marca (Brand)":                       "brand",
	"Descriere Produs":                    "description_html",
	"Descriere Scurta a Produsului":       "description_short",
	"Descriere pt feed-uri":               "description_feed",
	"Pret":                                "price",
	"Pret intreg (Calculat)":              "price_list",
	"Pret final (Calculat)":               "price_final",
	"Pretul Include TVA":                  "vat_included",
	"Cota TVA":                            "vat_rate",
	"URL Poza de Produs":                  "image_url",
	"Imagine principala":                  "image_main",
	"Imagine secundara 1":                 "image_secondary_1",
	"Imagine secundara 2":                 "image_secondary_2",
	"Categorie / Categorii":               "category_path",
	"Categorie principala":                "category_main",
	"Subcategorie de nivel 1":             "subcategory_level1",
	"Subcategorie de nivel 2":             "subcategory_level2",
	"Titlu Meta":                          "meta_title",
	"Descriere Meta":                      "meta_description",
	"Cuvinte Cheie":                       "keywords",
	"Produse Cross-Sell":                  "cross_sell_skus",
	"Produse Up-Sell":                     "up_sell_skus",
	"Atribute: Ingrediente (editor text)": "ingredients_html",
}

// Products ingests the catalog export at path.  Rows without a SKU are
// skipped; everything else is coerced, run through attribute extraction
// and merged into the product index by SKU.
func (ing *Ingestor) Products(ctx context.Context, path string) (*Report, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	cols := mapCatalogColumns(table.Headers)

	products := make([]*domainCatalog.Product, 0, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		p := ing.productFromRow(cols, row)
		if p.Sku == "" {
			skipped++
			continue
		}
		products = append(products, p)
	}
	if len(products) == 0 {
		return nil, errors.Newf(errors.ErrCodeIngestNoRows,
			"no valid product rows in %s", filepath.Base(path))
	}

	bulk, err := ing.products.BulkUpsert(ctx, products)
	if err != nil {
		return nil, err
	}
	report := reportFromBulk(bulk, skipped)
	ing.record("products", report)

	if bulk.Failed > 0 {
		return report, errors.Newf(errors.ErrCodeStoreWrite,
			"bulk upsert failed for %d of %d products", bulk.Failed, len(products))
	}

	ing.logger.Info("products ingested",
		logging.String("file", filepath.Base(path)),
		logging.Int("created", report.Created),
		logging.Int("updated", report.Updated),
		logging.Int("noop", report.Noops),
		logging.Int("skipped", report.Skipped))
	return report, nil
}

// mapCatalogColumns resolves the known Romanian headers to positions.
// Unknown columns are ignored.
func mapCatalogColumns(headers []string) map[string]int {
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		if field, ok := roColumnMap[strings.TrimSpace(h)]; ok {
			cols[field] = i
		}
	}
	return cols
}

func (ing *Ingestor) productFromRow(cols map[string]int, row []string) *domainCatalog.Product {
	p := &domainCatalog.Product{}
	for field, idx := range cols {
		raw := strings.TrimSpace(cell(row, idx))
		if raw == "" {
			continue
		}
		setProductField(p, field, raw)
	}
	p.Attributes = ing.extractor.Extract(p.Name, p.DescriptionHTML)
	return p
}

func setProductField(p *domainCatalog.Product, field, raw string) {
	switch field {
	case "sku":
		p.Sku = raw
	case "name":
		p.Name = raw
	case "group_code":
		p.GroupCode = raw
	case "active":
		p.Active = safeBool(raw)
	case "stock_status":
		p.StockStatus = raw
	case "brand":
		p.Brand = raw
	case "description_html":
		p.DescriptionHTML = raw
	case "description_short":
		p.DescriptionShort = raw
	case "description_feed":
		p.DescriptionFeed = raw
	case "price":
		p.Price = safeFloat(raw)
	case "price_list":
		p.PriceList = safeFloat(raw)
	case "price_final":
		p.PriceFinal = safeFloat(raw)
	case "vat_included":
		p.VatIncluded = safeBool(raw)
	case "vat_rate":
		p.VatRate = safeFloat(raw)
	case "image_url":
		p.ImageURL = raw
	case "image_main":
		p.ImageMain = raw
	case "image_secondary_1":
		p.ImageSecondary1 = raw
	case "image_secondary_2":
		p.ImageSecondary2 = raw
	case "category_path":
		p.CategoryPath = raw
	case "category_main":
		p.CategoryMain = raw
	case "subcategory_level1":
		p.SubcategoryL1 = raw
	case "subcategory_level2":
		p.SubcategoryL2 = raw
	case "meta_title":
		p.MetaTitle = raw
	case "meta_description":
		p.MetaDescription = raw
	case "keywords":
		p.Keywords = raw
	case "cross_sell_skus":
		p.CrossSellSkus = splitList(raw)
	case "up_sell_skus":
		p.UpSellSkus = splitList(raw)
	case "ingredients_html":
		p.IngredientsHTML = raw
	}
}

// safeFloat parses a decimal that may use the Romanian comma separator.
// Unparseable values become nil, never an error.
func safeFloat(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// safeBool understands the export's da/nu cells along with the usual
// boolean spellings.
func safeBool(raw string) *bool {
	switch strings.ToLower(raw) {
	case "da", "yes", "true", "1":
		v := true
		return &v
	case "nu", "no", "false", "0":
		v := false
		return &v
	}
	return nil
}

func splitList(raw string) []string {
	var parts []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			parts = append(parts, item)
		}
	}
	return parts
}
