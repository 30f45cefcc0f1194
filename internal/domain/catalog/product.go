// Package catalog holds the product catalog domain model: the product
// document indexed per SKU, the per-day SKU counters, and the
// persistence contracts both are stored through. Derived attr_* values
// are carried as a sparse map and flattened into top-level document
// fields on marshal, so the search mappings see them as plain keys.
package catalog

import (
	"encoding/json"
	"strings"

	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// Product is the catalog document indexed under its SKU. String fields
// left empty and nil pointers stay out of the marshaled document, which
// keeps partial upserts from overwriting fields the source never
// carried. Numeric and boolean optionals are pointers for the same
// reason: an explicit zero or false must survive the round trip.
type Product struct {
	Sku              string   `json:"sku"`
	Name             string   `json:"name,omitempty"`
	GroupCode        string   `json:"group_code,omitempty"`
	Active           *bool    `json:"active,omitempty"`
	StockStatus      string   `json:"stock_status,omitempty"`
	Brand            string   `json:"brand,omitempty"`
	DescriptionHTML  string   `json:"description_html,omitempty"`
	DescriptionShort string   `json:"description_short,omitempty"`
	DescriptionFeed  string   `json:"description_feed,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	PriceList        *float64 `json:"price_list,omitempty"`
	PriceFinal       *float64 `json:"price_final,omitempty"`
	VatIncluded      *bool    `json:"vat_included,omitempty"`
	VatRate          *float64 `json:"vat_rate,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	ImageMain        string   `json:"image_main,omitempty"`
	ImageSecondary1  string   `json:"image_secondary_1,omitempty"`
	ImageSecondary2  string   `json:"image_secondary_2,omitempty"`
	CategoryPath     string   `json:"category_path,omitempty"`
	CategoryMain     string   `json:"category_main,omitempty"`
	SubcategoryL1    string   `json:"subcategory_level1,omitempty"`
	SubcategoryL2    string   `json:"subcategory_level2,omitempty"`
	MetaTitle        string   `json:"meta_title,omitempty"`
	MetaDescription  string   `json:"meta_description,omitempty"`
	Keywords         string   `json:"keywords,omitempty"`
	CrossSellSkus    []string `json:"cross_sell_skus,omitempty"`
	UpSellSkus       []string `json:"up_sell_skus,omitempty"`
	IngredientsHTML  string   `json:"ingredients_html,omitempty"`
	URL              string   `json:"url,omitempty"`
	TotalRevenue     *float64 `json:"total_revenue,omitempty"`
	UpdatedAt        string   `json:"updated_at,omitempty"`

	// Attributes carries the sparse derived attr_* keys. Only keys with
	// the attr_ prefix are flattened into the document; anything else in
	// the map is dropped on marshal.
	Attributes map[string]any `json:"-"`
}

const attrPrefix = "attr_"

// MarshalJSON flattens Attributes into top-level attr_* fields.
func (p Product) MarshalJSON() ([]byte, error) {
	type productAlias Product
	base, err := json.Marshal(productAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Attributes) == 0 {
		return base, nil
	}
	doc := make(map[string]any, len(p.Attributes)+16)
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, err
	}
	for k, v := range p.Attributes {
		if strings.HasPrefix(k, attrPrefix) {
			doc[k] = v
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON restores the typed fields and gathers top-level attr_*
// keys back into Attributes.
func (p *Product) UnmarshalJSON(data []byte) error {
	type productAlias Product
	var alias productAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(alias)
	for k, msg := range raw {
		if !strings.HasPrefix(k, attrPrefix) {
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		if v == nil {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]any)
		}
		p.Attributes[k] = v
	}
	return nil
}

// Validate checks the fields every writable product must carry.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Sku) == "" {
		return errors.New(errors.ErrCodeProductInvalid, "sku is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New(errors.ErrCodeProductInvalid, "name is required")
	}
	return nil
}

// DocumentID returns the store identifier, which is the SKU itself.
func (p *Product) DocumentID() string {
	return p.Sku
}
