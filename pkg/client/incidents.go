package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// IncidentsClient covers incident intake, listing and the supplier
// damage KPIs.
type IncidentsClient struct {
	client *Client
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Incident is a shipment-damage report. IncidentID may be left empty;
// the server generates one.
type Incident struct {
	IncidentID          string   `json:"incident_id,omitempty"`
	SupplierID          string   `json:"supplier_id"`
	SupplierName        string   `json:"supplier_name,omitempty"`
	DateReported        string   `json:"date_reported,omitempty"`
	Sku                 string   `json:"sku,omitempty"`
	ProductType         string   `json:"product_type,omitempty"`
	CategoryMain        string   `json:"category_main,omitempty"`
	QtyTotalInShipment  int      `json:"qty_total_in_shipment"`
	QtyDamaged          int      `json:"qty_damaged"`
	DamageType          []string `json:"damage_type,omitempty"`
	ShipmentID          string   `json:"shipment_id,omitempty"`
	TransportCompany    string   `json:"transport_company,omitempty"`
	RootCauseGuess      string   `json:"root_cause_guess,omitempty"`
	BatchID             string   `json:"batch_id,omitempty"`
	PackagingPrimary    string   `json:"packaging_primary,omitempty"`
	PackagingSecondary  string   `json:"packaging_secondary,omitempty"`
	PackagingCushioning string   `json:"packaging_cushioning,omitempty"`
	Comment             string   `json:"comment,omitempty"`
	CreatedAt           string   `json:"created_at,omitempty"`
}

// CreateResult is the answer to an incident create.
type CreateResult struct {
	IncidentID string `json:"incident_id"`
	Created    bool   `json:"created"`
}

// ListedIncident pairs an incident id with its stored document.
type ListedIncident struct {
	IncidentID string   `json:"incident_id"`
	Document   Incident `json:"document"`
}

// ListRequest narrows an incident listing. Zero values are omitted.
type ListRequest struct {
	SupplierID  string
	Sku         string
	ProductType string
	DateFrom    string
	DateTo      string
	Size        int
}

// SupplierKPI is one supplier bucket with its damage totals.
type SupplierKPI struct {
	SupplierID  string  `json:"supplier_id"`
	ProductType string  `json:"product_type,omitempty"`
	QtyTotal    float64 `json:"qty_total"`
	QtyDamaged  float64 `json:"qty_damaged"`
	DamageRate  float64 `json:"damage_rate"`
}

// MonthlyPoint is one calendar-month bucket of a supplier's series.
type MonthlyPoint struct {
	Month      string  `json:"month"`
	QtyTotal   float64 `json:"qty_total"`
	QtyDamaged float64 `json:"qty_damaged"`
	DamageRate float64 `json:"damage_rate"`
}

// MonthlyKPIResult is a supplier's damage series, oldest month first.
type MonthlyKPIResult struct {
	SupplierID string         `json:"supplier_id"`
	Items      []MonthlyPoint `json:"items"`
}

// DamageTypeCount is one damage-type bucket.
type DamageTypeCount struct {
	DamageType string `json:"damage_type"`
	Count      int64  `json:"count"`
}

// SupplierDamageTypes is the damage-type distribution of one supplier.
type SupplierDamageTypes struct {
	SupplierID  string            `json:"supplier_id"`
	DamageTypes []DamageTypeCount `json:"damage_types"`
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Create records one incident. The server rejects reports claiming more
// damaged units than the shipment held before anything is written.
func (ic *IncidentsClient) Create(ctx context.Context, inc Incident) (*CreateResult, error) {
	if inc.SupplierID == "" {
		return nil, fmt.Errorf("client: supplier_id is required")
	}
	var result CreateResult
	if err := ic.client.post(ctx, "/api/incidents", inc, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns incidents matching req, newest report first.
func (ic *IncidentsClient) List(ctx context.Context, req ListRequest) ([]ListedIncident, error) {
	q := url.Values{}
	if req.SupplierID != "" {
		q.Set("supplier_id", req.SupplierID)
	}
	if req.Sku != "" {
		q.Set("sku", req.Sku)
	}
	if req.ProductType != "" {
		q.Set("product_type", req.ProductType)
	}
	if req.DateFrom != "" {
		q.Set("date_from", req.DateFrom)
	}
	if req.DateTo != "" {
		q.Set("date_to", req.DateTo)
	}
	if req.Size > 0 {
		q.Set("size", strconv.Itoa(req.Size))
	}
	path := "/api/incidents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var result []ListedIncident
	if err := ic.client.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SupplierKPIs returns per-supplier damage totals, optionally narrowed
// to one product type.
func (ic *IncidentsClient) SupplierKPIs(ctx context.Context, productType string) ([]SupplierKPI, error) {
	path := "/api/incidents/kpis"
	if productType != "" {
		path += "?" + url.Values{"product_type": {productType}}.Encode()
	}
	var result struct {
		Items []SupplierKPI `json:"items"`
	}
	if err := ic.client.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// SupplierKPIsByType returns one row per supplier and product type
// pair.
func (ic *IncidentsClient) SupplierKPIsByType(ctx context.Context) ([]SupplierKPI, error) {
	var result []SupplierKPI
	if err := ic.client.get(ctx, "/api/incidents/kpis/by-type", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MonthlyKPIs returns one supplier's damage series by calendar month.
func (ic *IncidentsClient) MonthlyKPIs(ctx context.Context, supplierID string) (*MonthlyKPIResult, error) {
	if supplierID == "" {
		return nil, fmt.Errorf("client: supplier_id is required")
	}
	var result MonthlyKPIResult
	if err := ic.client.get(ctx, "/api/incidents/kpis/"+url.PathEscape(supplierID)+"/monthly", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DamageTypeSummary returns each supplier's damage-type distribution.
func (ic *IncidentsClient) DamageTypeSummary(ctx context.Context) ([]SupplierDamageTypes, error) {
	var result []SupplierDamageTypes
	if err := ic.client.get(ctx, "/api/incidents/summary/damage-types", &result); err != nil {
		return nil, err
	}
	return result, nil
}
