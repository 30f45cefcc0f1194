// Package incident holds the supplier incident domain model. Incidents
// record damaged goods found in supplier shipments and are immutable
// once written: there is no update or delete path, corrections are new
// incidents. All KPI aggregations run over these documents.
package incident

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// DateLayout is the calendar-day format used for date_reported and the
// range bounds that filter on it.
const DateLayout = "2006-01-02"

// StringList accepts either a JSON string or a JSON array of strings.
// A bare string decodes to a one-element list, which lets clients send
// `"damage_type": "zgariat"` without the brackets.
type StringList []string

// UnmarshalJSON implements the string-or-array decoding.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
			return nil
		}
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// Record is one supplier incident document. The store id is the
// incident id.
type Record struct {
	IncidentID          string     `json:"incident_id"`
	SupplierID          string     `json:"supplier_id"`
	SupplierName        string     `json:"supplier_name,omitempty"`
	DateReported        string     `json:"date_reported"`
	Sku                 string     `json:"sku,omitempty"`
	ProductType         string     `json:"product_type,omitempty"`
	CategoryMain        string     `json:"category_main,omitempty"`
	QtyTotalInShipment  int        `json:"qty_total_in_shipment"`
	QtyDamaged          int        `json:"qty_damaged"`
	DamageType          StringList `json:"damage_type,omitempty"`
	ShipmentID          string     `json:"shipment_id,omitempty"`
	TransportCompany    string     `json:"transport_company,omitempty"`
	RootCauseGuess      string     `json:"root_cause_guess,omitempty"`
	BatchID             string     `json:"batch_id,omitempty"`
	PackagingPrimary    string     `json:"packaging_primary,omitempty"`
	PackagingSecondary  string     `json:"packaging_secondary,omitempty"`
	PackagingCushioning string     `json:"packaging_cushioning,omitempty"`
	Comment             string     `json:"comment,omitempty"`
	CreatedAt           string     `json:"created_at,omitempty"`
}

// NewIncidentID returns a fresh incident id of the form INC-<12 hex>.
func NewIncidentID() string {
	id := uuid.New()
	return fmt.Sprintf("INC-%x", id[:6])
}

// Normalize trims every string field and fills the generated defaults:
// a fresh incident id, today's date_reported, the "unspecified" damage
// tag when none was given, and created_at. Normalize must run before
// Validate so that defaults count as present.
func (r *Record) Normalize(now time.Time) {
	r.IncidentID = strings.TrimSpace(r.IncidentID)
	r.SupplierID = strings.TrimSpace(r.SupplierID)
	r.SupplierName = strings.TrimSpace(r.SupplierName)
	r.DateReported = strings.TrimSpace(r.DateReported)
	r.Sku = strings.TrimSpace(r.Sku)
	r.ProductType = strings.TrimSpace(r.ProductType)
	r.CategoryMain = strings.TrimSpace(r.CategoryMain)
	r.ShipmentID = strings.TrimSpace(r.ShipmentID)
	r.TransportCompany = strings.TrimSpace(r.TransportCompany)
	r.RootCauseGuess = strings.TrimSpace(r.RootCauseGuess)
	r.BatchID = strings.TrimSpace(r.BatchID)
	r.PackagingPrimary = strings.TrimSpace(r.PackagingPrimary)
	r.PackagingSecondary = strings.TrimSpace(r.PackagingSecondary)
	r.PackagingCushioning = strings.TrimSpace(r.PackagingCushioning)
	r.Comment = strings.TrimSpace(r.Comment)

	tags := r.DamageType[:0]
	for _, tag := range r.DamageType {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	r.DamageType = tags

	if r.IncidentID == "" {
		r.IncidentID = NewIncidentID()
	}
	if r.DateReported == "" {
		r.DateReported = now.UTC().Format(DateLayout)
	}
	if len(r.DamageType) == 0 {
		r.DamageType = StringList{"unspecified"}
	}
	if r.CreatedAt == "" {
		r.CreatedAt = now.UTC().Format(time.RFC3339)
	}
}

// Validate enforces the write invariants. The quantity ceiling is the
// one callers most often trip over, so it carries its own error code.
func (r *Record) Validate() error {
	if r.SupplierID == "" {
		return errors.New(errors.ErrCodeIncidentMissingField, "supplier_id is required")
	}
	if r.SupplierName == "" {
		return errors.New(errors.ErrCodeIncidentMissingField, "supplier_name is required")
	}
	if r.DateReported == "" {
		return errors.New(errors.ErrCodeIncidentMissingField, "date_reported is required")
	}
	if _, err := ParseReportedDate(r.DateReported); err != nil {
		return err
	}
	if r.QtyTotalInShipment <= 0 {
		return errors.New(errors.ErrCodeValidation, "qty_total_in_shipment must be positive")
	}
	if r.QtyDamaged < 0 {
		return errors.New(errors.ErrCodeValidation, "qty_damaged cannot be negative")
	}
	if r.QtyDamaged > r.QtyTotalInShipment {
		return errors.New(errors.ErrCodeIncidentQuantity, "qty_damaged cannot exceed qty_total_in_shipment")
	}
	return nil
}

// ParseReportedDate parses a date_reported value, accepting either the
// calendar-day layout or a full RFC 3339 timestamp.
func ParseReportedDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.Newf(errors.ErrCodeValidation,
			"date_reported %q is not a date (want %s or RFC 3339)", value, DateLayout)
	}
	return t, nil
}

// DocumentID returns the store identifier, which is the incident id.
func (r *Record) DocumentID() string {
	return r.IncidentID
}
