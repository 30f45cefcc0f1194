package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncidentsCreate(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/incidents", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeEnvelope(w, http.StatusCreated,
			`{"code":"created","message":"created","data":{"incident_id":"INC-0a1b2c3d4e5f","created":true}}`)
	})

	res, err := c.Incidents().Create(context.Background(), Incident{
		SupplierID:         "SUP-10",
		SupplierName:       "Distrib Anca",
		DateReported:       "2024-05-12",
		Sku:                "OJA-2",
		ProductType:        "oja",
		QtyTotalInShipment: 60,
		QtyDamaged:         6,
		DamageType:         []string{"flacon_spart", "eticheta_dezlipita"},
	})
	require.NoError(t, err)

	assert.Equal(t, "INC-0a1b2c3d4e5f", res.IncidentID)
	assert.True(t, res.Created)

	assert.Equal(t, "SUP-10", gotBody["supplier_id"])
	assert.Equal(t, float64(60), gotBody["qty_total_in_shipment"])
	damage, ok := gotBody["damage_type"].([]any)
	require.True(t, ok)
	assert.Len(t, damage, 2)
}

func TestIncidentsCreate_RequiresSupplierID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Incidents().Create(context.Background(), Incident{Sku: "OJA-2"})
	assert.Error(t, err)
}

func TestIncidentsCreate_QuantityRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest,
			`{"code":"INCIDENT_002","message":"qty_damaged cannot exceed qty_total_in_shipment"}`)
	})

	_, err := c.Incidents().Create(context.Background(), Incident{
		SupplierID:         "SUP-22",
		QtyTotalInShipment: 10,
		QtyDamaged:         50,
	})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "INCIDENT_002", apiErr.Code)
	assert.False(t, apiErr.IsServerError())
}

func TestIncidentsList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/incidents", r.URL.Path)
		assert.Equal(t, "SUP-10", r.URL.Query().Get("supplier_id"))
		assert.Equal(t, "oja", r.URL.Query().Get("product_type"))
		assert.Equal(t, "2024-05-01", r.URL.Query().Get("date_from"))
		assert.Equal(t, "25", r.URL.Query().Get("size"))
		writeEnvelope(w, http.StatusOK, `{
			"code": "OK",
			"message": "success",
			"data": [
				{
					"incident_id": "INC-0a1b2c3d4e5f",
					"document": {
						"incident_id": "INC-0a1b2c3d4e5f",
						"supplier_id": "SUP-10",
						"sku": "OJA-2",
						"date_reported": "2024-05-12",
						"qty_total_in_shipment": 60,
						"qty_damaged": 6,
						"damage_type": ["flacon_spart", "eticheta_dezlipita"]
					}
				}
			]
		}`)
	})

	incidents, err := c.Incidents().List(context.Background(), ListRequest{
		SupplierID:  "SUP-10",
		ProductType: "oja",
		DateFrom:    "2024-05-01",
		Size:        25,
	})
	require.NoError(t, err)

	require.Len(t, incidents, 1)
	assert.Equal(t, "INC-0a1b2c3d4e5f", incidents[0].IncidentID)
	assert.Equal(t, "SUP-10", incidents[0].Document.SupplierID)
	assert.Equal(t, 6, incidents[0].Document.QtyDamaged)
	assert.Equal(t, []string{"flacon_spart", "eticheta_dezlipita"}, incidents[0].Document.DamageType)
}

func TestIncidentsSupplierKPIs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/incidents/kpis", r.URL.Path)
		assert.Equal(t, "oja", r.URL.Query().Get("product_type"))
		writeEnvelope(w, http.StatusOK, `{
			"code": "OK",
			"message": "success",
			"data": {
				"items": [
					{"supplier_id": "SUP-22", "qty_total": 50, "qty_damaged": 25, "damage_rate": 0.5},
					{"supplier_id": "SUP-10", "qty_total": 100, "qty_damaged": 8, "damage_rate": 0.08}
				]
			}
		}`)
	})

	kpis, err := c.Incidents().SupplierKPIs(context.Background(), "oja")
	require.NoError(t, err)

	require.Len(t, kpis, 2)
	assert.Equal(t, "SUP-22", kpis[0].SupplierID)
	assert.Equal(t, 0.5, kpis[0].DamageRate)
	assert.Equal(t, 100.0, kpis[1].QtyTotal)
}

func TestIncidentsSupplierKPIsByType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/incidents/kpis/by-type", r.URL.Path)
		writeEnvelope(w, http.StatusOK, `{
			"code": "OK",
			"message": "success",
			"data": [
				{"supplier_id": "SUP-10", "product_type": "oja", "qty_total": 100, "qty_damaged": 8, "damage_rate": 0.08},
				{"supplier_id": "SUP-10", "product_type": "tips", "qty_total": 100, "qty_damaged": 10, "damage_rate": 0.1}
			]
		}`)
	})

	kpis, err := c.Incidents().SupplierKPIsByType(context.Background())
	require.NoError(t, err)

	require.Len(t, kpis, 2)
	assert.Equal(t, "oja", kpis[0].ProductType)
	assert.Equal(t, "tips", kpis[1].ProductType)
}

func TestIncidentsMonthlyKPIs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/incidents/kpis/SUP-10/monthly", r.URL.Path)
		writeEnvelope(w, http.StatusOK, `{
			"code": "OK",
			"message": "success",
			"data": {
				"supplier_id": "SUP-10",
				"items": [
					{"month": "2024-04", "qty_total": 40, "qty_damaged": 2, "damage_rate": 0.05},
					{"month": "2024-05", "qty_total": 160, "qty_damaged": 16, "damage_rate": 0.1}
				]
			}
		}`)
	})

	res, err := c.Incidents().MonthlyKPIs(context.Background(), "SUP-10")
	require.NoError(t, err)

	assert.Equal(t, "SUP-10", res.SupplierID)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "2024-04", res.Items[0].Month)
	assert.Equal(t, 0.1, res.Items[1].DamageRate)
}

func TestIncidentsMonthlyKPIs_RequiresSupplierID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Incidents().MonthlyKPIs(context.Background(), "")
	assert.Error(t, err)
}

func TestIncidentsDamageTypeSummary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/incidents/summary/damage-types", r.URL.Path)
		writeEnvelope(w, http.StatusOK, `{
			"code": "OK",
			"message": "success",
			"data": [
				{
					"supplier_id": "SUP-10",
					"damage_types": [
						{"damage_type": "flacon_spart", "count": 2},
						{"damage_type": "eticheta_dezlipita", "count": 1}
					]
				}
			]
		}`)
	})

	summary, err := c.Incidents().DamageTypeSummary(context.Background())
	require.NoError(t, err)

	require.Len(t, summary, 1)
	assert.Equal(t, "SUP-10", summary[0].SupplierID)
	require.Len(t, summary[0].DamageTypes, 2)
	assert.Equal(t, "flacon_spart", summary[0].DamageTypes[0].DamageType)
	assert.Equal(t, int64(2), summary[0].DamageTypes[0].Count)
}
