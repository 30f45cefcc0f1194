package incident

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

func validRecord() *Record {
	return &Record{
		SupplierID:         "SUP-1",
		SupplierName:       "Distribuitor Pro Nails",
		DateReported:       "2024-03-01",
		Sku:                "SKU-1",
		ProductType:        "oja",
		QtyTotalInShipment: 100,
		QtyDamaged:         6,
		DamageType:         StringList{"zgariat"},
	}
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	var l StringList

	require.NoError(t, json.Unmarshal([]byte(`"zgariat"`), &l))
	assert.Equal(t, StringList{"zgariat"}, l)

	require.NoError(t, json.Unmarshal([]byte(`["zgariat","crapat"]`), &l))
	assert.Equal(t, StringList{"zgariat", "crapat"}, l)

	l = nil
	require.NoError(t, json.Unmarshal([]byte(`""`), &l))
	assert.Nil(t, l)

	l = nil
	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Nil(t, l)

	assert.Error(t, json.Unmarshal([]byte(`123`), &l))
}

func TestRecord_DecodesBareDamageTypeString(t *testing.T) {
	payload := `{"supplier_id":"SUP-1","damage_type":"crapat"}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	assert.Equal(t, StringList{"crapat"}, rec.DamageType)
}

func TestNewIncidentID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^INC-[0-9a-f]{12}$`)

	first := NewIncidentID()
	second := NewIncidentID()

	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)
}

func TestNormalize_GeneratesDefaults(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	rec := &Record{
		SupplierID:         "  SUP-1  ",
		SupplierName:       "Distribuitor Pro Nails",
		QtyTotalInShipment: 10,
	}

	rec.Normalize(now)

	assert.Regexp(t, `^INC-[0-9a-f]{12}$`, rec.IncidentID)
	assert.Equal(t, "SUP-1", rec.SupplierID)
	assert.Equal(t, "2024-03-15", rec.DateReported)
	assert.Equal(t, StringList{"unspecified"}, rec.DamageType)
	assert.Equal(t, "2024-03-15T10:30:00Z", rec.CreatedAt)
}

func TestNormalize_PreservesProvidedValues(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	rec := validRecord()
	rec.IncidentID = "INC-abc123abc123"
	rec.CreatedAt = "2024-02-01T08:00:00Z"
	rec.DamageType = StringList{" zgariat ", "", "crapat"}

	rec.Normalize(now)

	assert.Equal(t, "INC-abc123abc123", rec.IncidentID)
	assert.Equal(t, "2024-03-01", rec.DateReported)
	assert.Equal(t, "2024-02-01T08:00:00Z", rec.CreatedAt)
	assert.Equal(t, StringList{"zgariat", "crapat"}, rec.DamageType)
}

func TestValidate_AcceptsValidRecord(t *testing.T) {
	rec := validRecord()
	rec.Normalize(time.Now())
	assert.NoError(t, rec.Validate())
}

func TestValidate_RequiredFields(t *testing.T) {
	rec := validRecord()
	rec.SupplierID = ""
	err := rec.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIncidentMissingField))

	rec = validRecord()
	rec.SupplierName = ""
	err = rec.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIncidentMissingField))

	rec = validRecord()
	rec.DateReported = ""
	err = rec.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIncidentMissingField))
}

func TestValidate_QuantityRules(t *testing.T) {
	rec := validRecord()
	rec.QtyTotalInShipment = 0
	err := rec.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	rec = validRecord()
	rec.QtyDamaged = -1
	err = rec.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	rec = validRecord()
	rec.QtyDamaged = rec.QtyTotalInShipment + 1
	err = rec.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIncidentQuantity))
	assert.Contains(t, err.Error(), "qty_damaged cannot exceed qty_total_in_shipment")
}

func TestValidate_DamagedMayEqualTotal(t *testing.T) {
	rec := validRecord()
	rec.QtyDamaged = rec.QtyTotalInShipment
	assert.NoError(t, rec.Validate())
}

func TestValidate_RejectsUnparseableDate(t *testing.T) {
	rec := validRecord()
	rec.DateReported = "01/03/2024"
	err := rec.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestParseReportedDate(t *testing.T) {
	d, err := ParseReportedDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	d, err = ParseReportedDate("2024-03-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 12, d.Hour())

	_, err = ParseReportedDate("next tuesday")
	assert.Error(t, err)
}

func TestRecord_DocumentID(t *testing.T) {
	rec := validRecord()
	rec.IncidentID = "INC-aaaabbbbcccc"
	assert.Equal(t, "INC-aaaabbbbcccc", rec.DocumentID())
}
