package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
	"github.com/xuri/excelize/v2"
)

func writeTempXLSX(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	for i := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cellRef, &rows[i]))
	}
	require.NoError(t, wb.SaveAs(path))
	return path
}

func TestReadTable_CSV(t *testing.T) {
	path := writeTempCSV(t, "export.csv",
		`sku,name,price`,
		`OJA-001,Oja rosie,24.50`,
		`BUF-002,Buffer`,
	)

	table, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "name", "price"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "24.50", cell(table.Rows[0], 2))
	// The second row is ragged; reads past its end are empty.
	assert.Equal(t, "", cell(table.Rows[1], 2))
	assert.Equal(t, "", cell(table.Rows[1], 99))
}

func TestReadTable_Workbook(t *testing.T) {
	path := writeTempXLSX(t, "export.xlsx", [][]interface{}{
		{"sku", "name", "price"},
		{"OJA-001", "Oja rosie", 24.5},
	})

	table, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "name", "price"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "OJA-001", cell(table.Rows[0], 0))
	assert.Equal(t, "24.5", cell(table.Rows[0], 2))
}

func TestReadTable_EmptyFile(t *testing.T) {
	path := writeTempCSV(t, "gol.csv")

	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Empty(t, table.Headers)
	assert.Empty(t, table.Rows)
}

func TestReadTable_MissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "nu-exista.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIngestSource))
}

func TestColumnIndex_ListsMissingSorted(t *testing.T) {
	_, err := columnIndex([]string{"sku"}, []string{"order_date", "sku", "quantity", "line_total"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIngestBadHeader))
	assert.Contains(t, err.Error(), "line_total, order_date, quantity")
}

func TestColumnIndex_TrimsHeaderWhitespace(t *testing.T) {
	idx, err := columnIndex([]string{" order_date ", "sku"}, []string{"order_date", "sku"})
	require.NoError(t, err)
	assert.Equal(t, 0, idx["order_date"])
	assert.Equal(t, 1, idx["sku"])
}
