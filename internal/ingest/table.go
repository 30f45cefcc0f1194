package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// Table is one sheet of tabular data: a header row plus the data rows.
// Rows may be ragged; use cell to read them.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable loads the file at path, picking the parser by extension.
// Workbooks read their first sheet; everything else is parsed as CSV.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeIngestSource, "cannot open %s", path)
		}
		defer f.Close()
		return readCSV(f)
	}
}

func readWorkbook(path string) (*Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeIngestSource, "cannot open workbook %s", path)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeIngestSource, "cannot read sheet %q", sheet)
	}
	return tableFromRows(rows), nil
}

func readCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIngestSource, "cannot parse csv")
	}
	return tableFromRows(records), nil
}

func tableFromRows(rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}
	return &Table{Headers: rows[0], Rows: rows[1:]}
}

// cell reads one column of a possibly ragged row.  Workbook rows drop
// trailing empty cells, so out-of-range reads are empty, not errors.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// columnIndex resolves required column names to their positions.  The
// returned error lists every missing column, sorted.
func columnIndex(headers []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.Newf(errors.ErrCodeIngestBadHeader,
			"csv is missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}
