package ingest

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	domainCatalog "github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

var (
	orderColumns  = []string{"order_date", "sku", "quantity", "line_total"}
	returnColumns = []string{"return_date", "sku", "quantity"}
)

// dateLayouts are tried in order against export date cells.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02.01.2006",
}

type dayKey struct {
	sku  string
	date string
}

// Orders aggregates an order-line CSV into daily purchase and revenue
// counters.  Duplicate (sku, date) rows are summed; rows with an
// unparseable date or no SKU are dropped.
func (ing *Ingestor) Orders(ctx context.Context, path string) (*Report, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(table.Headers, orderColumns)
	if err != nil {
		return nil, err
	}

	type orderAgg struct {
		purchases float64
		revenue   float64
	}
	groups := make(map[dayKey]*orderAgg)
	skipped := 0
	for _, row := range table.Rows {
		date, ok := parseDay(cell(row, cols["order_date"]))
		sku := strings.TrimSpace(cell(row, cols["sku"]))
		if !ok || sku == "" {
			skipped++
			continue
		}
		key := dayKey{sku: sku, date: date}
		agg := groups[key]
		if agg == nil {
			agg = &orderAgg{}
			groups[key] = agg
		}
		agg.purchases += numericOrZero(cell(row, cols["quantity"]))
		agg.revenue += numericOrZero(cell(row, cols["line_total"]))
	}
	if len(groups) == 0 {
		ing.logger.Warn("orders file produced no rows after aggregation",
			logging.String("file", filepath.Base(path)))
		return &Report{Skipped: skipped}, nil
	}

	stats := make([]*domainCatalog.DailyStat, 0, len(groups))
	for key, agg := range groups {
		stats = append(stats, &domainCatalog.DailyStat{
			Sku:       key.sku,
			Date:      key.date,
			Purchases: int(agg.purchases),
			Revenue:   agg.revenue,
		})
	}
	sortStats(stats)

	return ing.upsertStats(ctx, "orders", path, stats, skipped)
}

// Returns aggregates a returns CSV into daily return counters, merging
// into the same rows the order ingest writes.
func (ing *Ingestor) Returns(ctx context.Context, path string) (*Report, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(table.Headers, returnColumns)
	if err != nil {
		return nil, err
	}

	groups := make(map[dayKey]float64)
	skipped := 0
	for _, row := range table.Rows {
		date, ok := parseDay(cell(row, cols["return_date"]))
		sku := strings.TrimSpace(cell(row, cols["sku"]))
		if !ok || sku == "" {
			skipped++
			continue
		}
		groups[dayKey{sku: sku, date: date}] += numericOrZero(cell(row, cols["quantity"]))
	}
	if len(groups) == 0 {
		ing.logger.Warn("returns file produced no rows after aggregation",
			logging.String("file", filepath.Base(path)))
		return &Report{Skipped: skipped}, nil
	}

	stats := make([]*domainCatalog.DailyStat, 0, len(groups))
	for key, qty := range groups {
		stats = append(stats, &domainCatalog.DailyStat{
			Sku:     key.sku,
			Date:    key.date,
			Returns: int(qty),
		})
	}
	sortStats(stats)

	return ing.upsertStats(ctx, "returns", path, stats, skipped)
}

func (ing *Ingestor) upsertStats(ctx context.Context, source, path string, stats []*domainCatalog.DailyStat, skipped int) (*Report, error) {
	bulk, err := ing.stats.BulkUpsert(ctx, stats)
	if err != nil {
		return nil, err
	}
	report := reportFromBulk(bulk, skipped)
	ing.record(source, report)

	if bulk.Failed > 0 {
		return report, errors.Newf(errors.ErrCodeStoreWrite,
			"bulk upsert failed for %d of %d daily rows", bulk.Failed, len(stats))
	}

	ing.logger.Info(source+" aggregated into daily stats",
		logging.String("file", filepath.Base(path)),
		logging.Int("rows", len(stats)),
		logging.Int("created", report.Created),
		logging.Int("updated", report.Updated),
		logging.Int("noop", report.Noops),
		logging.Int("skipped", report.Skipped))
	return report, nil
}

// parseDay extracts the civil date from a CSV cell, trying each known
// layout.
func parseDay(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func numericOrZero(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func sortStats(stats []*domainCatalog.DailyStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Date != stats[j].Date {
			return stats[i].Date < stats[j].Date
		}
		return stats[i].Sku < stats[j].Sku
	})
}
