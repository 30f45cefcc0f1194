package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vitrina-analytics/catalog-insight/internal/application/analytics"
	"github.com/vitrina-analytics/catalog-insight/internal/application/quality"
)

// NewValidateCmd groups the data sanity checks.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check stored incidents and products for data problems",
	}
	cmd.AddCommand(newValidateIncidentsCmd(), newValidateProductsCmd())
	return cmd
}

// newQualityService wires the quality checks over an open store.
func newQualityService(cliCtx *CLIContext, deps *storeDeps) quality.Service {
	osCfg := cliCtx.Config.OpenSearch
	kpis := analytics.NewService(deps.searcher, analytics.Config{
		IncidentsIndex: osCfg.IncidentsIndexName(),
		ProductsIndex:  osCfg.ProductsIndexName(),
	}, cliCtx.Logger)
	return quality.NewService(deps.searcher, kpis, quality.Config{
		IncidentsIndex: osCfg.IncidentsIndexName(),
		ProductsIndex:  osCfg.ProductsIndexName(),
	}, cliCtx.Logger)
}

func newValidateIncidentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "incidents",
		Short: "Find incidents violating the quantity rule or missing key fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := openStore(cliCtx)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rep, err := newQualityService(cliCtx, deps).ValidateIncidents(ctx)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, rep)
			}
			renderIncidentReport(cmd, rep)
			return nil
		},
	}
}

func newValidateProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "Report missing product fields and attribute coverage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := openStore(cliCtx)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rep, err := newQualityService(cliCtx, deps).ValidateProducts(ctx)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, rep)
			}
			renderProductReport(cmd, rep)
			return nil
		},
	}
}

func renderIncidentReport(cmd *cobra.Command, rep *quality.IncidentReport) {
	out := cmd.OutOrStdout()
	if rep.Clean {
		fmt.Fprintln(out, "incident data is clean")
		return
	}

	if len(rep.Offending) > 0 {
		fmt.Fprintf(out, "%d incident(s) report more damaged units than shipped:\n", len(rep.Offending))
		rows := make([][]string, 0, len(rep.Offending))
		for _, rec := range rep.Offending {
			rows = append(rows, []string{
				rec.IncidentID,
				rec.SupplierID,
				rec.Sku,
				strconv.Itoa(rec.QtyTotalInShipment),
				strconv.Itoa(rec.QtyDamaged),
			})
		}
		fmt.Fprint(out, FormatTable([]string{"INCIDENT", "SUPPLIER", "SKU", "TOTAL", "DAMAGED"}, rows))
	}

	if len(rep.MissingFields) > 0 {
		fmt.Fprintln(out, "documents missing critical fields:")
		rows := make([][]string, 0, len(rep.MissingFields))
		for _, fc := range rep.MissingFields {
			rows = append(rows, []string{fc.Field, strconv.FormatInt(fc.Count, 10)})
		}
		fmt.Fprint(out, FormatTable([]string{"FIELD", "MISSING"}, rows))
	}
}

func renderProductReport(cmd *cobra.Command, rep *quality.ProductReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "products indexed: %d\n", rep.TotalDocuments)

	if len(rep.MissingFields) > 0 {
		rows := make([][]string, 0, len(rep.MissingFields))
		for _, fr := range rep.MissingFields {
			rows = append(rows, []string{fr.Field, fmt.Sprintf("%.1f%%", fr.MissingRatio*100)})
		}
		fmt.Fprint(out, FormatTable([]string{"FIELD", "MISSING"}, rows))
	}

	for _, cov := range rep.Coverage {
		fmt.Fprintf(out, "coverage of %s (top categories):\n", cov.Attribute)
		rows := make([][]string, 0, len(cov.Top))
		for _, cs := range cov.Top {
			rows = append(rows, []string{
				cs.CategoryMain,
				strconv.FormatInt(cs.TotalSkus, 10),
				fmt.Sprintf("%.1f%%", cs.CoverageRatio*100),
			})
		}
		fmt.Fprint(out, FormatTable([]string{"CATEGORY", "SKUS", "COVERED"}, rows))
	}
}
