package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vitrina-analytics/catalog-insight/internal/application/quality"
)

var (
	auditCategories []string
	auditSampleSize int
)

// NewAuditCmd creates the audit command, which draws a random product
// sample per category and flags implausible derived attributes.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Spot-check derived attributes on a random product sample",
		RunE:  runAudit,
	}
	cmd.Flags().StringSliceVar(&auditCategories, "categories", nil, "categories to sample (default: the standard nail categories)")
	cmd.Flags().IntVar(&auditSampleSize, "sample-size", 0, "products per category (default 5)")
	return cmd
}

func runAudit(cmd *cobra.Command, _ []string) error {
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

	samples, err := newQualityService(cliCtx, deps).Audit(ctx, auditCategories, auditSampleSize)
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(cmd, samples)
	}
	renderAudit(cmd, samples)
	return nil
}

func renderAudit(cmd *cobra.Command, samples []quality.CategorySample) {
	out := cmd.OutOrStdout()
	for _, sample := range samples {
		fmt.Fprintf(out, "%s (%d sampled):\n", sample.Category, len(sample.Items))
		for _, item := range sample.Items {
			fmt.Fprintf(out, "  %s  %s\n", item.Sku, item.Name)

			keys := make([]string, 0, len(item.Attributes))
			for k := range item.Attributes {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "    %s = %v\n", k, item.Attributes[k])
			}

			for _, flag := range item.Flags {
				fmt.Fprintf(out, "    ! %s\n", flag)
			}
		}
	}
}
