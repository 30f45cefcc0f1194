package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
)

// indexResult reports one EnsureIndex outcome.
type indexResult struct {
	Index   string `json:"index"`
	Created bool   `json:"created"`
}

func (r indexResult) String() string {
	if r.Created {
		return fmt.Sprintf("%s: created", r.Index)
	}
	return fmt.Sprintf("%s: already exists, mapping updated", r.Index)
}

// NewSetupCmd creates the setup command, which provisions the product,
// daily-stats and incident indices with their mappings.  Running it
// against existing indices is safe; mappings are re-applied in place.
func NewSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the product, daily-stats and incident indices",
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

			osCfg := cliCtx.Config.OpenSearch
			targets := []struct {
				name    string
				mapping opensearch.IndexMapping
			}{
				{osCfg.ProductsIndexName(), opensearch.ProductsIndexMapping()},
				{osCfg.DailyStatsIndexName(), opensearch.DailyStatsIndexMapping()},
				{osCfg.IncidentsIndexName(), opensearch.IncidentsIndexMapping()},
			}

			results := make([]indexResult, 0, len(targets))
			for _, tgt := range targets {
				created, err := deps.indexer.EnsureIndex(ctx, tgt.name, tgt.mapping)
				if err != nil {
					return err
				}
				results = append(results, indexResult{Index: tgt.name, Created: created})
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, results)
			}
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), r.String())
			}
			return nil
		},
	}
}
