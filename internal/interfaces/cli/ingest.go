package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/storage/minio"
	"github.com/vitrina-analytics/catalog-insight/internal/ingest"
	"github.com/vitrina-analytics/catalog-insight/internal/mining"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

var (
	ingestFile   string
	ingestBucket string
	ingestObject string
)

// ingestSummary is the printable result of one ingest run.
type ingestSummary struct {
	Source string `json:"source"`
	File   string `json:"file"`
	*ingest.Report
}

func (s ingestSummary) String() string {
	return fmt.Sprintf("%s %s: created=%d updated=%d noop=%d skipped=%d",
		s.Source, s.File, s.Created, s.Updated, s.Noops, s.Skipped)
}

// NewIngestCmd groups the export ingestion subcommands.  Exports come
// either from a local --file or from the object store via --object.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest shop export files into the document store",
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&ingestFile, "file", "f", "", "local export file (.csv or .xlsx)")
	pf.StringVar(&ingestBucket, "bucket", "", "object-store bucket (default: the configured bucket)")
	pf.StringVar(&ingestObject, "object", "", "object-store key of the export file")

	cmd.AddCommand(
		newIngestLeaf("products", "Ingest the product catalog export",
			func(ctx context.Context, ing *ingest.Ingestor, path string) (*ingest.Report, error) {
				return ing.Products(ctx, path)
			}),
		newIngestLeaf("orders", "Aggregate an orders export into daily purchase stats",
			func(ctx context.Context, ing *ingest.Ingestor, path string) (*ingest.Report, error) {
				return ing.Orders(ctx, path)
			}),
		newIngestLeaf("returns", "Aggregate a returns export into daily return stats",
			func(ctx context.Context, ing *ingest.Ingestor, path string) (*ingest.Report, error) {
				return ing.Returns(ctx, path)
			}),
	)

	return cmd
}

type ingestRunFunc func(context.Context, *ingest.Ingestor, string) (*ingest.Report, error)

func newIngestLeaf(use, short string, run ingestRunFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, use, run)
		},
	}
}

func runIngest(cmd *cobra.Command, source string, run ingestRunFunc) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	path, cleanup, err := resolveExportPath(ctx, cliCtx)
	if err != nil {
		return err
	}
	defer cleanup()

	deps, err := openStore(cliCtx)
	if err != nil {
		return err
	}
	defer deps.Close()

	osCfg := cliCtx.Config.OpenSearch
	ingestor := ingest.NewIngestor(
		opensearch.NewProductRepository(deps.indexer, osCfg.ProductsIndexName(), cliCtx.Logger),
		opensearch.NewStatsRepository(deps.searcher, deps.indexer, osCfg.DailyStatsIndexName(), cliCtx.Logger),
		mining.NewExtractor(),
		nil,
		cliCtx.Logger,
	)

	report, err := run(ctx, ingestor, path)
	if err != nil {
		return err
	}

	summary := ingestSummary{Source: source, File: filepath.Base(path), Report: report}
	if jsonOutput(cmd) {
		return printJSON(cmd, summary)
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.String())
	return nil
}

// resolveExportPath returns the local path of the export to ingest.  A
// --file wins; otherwise --object is fetched from the object store into
// a temp file that the returned cleanup removes.
func resolveExportPath(ctx context.Context, cliCtx *CLIContext) (string, func(), error) {
	if ingestFile != "" && ingestObject != "" {
		return "", nil, errors.New(errors.ErrCodeValidation, "--file and --object are mutually exclusive")
	}
	if ingestFile != "" {
		return ingestFile, func() {}, nil
	}
	if ingestObject == "" {
		return "", nil, errors.New(errors.ErrCodeValidation, "either --file or --object is required")
	}

	mc := cliCtx.Config.MinIO
	store, err := minio.NewExportStore(&minio.Config{
		Endpoint:  mc.Endpoint,
		AccessKey: mc.AccessKey,
		SecretKey: mc.SecretKey,
		Bucket:    mc.Bucket,
		UseSSL:    mc.UseSSL,
	}, cliCtx.Logger)
	if err != nil {
		return "", nil, err
	}

	bucket := ingestBucket
	if bucket == "" {
		bucket = mc.Bucket
	}
	return store.FetchToTemp(ctx, bucket, ingestObject)
}
