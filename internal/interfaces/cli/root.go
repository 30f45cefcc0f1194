// Package cli implements the insight command line tool: index setup,
// shop-export ingestion and data quality checks against the document
// store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrina-analytics/catalog-insight/internal/config"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const defaultConfigFile = "insight.yaml"

type cliContextKey struct{}

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// CLIContext carries the initialized dependencies through the command
// tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// NewRootCommand builds the insight root command with the global flags
// and all subcommands attached.  Dependencies are constructed lazily
// inside each subcommand's RunE, so help and flag errors never open a
// store connection.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "insight",
		Short: "catalog-insight operations tool",
		Long: "insight manages the catalog-insight document store: index setup,\n" +
			"shop-export ingestion and data quality checks.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./insight.yaml, else environment)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging, same as --log-level debug")
	pf.DurationVar(&opts.Timeout, "timeout", 60*time.Second, "per-command timeout")

	cmd.AddCommand(
		NewSetupCmd(),
		NewIngestCmd(),
		NewValidateCmd(),
		NewAuditCmd(),
	)

	return cmd
}

// persistentPreRun loads the config and builds the logger, then stores
// the CLIContext on the command's context for subcommands to pick up.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newCLILogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Verbose:      opts.Verbose,
		Timeout:      opts.Timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// resolveConfig loads from --config when given, falls back to
// ./insight.yaml when present, and otherwise builds the config from
// INSIGHT_* environment variables alone.
func resolveConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return config.Load(defaultConfigFile)
	}
	return config.LoadFromEnv()
}

// newCLILogger builds a console logger on stderr so command output on
// stdout stays parseable.
func newCLILogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by persistentPreRun.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLI context not initialized")
	}
	return cliCtx, nil
}

// commandContext derives the per-command timeout context.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	timeout := cliCtx.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

// storeDeps bundles the document-store plumbing a command needs.
type storeDeps struct {
	client   *opensearch.Client
	searcher *opensearch.Searcher
	indexer  *opensearch.Indexer
}

// openStore connects to the document store using the loaded config.
func openStore(cliCtx *CLIContext) (*storeDeps, error) {
	osCfg := cliCtx.Config.OpenSearch
	client, err := opensearch.NewClient(opensearch.ClientConfig{
		Addresses:          osCfg.Addresses,
		Username:           osCfg.User,
		Password:           osCfg.Password,
		InsecureSkipVerify: osCfg.InsecureSkipVerify,
		MaxRetries:         osCfg.MaxRetries,
		RequestTimeout:     osCfg.RequestTimeout,
	}, cliCtx.Logger)
	if err != nil {
		return nil, err
	}

	return &storeDeps{
		client:   client,
		searcher: opensearch.NewSearcher(client, opensearch.SearcherConfig{}, cliCtx.Logger),
		indexer:  opensearch.NewIndexer(client, opensearch.IndexerConfig{BulkBatchSize: osCfg.BulkBatchSize}, cliCtx.Logger),
	}, nil
}

func (d *storeDeps) Close() {
	_ = d.client.Close()
}

// Execute runs the insight CLI and prints any command error to stderr.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

// jsonOutput reports whether the user asked for machine-readable output.
func jsonOutput(cmd *cobra.Command) bool {
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		return strings.EqualFold(cliCtx.OutputFormat, "json")
	}
	return false
}

// printJSON writes data as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, widths[i]))
	}
	sb.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
