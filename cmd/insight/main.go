// The insight binary is the catalog-insight operations CLI: index
// setup, export ingestion and data quality checks.
package main

import (
	"os"

	"github.com/vitrina-analytics/catalog-insight/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
