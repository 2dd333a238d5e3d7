package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autocomp/autocomp-tools/classify"
	"github.com/autocomp/autocomp-tools/classify/perflog"
	"github.com/autocomp/autocomp-tools/classify/report"
	"github.com/autocomp/autocomp-tools/classify/tablefile"
)

var (
	buildLogDir string // Directory receiving the timestamped table
	buildReport bool   // Print a build summary to stdout
)

// BuildResult describes one finished table build.
type BuildResult struct {
	OutputPath string
	Selection  *classify.Selection
	Summary    *report.Summary
}

// exactlyOnePath rejects any invocation without exactly one path argument.
func exactlyOnePath(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("invalid number of arguments: %d were given but 1 is required", len(args))
	}
	return nil
}

// ingest builds the accumulated Decision Table for path under cfg.
func ingest(ctx context.Context, path string, cfg Config) (*classify.Table, perflog.IngestStats, error) {
	in := &perflog.Ingestor{Filter: cfg.Filter()}
	return in.IngestPath(ctx, path, cfg.Quantizer())
}

// BuildTable ingests the log at path, reduces it, and writes the table into
// cfg.LogDir under a name stamped with now.
func BuildTable(ctx context.Context, path string, cfg Config, now time.Time) (*BuildResult, error) {
	tbl, stats, err := ingest(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	sel := tbl.Reduce()
	out := tablefile.OutputPath(cfg.LogDir, now)
	if err := tablefile.WriteFile(out, sel, tablefile.WriteOptions{UseCRLF: cfg.CRLF}); err != nil {
		return nil, err
	}
	return &BuildResult{
		OutputPath: out,
		Selection:  sel,
		Summary:    report.Summarize(sel, stats),
	}, nil
}

var buildCmd = &cobra.Command{
	Use:   "build <perf-log>",
	Short: "Build a compressor-selection table from a performance log",
	Long: "Ingest a headerless performance log (compressor, level, cpu_load, bandwidth, bytecounting, " +
		"compression_rate, compression_ratio, ...) and write the best compressor per populated cell to " +
		"<log-dir>/training_data_<timestamp>.csv. A directory argument ingests every *.csv log in it.",
	Args: exactlyOnePath,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie(cmd)
		if cmd.Flags().Changed("log-dir") {
			cfg.LogDir = buildLogDir
		}

		startTime := time.Now()
		res, err := BuildTable(cmd.Context(), args[0], cfg, startTime)
		if err != nil {
			logrus.Fatalf("Build failed: %v", err)
		}
		logrus.Infof("Wrote %d cells to %s (%d rows, %d accepted, %d dropped) in %v",
			res.Selection.Len(), res.OutputPath, res.Summary.Ingest.Rows, res.Summary.Ingest.Accepted,
			res.Summary.Ingest.TotalDropped(), time.Since(startTime))

		if buildReport {
			if err := res.Summary.Render(os.Stdout); err != nil {
				logrus.Fatalf("Writing report failed: %v", err)
			}
		}
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildLogDir, "log-dir", "./log", "Directory for the generated table (overrides log_dir in --config)")
	buildCmd.Flags().BoolVar(&buildReport, "report", false, "Print a build summary to stdout")

	rootCmd.AddCommand(buildCmd)
}
