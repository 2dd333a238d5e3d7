package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autocomp/autocomp-tools/classify/report"
)

var (
	showLimit int  // Maximum number of cells to print
	showRaw   bool // Print cells as Go values
)

var showCmd = &cobra.Command{
	Use:   "show <perf-log>",
	Short: "Print the accumulated per-compressor statistics of every populated cell",
	Args:  exactlyOnePath,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie(cmd)
		tbl, stats, err := ingest(cmd.Context(), args[0], cfg)
		if err != nil {
			logrus.Fatalf("Ingest failed: %v", err)
		}
		logrus.Infof("%d populated cells from %d rows", tbl.Populated(), stats.Rows)
		if err := report.DumpCells(os.Stdout, tbl, showLimit, showRaw); err != nil {
			logrus.Fatalf("Writing cells failed: %v", err)
		}
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 50000, "Maximum number of cells to print (0 = all)")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print cells as Go values instead of a table")

	rootCmd.AddCommand(showCmd)
}
