package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autocomp/autocomp-tools/classify"
	"github.com/autocomp/autocomp-tools/classify/tablefile"
)

var (
	lookupCPU          float64
	lookupBandwidth    float64
	lookupBytecounting float64
)

// Recommend returns the recommendation in sel for the given operating
// conditions. ok is false when the cell was never populated or the conditions
// fall outside the table under the drop policy.
func Recommend(sel *classify.Selection, q classify.Quantizer, cpu, bw, bc float64) (classify.Recommendation, bool) {
	b, ok := q.Bucket(cpu, bw, bc)
	if !ok {
		return classify.Recommendation{}, false
	}
	return sel.Lookup(b)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <table>",
	Short: "Look up the recommended compressor for a set of operating conditions",
	Long: "Quantize the given CPU load, bandwidth and bytecounting score and print the compressor " +
		"the table recommends for that cell. The table file does not record the CPU scale it was " +
		"built with: pass the same --cpu-scale (or config) that was used for build.",
	Args: exactlyOnePath,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie(cmd)
		sel, err := tablefile.ReadFile(args[0])
		if err != nil {
			logrus.Fatalf("Reading table failed: %v", err)
		}
		rec, ok := Recommend(sel, cfg.Quantizer(), lookupCPU, lookupBandwidth, lookupBytecounting)
		if !ok {
			logrus.Fatalf("No recommendation for cpu=%v bandwidth=%v bytecounting=%v", lookupCPU, lookupBandwidth, lookupBytecounting)
		}
		name, level, err := tablefile.ParseCompressorID(rec.Compressor)
		if err != nil {
			logrus.Fatalf("Invalid table entry: %v", err)
		}
		fmt.Printf("%s\t%s\t%s\t%d\n", rec.Bucket, rec.Compressor, name, level)
	},
}

func init() {
	lookupCmd.Flags().Float64Var(&lookupCPU, "cpu", 0, "CPU load, in the configured --cpu-scale")
	lookupCmd.Flags().Float64Var(&lookupBandwidth, "bandwidth", 0, "Available bandwidth (kbit/s)")
	lookupCmd.Flags().Float64Var(&lookupBytecounting, "bytecounting", 0, "Bytecounting score of the payload")
	for _, name := range []string{"cpu", "bandwidth", "bytecounting"} {
		_ = lookupCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(lookupCmd)
}
