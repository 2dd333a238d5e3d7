package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML build configuration
	cpuScale   string // CPU load scale override
	overflow   string // Overflow policy override
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "autocomp-tools",
	Short: "Build and query AutoComp compressor-selection tables",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// loadConfigOrDie loads --config and applies flag overrides that were set
// explicitly on cmd.
func loadConfigOrDie(cmd *cobra.Command) Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	if cmd.Flags().Changed("cpu-scale") {
		cfg.CPULoadScale = cpuScale
	}
	if cmd.Flags().Changed("overflow") {
		cfg.Overflow = overflow
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("%v", err)
	}
	return cfg
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags shared by all subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML build configuration")
	rootCmd.PersistentFlags().StringVar(&cpuScale, "cpu-scale", "percent", "How CPU load is recorded in the log (percent, fraction)")
	rootCmd.PersistentFlags().StringVar(&overflow, "overflow", "clamp", "Out-of-range bucket handling (clamp, drop)")
}
