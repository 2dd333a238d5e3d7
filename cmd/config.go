package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/autocomp/autocomp-tools/classify"
	"github.com/autocomp/autocomp-tools/classify/perflog"
)

// Config is the optional build configuration file.
// All keys must be listed here to satisfy KnownFields(true) strict parsing.
type Config struct {
	ExcludedCompressors []string `yaml:"excluded_compressors"`
	CPULoadScale        string   `yaml:"cpu_load_scale"` // "percent" or "fraction"
	Overflow            string   `yaml:"overflow"`       // "clamp" or "drop"
	LogDir              string   `yaml:"log_dir"`
	CRLF                bool     `yaml:"crlf"` // terminate table rows with \r\n
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ExcludedCompressors: append([]string(nil), perflog.DefaultExcluded...),
		CPULoadScale:        string(classify.CPUScalePercent),
		Overflow:            string(classify.OverflowClamp),
		LogDir:              "./log",
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig. Unknown keys are
// rejected. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enum-valued fields.
func (c Config) Validate() error {
	if !classify.IsValidCPUScale(c.CPULoadScale) {
		return fmt.Errorf("unknown cpu_load_scale %q; valid: percent, fraction", c.CPULoadScale)
	}
	if !classify.IsValidOverflowPolicy(c.Overflow) {
		return fmt.Errorf("unknown overflow %q; valid: clamp, drop", c.Overflow)
	}
	return nil
}

// Quantizer returns the quantizer described by the config.
func (c Config) Quantizer() classify.Quantizer {
	return classify.Quantizer{
		CPUScale: classify.CPUScale(c.CPULoadScale),
		Overflow: classify.OverflowPolicy(c.Overflow),
	}
}

// Filter returns the ingestion filter described by the config.
func (c Config) Filter() perflog.Filter {
	return perflog.Filter{Excluded: c.ExcludedCompressors}
}
