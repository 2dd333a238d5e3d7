// Package perflog parses AutoComp benchmark logs and folds them into a
// classify.Table.
package perflog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column layout of a performance log row. Columns past CompressionRatioCol are
// ignored.
const (
	CompressorCol = iota
	CompressionLevelCol
	CPULoadCol
	BandwidthCol
	BytecountingCol
	CompressionRateCol
	CompressionRatioCol

	minColumns
)

// NoLevel is the compression-level token for compressors without levels.
const NoLevel = "-1"

// MaxBytecounting is the largest bytecounting score accepted into the table.
const MaxBytecounting = 100

// ErrMalformedRow marks a row whose required fields cannot be parsed.
var ErrMalformedRow = errors.New("malformed performance record")

// Sample is one validated benchmark record.
type Sample struct {
	Compressor       string
	CPULoad          float64
	Bandwidth        float64 // kbit/s
	Bytecounting     int
	CompressionRate  float64
	CompressionRatio float64
}

// TransmissionRate is the effective end-to-end delivery rate: the slower of
// the link and the compressor, scaled by the compression ratio.
func (s Sample) TransmissionRate() float64 {
	return math.Min(s.Bandwidth, s.CompressionRate) * s.CompressionRatio
}

// CompressorID builds the table key for a compressor and level token.
// A level of "-1" yields the bare name; otherwise name and level are joined
// with an underscore. The result is lower-cased.
func CompressorID(name, level string) string {
	if level == NoLevel {
		return strings.ToLower(name)
	}
	return strings.ToLower(name + "_" + level)
}

// DropReason explains why a row was left out of the table.
type DropReason string

const (
	DropNone          DropReason = ""
	DropZeroBandwidth DropReason = "zero_bandwidth"
	DropBytecounting  DropReason = "bytecounting"
	DropExcluded      DropReason = "excluded"
	DropOutOfRange    DropReason = "out_of_range"
)

// Filter decides which rows are dropped before aggregation.
type Filter struct {
	// Excluded lists compressors to skip, matched case-insensitively against
	// either the raw name column or the compressor ID.
	Excluded []string
}

// DefaultExcluded is the exclusion list used when none is configured.
var DefaultExcluded = []string{"LZO"}

func (f Filter) excluded(name, id string) bool {
	for _, e := range f.Excluded {
		if strings.EqualFold(e, name) || strings.EqualFold(e, id) {
			return true
		}
	}
	return false
}

func (f Filter) check(name, id string, bandwidth, bytecounting float64) DropReason {
	switch {
	case f.excluded(name, id):
		return DropExcluded
	case bytecounting > MaxBytecounting:
		return DropBytecounting
	case bandwidth == 0:
		return DropZeroBandwidth
	}
	return DropNone
}

var errNotFinite = errors.New("value is not finite")

func fieldError(field, value string, err error) error {
	return fmt.Errorf("%w: invalid %s %q: %w", ErrMalformedRow, field, value, err)
}

func parseFloatField(record []string, col int, field string) (float64, error) {
	raw := strings.TrimSpace(record[col])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fieldError(field, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fieldError(field, raw, errNotFinite)
	}
	return v, nil
}

// ParseRecord parses one CSV record. Filtering happens before the remaining
// numeric fields are parsed, so a dropped row never fails on them. The
// returned reason is DropNone for an accepted sample.
func ParseRecord(record []string, f Filter) (Sample, DropReason, error) {
	if len(record) < minColumns {
		return Sample{}, DropNone, fmt.Errorf("%w: expected at least %d columns, got %d", ErrMalformedRow, minColumns, len(record))
	}
	name := strings.TrimSpace(record[CompressorCol])
	id := CompressorID(name, strings.TrimSpace(record[CompressionLevelCol]))

	bandwidth, err := parseFloatField(record, BandwidthCol, "bandwidth")
	if err != nil {
		return Sample{}, DropNone, err
	}
	bcValue, err := parseFloatField(record, BytecountingCol, "bytecounting")
	if err != nil {
		return Sample{}, DropNone, err
	}
	if reason := f.check(name, id, bandwidth, bcValue); reason != DropNone {
		return Sample{}, reason, nil
	}

	rawBC := strings.TrimSpace(record[BytecountingCol])
	bytecounting, err := strconv.Atoi(rawBC)
	if err != nil {
		return Sample{}, DropNone, fieldError("bytecounting", rawBC, err)
	}
	cpu, err := parseFloatField(record, CPULoadCol, "cpu_load")
	if err != nil {
		return Sample{}, DropNone, err
	}
	rate, err := parseFloatField(record, CompressionRateCol, "compression_rate")
	if err != nil {
		return Sample{}, DropNone, err
	}
	ratio, err := parseFloatField(record, CompressionRatioCol, "compression_ratio")
	if err != nil {
		return Sample{}, DropNone, err
	}
	return Sample{
		Compressor:       id,
		CPULoad:          cpu,
		Bandwidth:        bandwidth,
		Bytecounting:     bytecounting,
		CompressionRate:  rate,
		CompressionRatio: ratio,
	}, DropNone, nil
}
