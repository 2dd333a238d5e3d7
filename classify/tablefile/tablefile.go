// Package tablefile reads and writes the serialized compressor-selection
// table: one "cpu,bandwidth,bytecounting,compressor" row per populated cell,
// no header, in traversal order.
package tablefile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/autocomp/autocomp-tools/classify"
)

// WriteOptions controls the output dialect.
type WriteOptions struct {
	// UseCRLF terminates rows with \r\n, matching tables produced by
	// Python's csv module.
	UseCRLF bool
}

// Write emits one row per recommendation in sel.
func Write(w io.Writer, sel *classify.Selection, opts WriteOptions) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = opts.UseCRLF
	for _, r := range sel.Recommendations {
		row := []string{
			strconv.Itoa(r.Bucket.CPU),
			strconv.Itoa(r.Bucket.Bandwidth),
			strconv.Itoa(r.Bucket.Bytecounting),
			r.Compressor,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing table row %s: %w", r.Bucket, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// WriteFile writes sel to path, creating parent directories as needed.
func WriteFile(path string, sel *classify.Selection, opts WriteOptions) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating table directory %s: %w", dir, err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating table %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing table %s: %w", path, closeErr)
		}
	}()
	bw := bufio.NewWriter(file)
	if err := Write(bw, sel, opts); err != nil {
		return fmt.Errorf("table %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing table %s: %w", path, err)
	}
	return nil
}

// Read parses a serialized table. Buckets outside the table dimensions are
// rejected. Means and counts are not stored in the file and read back as zero.
func Read(r io.Reader) (*classify.Selection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var recs []classify.Recommendation
	for rowIdx := 0; ; rowIdx++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table row %d: %w", rowIdx, err)
		}
		var idx [3]int
		for i := range idx {
			v, err := strconv.Atoi(strings.TrimSpace(record[i]))
			if err != nil {
				return nil, fmt.Errorf("table row %d: invalid bucket index %q: %w", rowIdx, record[i], err)
			}
			idx[i] = v
		}
		b := classify.Bucket{CPU: idx[0], Bandwidth: idx[1], Bytecounting: idx[2]}
		if !b.InRange() {
			return nil, fmt.Errorf("table row %d: bucket %s outside table", rowIdx, b)
		}
		recs = append(recs, classify.Recommendation{Bucket: b, Compressor: strings.TrimSpace(record[3])})
	}
	return classify.NewSelection(recs), nil
}

// ReadFile parses the table stored at path.
func ReadFile(path string) (*classify.Selection, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only file
	sel, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", path, err)
	}
	return sel, nil
}

// OutputPath composes the timestamped table path used by the build command.
func OutputPath(dir string, now time.Time) string {
	return filepath.Join(dir, "training_data_"+now.Format("20060102-150405")+".csv")
}

// ParseCompressorID splits a table label such as "zlib_6" into an upper-case
// compressor name and level. Labels without a level return level -1.
func ParseCompressorID(id string) (name string, level int, err error) {
	name, rawLevel, found := strings.Cut(id, "_")
	name = strings.ToUpper(name)
	if name == "" {
		return "", 0, fmt.Errorf("empty compressor name in %q", id)
	}
	if !found {
		return name, -1, nil
	}
	level, err = strconv.Atoi(rawLevel)
	if err != nil {
		return "", 0, fmt.Errorf("invalid compression level in %q: %w", id, err)
	}
	return name, level, nil
}
