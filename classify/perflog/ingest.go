package perflog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/autocomp/autocomp-tools/classify"
)

// ctxCheckInterval is how many rows are read between cancellation checks.
const ctxCheckInterval = 1024

// IngestStats counts what happened to the rows of one or more logs.
type IngestStats struct {
	Rows     int
	Accepted int
	Clamped  int // accepted rows whose bucket was pinned into the table
	Dropped  map[DropReason]int
}

// NewIngestStats returns zeroed stats.
func NewIngestStats() IngestStats {
	return IngestStats{Dropped: make(map[DropReason]int)}
}

// TotalDropped returns the number of rows dropped for any reason.
func (s IngestStats) TotalDropped() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Add accumulates o into s.
func (s *IngestStats) Add(o IngestStats) {
	if s.Dropped == nil {
		s.Dropped = make(map[DropReason]int)
	}
	s.Rows += o.Rows
	s.Accepted += o.Accepted
	s.Clamped += o.Clamped
	for r, c := range o.Dropped {
		s.Dropped[r] += c
	}
}

// Ingestor streams performance logs into Decision Tables.
type Ingestor struct {
	Filter Filter
}

// Ingest reads every record from r and folds accepted samples into tbl.
// source names r in error messages. Any malformed row aborts the run.
func (in *Ingestor) Ingest(ctx context.Context, r io.Reader, source string, tbl *classify.Table) (IngestStats, error) {
	stats := NewIngestStats()
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	q := tbl.Quantizer()
	rowIdx := 0
	for {
		if rowIdx%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("perf log %s row %d: %w", source, rowIdx, err)
		}
		stats.Rows++

		sample, reason, err := ParseRecord(record, in.Filter)
		if err != nil {
			return stats, fmt.Errorf("perf log %s row %d: %w", source, rowIdx, err)
		}
		if reason == DropNone {
			added, err := tbl.Add(sample.CPULoad, sample.Bandwidth, float64(sample.Bytecounting),
				sample.Compressor, sample.TransmissionRate())
			if err != nil {
				return stats, fmt.Errorf("perf log %s row %d: %w", source, rowIdx, err)
			}
			if !added {
				reason = DropOutOfRange
			}
		}
		if reason != DropNone {
			stats.Dropped[reason]++
			logrus.Debugf("perf log %s row %d: dropped (%s)", source, rowIdx, reason)
		} else {
			stats.Accepted++
			if !q.Raw(sample.CPULoad, sample.Bandwidth, float64(sample.Bytecounting)).InRange() {
				stats.Clamped++
			}
		}
		rowIdx++
	}
	if stats.Clamped > 0 {
		logrus.Warnf("perf log %s: %d rows fell outside the table and were clamped to its edges", source, stats.Clamped)
	}
	return stats, nil
}

// IngestFile ingests a single log file into tbl.
func (in *Ingestor) IngestFile(ctx context.Context, path string, tbl *classify.Table) (IngestStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return NewIngestStats(), fmt.Errorf("opening perf log %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only file
	return in.Ingest(ctx, file, path, tbl)
}

// IngestDir ingests every *.csv file in dir concurrently, one partial table
// per file, and merges the partials in lexical file order.
func (in *Ingestor) IngestDir(ctx context.Context, dir string, q classify.Quantizer) (*classify.Table, IngestStats, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, NewIngestStats(), fmt.Errorf("listing perf logs in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, NewIngestStats(), fmt.Errorf("no *.csv perf logs in %s", dir)
	}
	sort.Strings(paths)

	partials := make([]*classify.Table, len(paths))
	partStats := make([]IngestStats, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			tbl := classify.NewTable(q)
			s, err := in.IngestFile(gctx, path, tbl)
			if err != nil {
				return err
			}
			partials[i], partStats[i] = tbl, s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NewIngestStats(), err
	}

	merged := classify.NewTable(q)
	total := NewIngestStats()
	for i, part := range partials {
		if err := merged.Merge(part); err != nil {
			return nil, total, fmt.Errorf("merging %s: %w", paths[i], err)
		}
		total.Add(partStats[i])
		logrus.Debugf("merged %s: %d rows, %d accepted", paths[i], partStats[i].Rows, partStats[i].Accepted)
	}
	return merged, total, nil
}

// IngestPath ingests path, which may be a single log or a directory of logs.
func (in *Ingestor) IngestPath(ctx context.Context, path string, q classify.Quantizer) (*classify.Table, IngestStats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewIngestStats(), fmt.Errorf("perf log %s: %w", path, err)
	}
	if info.IsDir() {
		return in.IngestDir(ctx, path, q)
	}
	tbl := classify.NewTable(q)
	stats, err := in.IngestFile(ctx, path, tbl)
	if err != nil {
		return nil, stats, err
	}
	return tbl, stats, nil
}
