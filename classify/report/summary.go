// Package report summarizes a table build for the command line.
package report

import (
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/autocomp/autocomp-tools/classify"
	"github.com/autocomp/autocomp-tools/classify/perflog"
)

// WinShare is the number of cells in which a compressor was selected.
type WinShare struct {
	Compressor string
	Cells      int
	Share      float64 // fraction of populated cells
}

// RateStats describes the distribution of selected transmission rates.
type RateStats struct {
	Min, Max, Mean, StdDev, Median float64
}

// Summary aggregates one build: ingestion counters, selection shape and
// selected-rate statistics.
type Summary struct {
	Ingest         perflog.IngestStats
	PopulatedCells int
	Winners        []WinShare // sorted by Cells desc, then name
	SelectedRate   RateStats
	// RateByBandwidth is the mean selected rate per bandwidth bucket; zero
	// where no cell in that bucket is populated.
	RateByBandwidth []float64
}

// Summarize computes a Summary for sel. Safe for an empty selection.
func Summarize(sel *classify.Selection, ingest perflog.IngestStats) *Summary {
	summary := &Summary{
		Ingest:          ingest,
		PopulatedCells:  sel.Len(),
		RateByBandwidth: make([]float64, classify.NumBandwidthBuckets),
	}
	if sel.Len() == 0 {
		return summary
	}

	wins := make(map[string]int)
	rates := make([]float64, 0, sel.Len())
	var perBW [classify.NumBandwidthBuckets]int
	for _, r := range sel.Recommendations {
		wins[r.Compressor]++
		rates = append(rates, r.Mean)
		summary.RateByBandwidth[r.Bucket.Bandwidth] += r.Mean
		perBW[r.Bucket.Bandwidth]++
	}
	for i, n := range perBW {
		if n > 0 {
			summary.RateByBandwidth[i] /= float64(n)
		}
	}

	for c, n := range wins {
		summary.Winners = append(summary.Winners, WinShare{
			Compressor: c,
			Cells:      n,
			Share:      float64(n) / float64(sel.Len()),
		})
	}
	sort.Slice(summary.Winners, func(i, j int) bool {
		a, b := summary.Winners[i], summary.Winners[j]
		if a.Cells != b.Cells {
			return a.Cells > b.Cells
		}
		return a.Compressor < b.Compressor
	})

	sample := stats.Sample{Xs: rates}
	summary.SelectedRate.Min, summary.SelectedRate.Max = stats.Bounds(rates)
	summary.SelectedRate.Mean = sample.Mean()
	summary.SelectedRate.Median = sample.Quantile(0.5)
	if len(rates) > 1 {
		summary.SelectedRate.StdDev = sample.StdDev()
	}
	return summary
}
