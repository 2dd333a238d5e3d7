package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aclements/go-moremath/stats"
	"github.com/guptarohit/asciigraph"
	"github.com/kr/pretty"
	"github.com/olekukonko/tablewriter"

	"github.com/autocomp/autocomp-tools/classify"
	"github.com/autocomp/autocomp-tools/classify/perflog"
)

// Render writes the summary as text tables followed by an ASCII plot of the
// selected rate across bandwidth buckets.
func (s *Summary) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "rows: %d  accepted: %d  dropped: %d  populated cells: %d\n",
		s.Ingest.Rows, s.Ingest.Accepted, s.Ingest.TotalDropped(), s.PopulatedCells); err != nil {
		return err
	}
	if s.Ingest.Clamped > 0 {
		if _, err := fmt.Fprintf(w, "clamped to table edges: %d\n", s.Ingest.Clamped); err != nil {
			return err
		}
	}

	if len(s.Ingest.Dropped) > 0 {
		reasons := make([]string, 0, len(s.Ingest.Dropped))
		for r := range s.Ingest.Dropped {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		drops := tablewriter.NewWriter(w)
		drops.SetHeader([]string{"Drop reason", "Rows"})
		for _, r := range reasons {
			drops.Append([]string{r, strconv.Itoa(s.Ingest.Dropped[perflog.DropReason(r)])})
		}
		drops.Render()
	}

	if len(s.Winners) == 0 {
		return nil
	}
	wins := tablewriter.NewWriter(w)
	wins.SetHeader([]string{"Compressor", "Cells", "Share"})
	wins.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, ws := range s.Winners {
		wins.Append([]string{ws.Compressor, strconv.Itoa(ws.Cells), fmt.Sprintf("%.1f%%", ws.Share*100)})
	}
	wins.Render()

	r := s.SelectedRate
	if _, err := fmt.Fprintf(w, "selected rate: min %.2f  median %.2f  mean %.2f  stddev %.2f  max %.2f\n",
		r.Min, r.Median, r.Mean, r.StdDev, r.Max); err != nil {
		return err
	}
	// asciigraph needs a non-degenerate range.
	if lo, hi := stats.Bounds(s.RateByBandwidth); lo == hi {
		return nil
	}
	plot := asciigraph.Plot(s.RateByBandwidth,
		asciigraph.Height(10),
		asciigraph.Caption("mean selected transmission rate by bandwidth bucket"))
	_, err := fmt.Fprintln(w, plot)
	return err
}

// DumpCells writes up to limit populated cells of tbl with every compressor's
// running statistics; the selected compressor is starred. A limit <= 0 prints
// all cells. With raw set, cells are printed as Go values instead of a table.
func DumpCells(w io.Writer, tbl *classify.Table, limit int, raw bool) error {
	var out *tablewriter.Table
	if !raw {
		out = tablewriter.NewWriter(w)
		out.SetHeader([]string{"CPU", "BW", "BC", "Compressor", "Mean rate", "Count", "Best"})
	}
	var err error
	n := 0
	tbl.Each(func(b classify.Bucket, c *classify.Cell) bool {
		if limit > 0 && n == limit {
			return false
		}
		n++
		if raw {
			_, err = pretty.Fprintf(w, "%s: %# v\n", b.String(), c.Stats())
			return err == nil
		}
		best, _ := classify.Best(c)
		for _, st := range c.Stats() {
			mark := ""
			if st.Compressor == best.Compressor {
				mark = "*"
			}
			out.Append([]string{
				strconv.Itoa(b.CPU), strconv.Itoa(b.Bandwidth), strconv.Itoa(b.Bytecounting),
				st.Compressor, strconv.FormatFloat(st.Mean, 'f', 2, 64), strconv.Itoa(st.Count), mark,
			})
		}
		return true
	})
	if err != nil {
		return err
	}
	if out != nil {
		out.Render()
	}
	return nil
}
