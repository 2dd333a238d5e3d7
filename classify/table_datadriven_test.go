package classify

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
)

// TestTableDataDriven runs table scenarios from testdata/table.
//
//	new [cpu-scale=<scale>] [overflow=<policy>]
//	add          (input: one "cpu bw bc compressor rate" sample per line)
//	cells        prints every populated cell with mean/count per compressor
//	reduce       prints the selected compressor per populated cell
func TestTableDataDriven(t *testing.T) {
	var tbl *Table
	datadriven.RunTest(t, "testdata/table", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "new":
			var q Quantizer
			for _, arg := range td.CmdArgs {
				switch arg.Key {
				case "cpu-scale":
					q.CPUScale = CPUScale(arg.Vals[0])
				case "overflow":
					q.Overflow = OverflowPolicy(arg.Vals[0])
				default:
					t.Fatalf("unknown argument %q", arg.Key)
				}
			}
			tbl = NewTable(q)
			return ""

		case "add":
			var added, dropped int
			for _, line := range strings.Split(strings.TrimSpace(td.Input), "\n") {
				f := strings.Fields(line)
				if len(f) != 5 {
					t.Fatalf("expected 5 fields, got %q", line)
				}
				nums := make([]float64, 3)
				for i := range nums {
					v, err := strconv.ParseFloat(f[i], 64)
					if err != nil {
						t.Fatal(err)
					}
					nums[i] = v
				}
				rate, err := strconv.ParseFloat(f[4], 64)
				if err != nil {
					t.Fatal(err)
				}
				ok, err := tbl.Add(nums[0], nums[1], nums[2], f[3], rate)
				if err != nil {
					return fmt.Sprintf("error: %v", err)
				}
				if ok {
					added++
				} else {
					dropped++
				}
			}
			return fmt.Sprintf("added %d, dropped %d", added, dropped)

		case "cells":
			var b strings.Builder
			tbl.Each(func(bucket Bucket, c *Cell) bool {
				fmt.Fprintf(&b, "%s:", bucket)
				for _, s := range c.Stats() {
					fmt.Fprintf(&b, " %s=%.2f/%d", s.Compressor, s.Mean, s.Count)
				}
				b.WriteString("\n")
				return true
			})
			return b.String()

		case "reduce":
			var b strings.Builder
			for _, r := range tbl.Reduce().Recommendations {
				fmt.Fprintf(&b, "%s %s\n", r.Bucket, r.Compressor)
			}
			return b.String()

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}
