package classify

import (
	"errors"
	"fmt"
)

// DampingPeriod is the update interval at which the running mean under-weights
// its history by one sample. See Update.
const DampingPeriod = 20

// ErrFinalized is returned when mutating a table after Reduce.
var ErrFinalized = errors.New("decision table is finalized")

// CompressorStat is the running performance of one compressor within a cell.
type CompressorStat struct {
	Compressor string
	Mean       float64 // running mean transmission rate
	Count      int
}

// Cell holds per-compressor statistics for one bucket, in insertion order.
// A cell belongs to the table that created it.
type Cell struct {
	table *Table
	stats []CompressorStat
	index map[string]int
}

func newCell(t *Table) *Cell {
	return &Cell{table: t, index: make(map[string]int)}
}

// Len returns the number of compressors recorded in the cell.
func (c *Cell) Len() int {
	if c == nil {
		return 0
	}
	return len(c.stats)
}

// Get returns the stat for compressor, if present.
func (c *Cell) Get(compressor string) (CompressorStat, bool) {
	if c == nil {
		return CompressorStat{}, false
	}
	i, ok := c.index[compressor]
	if !ok {
		return CompressorStat{}, false
	}
	return c.stats[i], true
}

// Stats returns a copy of the cell's stats in insertion order.
func (c *Cell) Stats() []CompressorStat {
	if c == nil {
		return nil
	}
	out := make([]CompressorStat, len(c.stats))
	copy(out, c.stats)
	return out
}

func (c *Cell) update(compressor string, rate float64) {
	i, ok := c.index[compressor]
	if !ok {
		c.index[compressor] = len(c.stats)
		c.stats = append(c.stats, CompressorStat{Compressor: compressor, Mean: rate, Count: 1})
		return
	}
	s := &c.stats[i]
	count := float64(s.Count)
	if s.Count%DampingPeriod == 0 {
		s.Mean = (s.Mean*(count-1) + rate) / (count + 1)
	} else {
		s.Mean = (s.Mean*count + rate) / (count + 1)
	}
	s.Count++
}

// Table is the three-dimensional Decision Table. Cells are allocated lazily on
// first contribution. A Table is not safe for concurrent use; build one per
// goroutine and Merge the partial results.
type Table struct {
	quantizer Quantizer
	cells     []*Cell
	populated int
	finalized bool
}

// NewTable returns an empty, accumulating table using q for quantization.
func NewTable(q Quantizer) *Table {
	return &Table{
		quantizer: q,
		cells:     make([]*Cell, NumCPUBuckets*NumBandwidthBuckets*NumBytecountingBuckets),
	}
}

// Quantizer returns the quantizer the table was built with.
func (t *Table) Quantizer() Quantizer {
	return t.quantizer
}

// Finalized reports whether Reduce has been called.
func (t *Table) Finalized() bool {
	return t.finalized
}

// Populated returns the number of non-empty cells.
func (t *Table) Populated() int {
	return t.populated
}

func offset(b Bucket) int {
	return (b.CPU*NumBandwidthBuckets+b.Bandwidth)*NumBytecountingBuckets + b.Bytecounting
}

// Lookup quantizes the operating conditions and returns the matching cell,
// creating it if needed. ok is false only when the quantizer drops
// out-of-range samples.
func (t *Table) Lookup(cpu, bw, bc float64) (cell *Cell, b Bucket, ok bool) {
	b, ok = t.quantizer.Bucket(cpu, bw, bc)
	if !ok {
		return nil, b, false
	}
	return t.cellAt(b), b, true
}

func (t *Table) cellAt(b Bucket) *Cell {
	off := offset(b)
	if t.cells[off] == nil {
		t.cells[off] = newCell(t)
	}
	return t.cells[off]
}

// Cell returns the cell at b, or nil if it has never been populated.
func (t *Table) Cell(b Bucket) *Cell {
	if !b.InRange() {
		return nil
	}
	return t.cells[offset(b)]
}

// Update folds one transmission-rate observation for compressor into cell.
//
// The first observation seeds the mean. Later ones use the incremental mean
// (mean*count + rate) / (count+1), except when count is a multiple of
// DampingPeriod, where the history is weighted by count-1 instead. The damped
// step is kept bit-for-bit so generated tables match existing ones.
func (t *Table) Update(cell *Cell, compressor string, rate float64) error {
	if t.finalized {
		return ErrFinalized
	}
	if cell == nil {
		return fmt.Errorf("update %q: nil cell", compressor)
	}
	if cell.table != t {
		return fmt.Errorf("update %q: cell belongs to another table", compressor)
	}
	if cell.Len() == 0 {
		t.populated++
	}
	cell.update(compressor, rate)
	return nil
}

// Add looks up the cell for the given conditions and updates it. It returns
// false without error when the sample is dropped as out of range.
func (t *Table) Add(cpu, bw, bc float64, compressor string, rate float64) (bool, error) {
	if t.finalized {
		return false, ErrFinalized
	}
	cell, _, ok := t.Lookup(cpu, bw, bc)
	if !ok {
		return false, nil
	}
	if err := t.Update(cell, compressor, rate); err != nil {
		return false, err
	}
	return true, nil
}

// Each calls fn for every populated cell in traversal order: CPU bucket
// outermost, then bandwidth, then bytecounting. Iteration stops when fn
// returns false.
func (t *Table) Each(fn func(b Bucket, c *Cell) bool) {
	for cpu := 0; cpu < NumCPUBuckets; cpu++ {
		for bw := 0; bw < NumBandwidthBuckets; bw++ {
			for bc := 0; bc < NumBytecountingBuckets; bc++ {
				b := Bucket{CPU: cpu, Bandwidth: bw, Bytecounting: bc}
				c := t.cells[offset(b)]
				if c.Len() == 0 {
					continue
				}
				if !fn(b, c) {
					return
				}
			}
		}
	}
}
