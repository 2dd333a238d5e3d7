package classify

import "math"

// Recommendation is the reduced form of one populated cell.
type Recommendation struct {
	Bucket     Bucket
	Compressor string
	Mean       float64 // running mean transmission rate of the winner
	Count      int     // samples behind the winner's mean
}

// Selection is the sparse best-compressor table, in traversal order.
type Selection struct {
	Recommendations []Recommendation
	index           map[Bucket]int
}

// NewSelection builds a Selection from recommendations already in traversal
// order. Later duplicates of a bucket replace earlier ones in lookups.
func NewSelection(recs []Recommendation) *Selection {
	s := &Selection{
		Recommendations: recs,
		index:           make(map[Bucket]int, len(recs)),
	}
	for i, r := range recs {
		s.index[r.Bucket] = i
	}
	return s
}

// Len returns the number of populated cells.
func (s *Selection) Len() int {
	return len(s.Recommendations)
}

// Lookup returns the recommendation for b, if the cell was populated.
func (s *Selection) Lookup(b Bucket) (Recommendation, bool) {
	i, ok := s.index[b]
	if !ok {
		return Recommendation{}, false
	}
	return s.Recommendations[i], true
}

// Best returns the compressor with the highest mean in c. Ties go to the
// compressor inserted first, and a NaN mean never beats a comparable one.
// ok is false for an empty cell.
func Best(c *Cell) (best CompressorStat, ok bool) {
	if c.Len() == 0 {
		return CompressorStat{}, false
	}
	best = c.stats[0]
	for _, s := range c.stats[1:] {
		if s.Mean > best.Mean || (math.IsNaN(best.Mean) && !math.IsNaN(s.Mean)) {
			best = s
		}
	}
	return best, true
}

// Reduce finalizes the table and returns its best compressor per populated
// cell. Reduce has no other side effects; calling it again yields an
// identical Selection.
func (t *Table) Reduce() *Selection {
	t.finalized = true
	recs := make([]Recommendation, 0, t.populated)
	t.Each(func(b Bucket, c *Cell) bool {
		best, _ := Best(c)
		recs = append(recs, Recommendation{
			Bucket:     b,
			Compressor: best.Compressor,
			Mean:       best.Mean,
			Count:      best.Count,
		})
		return true
	})
	return NewSelection(recs)
}
