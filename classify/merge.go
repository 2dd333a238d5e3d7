package classify

import "fmt"

// Merge folds the statistics of other into t. Means are combined by sample
// weight: (m1*c1 + m2*c2) / (c1+c2). Compressors new to a cell are appended
// after the existing ones, in other's order.
//
// Merging partial tables is not equivalent to feeding their samples through
// Update one by one once a damping step is involved: the damped step depends
// on where the DampingPeriod boundaries fall within each partition.
func (t *Table) Merge(other *Table) error {
	if t.finalized {
		return ErrFinalized
	}
	if t.quantizer != other.quantizer {
		return fmt.Errorf("merging tables with different quantizers: %+v vs %+v", t.quantizer, other.quantizer)
	}
	other.Each(func(b Bucket, src *Cell) bool {
		dst := t.cellAt(b)
		if dst.Len() == 0 {
			t.populated++
		}
		for _, s := range src.stats {
			i, ok := dst.index[s.Compressor]
			if !ok {
				dst.index[s.Compressor] = len(dst.stats)
				dst.stats = append(dst.stats, s)
				continue
			}
			d := &dst.stats[i]
			total := d.Count + s.Count
			d.Mean = (d.Mean*float64(d.Count) + s.Mean*float64(s.Count)) / float64(total)
			d.Count = total
		}
		return true
	})
	return nil
}
