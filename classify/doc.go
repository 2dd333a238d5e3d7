// Package classify builds the compressor-selection table used by AutoComp.
//
// # Reading Guide
//
//   - quantize.go: maps CPU load, bandwidth and bytecounting to bucket indices
//   - table.go: the Decision Table, a fixed 11×29×10 grid of per-compressor stats
//   - reduce.go: reduces every populated cell to its best compressor
//   - merge.go: combines partial tables built from independent log partitions
//
// # Lifecycle
//
// A Table starts out accumulating. Samples are folded in with Add (or Lookup
// followed by Update). Reduce finalizes the table and returns a Selection;
// after that the table is read-only and further updates fail with
// ErrFinalized.
//
// Sub-packages:
//   - classify/perflog: parses benchmark logs and drives table updates
//   - classify/tablefile: reads and writes the serialized selection table
//   - classify/report: build summaries for the CLI
package classify
