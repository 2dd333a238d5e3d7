package perflog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocomp/autocomp-tools/classify"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngest_EndToEndScenario(t *testing.T) {
	// GIVEN the zlib/bzip2 pair in the same operating conditions
	content := "zlib,-1,50,500,40,200,2.0\n" +
		"bzip2,-1,50,500,40,150,3.0\n"
	tbl := classify.NewTable(classify.Quantizer{})
	in := &Ingestor{Filter: Filter{Excluded: DefaultExcluded}}

	// WHEN ingesting
	stats, err := in.Ingest(context.Background(), strings.NewReader(content), "inline", tbl)

	// THEN one cell holds both compressors with derived transmission rates
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 2, stats.Accepted)
	cell := tbl.Cell(classify.Bucket{CPU: 5, Bandwidth: 24, Bytecounting: 4})
	require.NotNil(t, cell)
	assert.Equal(t, []classify.CompressorStat{
		{Compressor: "zlib", Mean: 400, Count: 1},
		{Compressor: "bzip2", Mean: 450, Count: 1},
	}, cell.Stats())

	// AND reduction picks bzip2
	sel := tbl.Reduce()
	require.Equal(t, 1, sel.Len())
	assert.Equal(t, "bzip2", sel.Recommendations[0].Compressor)
}

func TestIngest_FilteredRowsNeverReachTable(t *testing.T) {
	// GIVEN rows that must all be filtered
	content := "zlib,-1,50,0,40,200,2.0\n" +
		"zlib,-1,50,500,101,200,2.0\n" +
		"LZO,1,50,500,40,200,2.0\n"
	tbl := classify.NewTable(classify.Quantizer{})
	in := &Ingestor{Filter: Filter{Excluded: DefaultExcluded}}

	// WHEN ingesting
	stats, err := in.Ingest(context.Background(), strings.NewReader(content), "inline", tbl)

	// THEN nothing is aggregated and each reason is counted
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Populated())
	assert.Equal(t, 0, stats.Accepted)
	assert.Equal(t, 3, stats.TotalDropped())
	assert.Equal(t, 1, stats.Dropped[DropZeroBandwidth])
	assert.Equal(t, 1, stats.Dropped[DropBytecounting])
	assert.Equal(t, 1, stats.Dropped[DropExcluded])
}

func TestIngest_DropOverflowPolicy_CountsOutOfRange(t *testing.T) {
	tbl := classify.NewTable(classify.Quantizer{Overflow: classify.OverflowDrop})
	in := &Ingestor{}
	stats, err := in.Ingest(context.Background(), strings.NewReader("zlib,-1,180,500,40,200,2\n"), "inline", tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Dropped[DropOutOfRange])
	assert.Equal(t, 0, tbl.Populated())
}

func TestIngest_MalformedRow_IsFatalWithRowContext(t *testing.T) {
	// GIVEN a log whose second row is malformed
	content := "zlib,-1,50,500,40,200,2.0\n" +
		"zlib,-1,oops,500,40,200,2.0\n" +
		"zlib,-1,50,500,40,200,2.0\n"
	tbl := classify.NewTable(classify.Quantizer{})
	in := &Ingestor{}

	// WHEN ingesting
	_, err := in.Ingest(context.Background(), strings.NewReader(content), "bad.csv", tbl)

	// THEN the run fails and names the row
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), "bad.csv row 1")
	assert.Contains(t, err.Error(), "cpu_load")
}

func TestIngest_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := &Ingestor{}
	_, err := in.Ingest(ctx, strings.NewReader("zlib,-1,50,500,40,200,2.0\n"), "inline", classify.NewTable(classify.Quantizer{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestFile_MissingFile(t *testing.T) {
	in := &Ingestor{}
	_, err := in.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), classify.NewTable(classify.Quantizer{}))
	assert.Error(t, err)
}

func TestIngestPath_Directory_MergesPartials(t *testing.T) {
	// GIVEN two logs in a directory plus a non-CSV file
	dir := t.TempDir()
	writeLog(t, dir, "a.csv", "zlib,-1,50,500,40,100,1\nzlib,-1,50,500,40,200,1\n")
	writeLog(t, dir, "b.csv", "zlib,-1,50,500,40,600,1\nsnappy,-1,50,500,40,900,1\nzlib,-1,50,0,40,1,1\n")
	writeLog(t, dir, "notes.txt", "not a log")
	in := &Ingestor{}

	// WHEN ingesting the directory
	tbl, stats, err := in.IngestPath(context.Background(), dir, classify.Quantizer{})

	// THEN the partial tables are merged by weight and stats are summed
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 4, stats.Accepted)
	assert.Equal(t, 1, stats.Dropped[DropZeroBandwidth])
	// zlib: rates 100 and 200 from a.csv, min(500, 600) = 500 from b.csv
	cell := tbl.Cell(classify.Bucket{CPU: 5, Bandwidth: 24, Bytecounting: 4})
	cellStats := cell.Stats()
	require.Len(t, cellStats, 2)
	assert.Equal(t, "zlib", cellStats[0].Compressor)
	assert.Equal(t, 3, cellStats[0].Count)
	assert.InDelta(t, 800.0/3, cellStats[0].Mean, 1e-9)
	assert.Equal(t, classify.CompressorStat{Compressor: "snappy", Mean: 500, Count: 1}, cellStats[1])
}

func TestIngestPath_Directory_FailsOnAnyMalformedLog(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "a.csv", "zlib,-1,50,500,40,100,1\n")
	writeLog(t, dir, "b.csv", "zlib,-1,50,500,forty,100,1\n")
	in := &Ingestor{}
	_, _, err := in.IngestPath(context.Background(), dir, classify.Quantizer{})
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestIngestPath_EmptyDirectory(t *testing.T) {
	in := &Ingestor{}
	_, _, err := in.IngestPath(context.Background(), t.TempDir(), classify.Quantizer{})
	assert.Error(t, err)
}

func TestIngestPath_SingleFile(t *testing.T) {
	path := writeLog(t, t.TempDir(), "log.csv", "zlib,6,50,500,40,200,2.0\n")
	in := &Ingestor{}
	tbl, stats, err := in.IngestPath(context.Background(), path, classify.Quantizer{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Accepted)
	_, ok := tbl.Cell(classify.Bucket{CPU: 5, Bandwidth: 24, Bytecounting: 4}).Get("zlib_6")
	assert.True(t, ok)
}

func TestIngest_ClampPolicy_CountsClampedRows(t *testing.T) {
	// GIVEN a CPU load past the last bucket under the default clamp policy
	tbl := classify.NewTable(classify.Quantizer{})
	in := &Ingestor{}

	// WHEN ingesting
	stats, err := in.Ingest(context.Background(), strings.NewReader("zlib,-1,150,500,40,200,2\nzlib,-1,50,500,40,200,2\n"), "inline", tbl)

	// THEN both rows are accepted and the overflow is counted and pinned to the edge
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 1, stats.Clamped)
	assert.NotNil(t, tbl.Cell(classify.Bucket{CPU: 10, Bandwidth: 24, Bytecounting: 4}))
}

func TestIngest_HugeCPULoad_ClampedToTopBucket(t *testing.T) {
	// GIVEN finite CPU loads far beyond the integer range
	tbl := classify.NewTable(classify.Quantizer{})
	in := &Ingestor{}

	// WHEN ingesting
	stats, err := in.Ingest(context.Background(), strings.NewReader("zlib,-1,1e300,500,40,200,2\nbzip2,-1,-1e300,500,40,200,2\n"), "inline", tbl)

	// THEN each lands on its own edge of the CPU axis
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Clamped)
	_, ok := tbl.Cell(classify.Bucket{CPU: 10, Bandwidth: 24, Bytecounting: 4}).Get("zlib")
	assert.True(t, ok)
	_, ok = tbl.Cell(classify.Bucket{CPU: 0, Bandwidth: 24, Bytecounting: 4}).Get("bzip2")
	assert.True(t, ok)
}

func TestIngest_NonFiniteField_IsFatal(t *testing.T) {
	for _, row := range []string{
		"zlib,-1,Inf,500,40,200,2\n",
		"zlib,-1,-Inf,500,40,200,2\n",
		"zlib,-1,NaN,500,40,200,2\n",
		"bzip2,-1,50,500,40,NaN,2\n",
	} {
		tbl := classify.NewTable(classify.Quantizer{})
		in := &Ingestor{}
		_, err := in.Ingest(context.Background(), strings.NewReader(row), "inline", tbl)
		assert.ErrorIs(t, err, ErrMalformedRow, "row %q", row)
		assert.Equal(t, 0, tbl.Populated(), "row %q", row)
	}
}
