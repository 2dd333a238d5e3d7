package classify

import (
	"fmt"
	"math"
)

// Table dimensions. Bandwidth has 20 five-unit buckets below 100 followed by
// 9 hundred-unit buckets up to 1000, the last one saturating.
const (
	NumCPUBuckets          = 11
	NumBandwidthBuckets    = 29
	NumBytecountingBuckets = 10
)

// CPUScale describes how CPU load is recorded in the performance log.
type CPUScale string

const (
	// CPUScalePercent reads load as a 0–100 percentage.
	CPUScalePercent CPUScale = "percent"
	// CPUScaleFraction reads load as a 0–1 fraction, as reported by the
	// AutoComp CPU monitor.
	CPUScaleFraction CPUScale = "fraction"
)

// OverflowPolicy decides what happens to bucket indices outside the table.
type OverflowPolicy string

const (
	// OverflowClamp pins each index into [0, N-1] for its axis.
	OverflowClamp OverflowPolicy = "clamp"
	// OverflowDrop rejects the sample.
	OverflowDrop OverflowPolicy = "drop"
)

var (
	validCPUScales = map[CPUScale]bool{
		CPUScalePercent: true, CPUScaleFraction: true, "": true,
	}
	validOverflowPolicies = map[OverflowPolicy]bool{
		OverflowClamp: true, OverflowDrop: true, "": true,
	}
)

// IsValidCPUScale reports whether name is a recognized CPU scale.
// Empty defaults to percent.
func IsValidCPUScale(name string) bool {
	return validCPUScales[CPUScale(name)]
}

// IsValidOverflowPolicy reports whether name is a recognized overflow policy.
// Empty defaults to clamp.
func IsValidOverflowPolicy(name string) bool {
	return validOverflowPolicies[OverflowPolicy(name)]
}

// Bucket is the discrete coordinate of one Decision Table cell.
type Bucket struct {
	CPU          int
	Bandwidth    int
	Bytecounting int
}

func (b Bucket) String() string {
	return fmt.Sprintf("(%d, %d, %d)", b.CPU, b.Bandwidth, b.Bytecounting)
}

// InRange reports whether b addresses a cell inside the table.
func (b Bucket) InRange() bool {
	return b.CPU >= 0 && b.CPU < NumCPUBuckets &&
		b.Bandwidth >= 0 && b.Bandwidth < NumBandwidthBuckets &&
		b.Bytecounting >= 0 && b.Bytecounting < NumBytecountingBuckets
}

// Quantizer maps continuous operating conditions to bucket indices.
// The zero value uses the percent scale and clamps overflow.
type Quantizer struct {
	CPUScale CPUScale
	Overflow OverflowPolicy
}

// maxIndex bounds raw bucket indices; it lies far past every table dimension.
const maxIndex = math.MaxInt32

// bucketIndex truncates x toward zero. Huge and infinite values saturate at
// ±maxIndex and stay on their side of the table; NaN maps to -1.
func bucketIndex(x float64) int {
	switch {
	case math.IsNaN(x):
		return -1
	case x >= maxIndex:
		return maxIndex
	case x <= -maxIndex:
		return -maxIndex
	}
	return int(x)
}

// CPUBucket returns the 10-point-wide bucket for load. The result is not
// clamped; loads at or above 110% land past the last bucket.
func (q Quantizer) CPUBucket(load float64) int {
	if q.CPUScale == CPUScaleFraction {
		return bucketIndex(load * 100 / 10)
	}
	return bucketIndex(load / 10)
}

// BandwidthBucket returns the bucket for a bandwidth in kbit/s.
func (q Quantizer) BandwidthBucket(bw float64) int {
	switch {
	case math.IsNaN(bw):
		return -1
	case bw < 100.0:
		return bucketIndex(bw / 5)
	case bw < 1000.0:
		return bucketIndex(bw/100 + 19)
	}
	return NumBandwidthBuckets - 1
}

// BytecountingBucket returns the 10-wide bucket for a bytecounting score.
// A score of 100 maps to bucket 10, one past the table.
func (q Quantizer) BytecountingBucket(bc float64) int {
	return bucketIndex(bc / 10)
}

// Raw quantizes all three dimensions without applying the overflow policy.
func (q Quantizer) Raw(cpu, bw, bc float64) Bucket {
	return Bucket{
		CPU:          q.CPUBucket(cpu),
		Bandwidth:    q.BandwidthBucket(bw),
		Bytecounting: q.BytecountingBucket(bc),
	}
}

// Bucket quantizes the three dimensions and applies the overflow policy.
// ok is false when any input is NaN, or when the policy is OverflowDrop and
// the raw bucket falls outside the table.
func (q Quantizer) Bucket(cpu, bw, bc float64) (b Bucket, ok bool) {
	b = q.Raw(cpu, bw, bc)
	if math.IsNaN(cpu) || math.IsNaN(bw) || math.IsNaN(bc) {
		return b, false
	}
	if b.InRange() {
		return b, true
	}
	if q.Overflow == OverflowDrop {
		return b, false
	}
	return Bucket{
		CPU:          clampIndex(b.CPU, NumCPUBuckets),
		Bandwidth:    clampIndex(b.Bandwidth, NumBandwidthBuckets),
		Bytecounting: clampIndex(b.Bytecounting, NumBytecountingBuckets),
	}, true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
