// Package treecodec packs decision-tree nodes into the 64-bit memory records
// consumed by the FPGA tree walker, and decodes them back for verification.
package treecodec

import "math"

// Feature identifies one of the six engineered CAN features a split node can
// test. The numeric values are the 3-bit feature IDs stored in packed records.
type Feature int

const (
	ArbIDDec Feature = iota
	DataLength
	FirstByte
	LastByte
	ByteSum
	TimeDelta
	// Unknown marks a symbolic feature code the table loader did not
	// recognize. Encoding an internal node with Unknown fails rather than
	// silently defaulting to feature 0.
	Unknown
)

// None is the leaf sentinel: the node tests no feature at all.
const None Feature = -1

var featureNames = map[Feature]string{
	ArbIDDec:   "arb_id_dec",
	DataLength: "data_length",
	FirstByte:  "first_byte",
	LastByte:   "last_byte",
	ByteSum:    "byte_sum",
	TimeDelta:  "time_delta",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	if f == None {
		return "none"
	}
	return "unknown"
}

// FixedPointFormat describes an unsigned Qm.n fixed-point encoding. IntBits
// and FracBits always sum to the 27-bit threshold field width.
type FixedPointFormat struct {
	IntBits  int
	FracBits int
}

// ThresholdBits is the width of the packed threshold field.
const ThresholdBits = 27

const thresholdMax = (1 << ThresholdBits) - 1

// formats maps each feature to the fixed-point format chosen for its nominal
// range: features with small ranges get more fraction bits. time_delta is
// clamped to [0,1) upstream so it is stored as a pure fraction.
var formats = map[Feature]FixedPointFormat{
	ArbIDDec:   {11, 16},
	DataLength: {4, 23},
	FirstByte:  {8, 19},
	LastByte:   {8, 19},
	ByteSum:    {11, 16},
	TimeDelta:  {0, 27},
}

// defaultFormat is the balanced fallback for feature IDs outside 0-5. The six
// known features all have explicit entries, so this is only reachable for
// values that never come out of the table loader.
var defaultFormat = FixedPointFormat{14, 13}

// Format returns the fixed-point format used for a feature's thresholds.
func Format(f Feature) FixedPointFormat {
	if fmt, ok := formats[f]; ok {
		return fmt
	}
	return defaultFormat
}

// Quantize converts a real threshold into the unsigned 27-bit fixed-point
// representation for the given feature. Out-of-range values saturate to the
// field bounds rather than wrapping or failing; rounding is half away from
// zero. Saturation is silent on purpose: the hardware comparator clamps the
// same way.
func Quantize(value float64, f Feature) uint32 {
	format := Format(f)
	scaled := math.Round(value * float64(uint64(1)<<format.FracBits))
	if math.IsNaN(scaled) || scaled < 0 {
		return 0
	}
	if scaled > thresholdMax {
		return thresholdMax
	}
	return uint32(scaled) & thresholdMax
}

// Dequantize is the inverse of Quantize: it converts a raw 27-bit threshold
// back to the real value it represents under the feature's format.
func Dequantize(raw uint32, f Feature) float64 {
	format := Format(f)
	return float64(raw&thresholdMax) / float64(uint64(1)<<format.FracBits)
}
