// Package canfeat derives the six engineered features the classifier was
// trained on from the three raw fields of a CAN bus message. The derivation
// mirrors the hardware feature pipeline bit for bit, so every unit choice here
// (hex characters, not bytes; clamped deltas) is deliberate.
package canfeat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrParse means an arbitration ID or payload was not valid hexadecimal.
var ErrParse = errors.New("malformed hex input")

// FrameSize is the wire size of a serialized Vector: six big-endian IEEE-754
// doubles.
const FrameSize = 48

// Vector holds the six engineered features in their canonical order.
type Vector struct {
	ArbIDDec   float64
	DataLength float64
	FirstByte  float64
	LastByte   float64
	ByteSum    float64
	TimeDelta  float64
}

// Values returns the features in canonical wire order.
func (v Vector) Values() [6]float64 {
	return [6]float64{v.ArbIDDec, v.DataLength, v.FirstByte, v.LastByte, v.ByteSum, v.TimeDelta}
}

// MarshalFrame serializes the vector as six consecutive 8-byte big-endian
// doubles, the layout the hardware feature loader expects.
func (v Vector) MarshalFrame() []byte {
	buf := make([]byte, 0, FrameSize)
	for _, f := range v.Values() {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(f))
	}
	return buf
}

// UnmarshalFrame parses a 48-byte feature frame.
func UnmarshalFrame(frame []byte) (Vector, error) {
	if len(frame) != FrameSize {
		return Vector{}, fmt.Errorf("feature frame is %d bytes, want %d", len(frame), FrameSize)
	}
	var vals [6]float64
	for i := range vals {
		vals[i] = math.Float64frombits(binary.BigEndian.Uint64(frame[i*8:]))
	}
	return Vector{
		ArbIDDec:   vals[0],
		DataLength: vals[1],
		FirstByte:  vals[2],
		LastByte:   vals[3],
		ByteSum:    vals[4],
		TimeDelta:  vals[5],
	}, nil
}

// Extractor converts raw CAN messages into feature vectors. The only state it
// carries between calls is the previous timestamp, used for time_delta. One
// extractor serves exactly one message stream; callers processing independent
// streams concurrently must give each stream its own instance.
type Extractor struct {
	lastTimestamp *float64
}

// NewExtractor returns an extractor at the start of a fresh session.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Reset clears the timestamp state. Call it before switching the extractor to
// a new independent record stream, otherwise the first time_delta of the new
// stream would be measured against the old one.
func (e *Extractor) Reset() {
	e.lastTimestamp = nil
}

// Extract derives the six features from a textual arbitration ID, a hex
// payload, and an optional timestamp (nil when the capture has none).
func (e *Extractor) Extract(arbID, dataField string, timestamp *float64) (Vector, error) {
	cleaned := stripHex(arbID)
	parsed, err := strconv.ParseUint(cleaned, 16, 64)
	if err != nil {
		return Vector{}, fmt.Errorf("arbitration id %q: %w", arbID, ErrParse)
	}
	return e.extract(float64(parsed), dataField, timestamp), nil
}

// ExtractNumericID is Extract for captures that already carry the arbitration
// ID as a number; no base conversion is applied.
func (e *Extractor) ExtractNumericID(arbID float64, dataField string, timestamp *float64) Vector {
	return e.extract(arbID, dataField, timestamp)
}

func (e *Extractor) extract(arbID float64, dataField string, timestamp *float64) Vector {
	data := stripHex(dataField)

	v := Vector{
		ArbIDDec: arbID,
		// Length in hex digit characters, not bytes: an 8-byte payload
		// reports 16. The hardware counts nibble characters the same way.
		DataLength: float64(len(data)),
	}

	if len(data) >= 2 {
		if b, err := strconv.ParseUint(data[:2], 16, 8); err == nil {
			v.FirstByte = float64(b)
		}
		if b, err := strconv.ParseUint(data[len(data)-2:], 16, 8); err == nil {
			v.LastByte = float64(b)
		}
	}

	v.ByteSum = float64(byteSum(data))
	v.TimeDelta = e.timeDelta(timestamp)
	return v
}

// byteSum sums the payload in non-overlapping 2-character chunks, left to
// right. A trailing lone character is dropped. Any unparsable chunk zeroes the
// whole sum for the record instead of failing: downstream treats the sum as a
// weak checksum, and a zero is a recognizable "unparsable" marker.
func byteSum(data string) int {
	sum := 0
	for i := 0; i+2 <= len(data); i += 2 {
		b, err := strconv.ParseUint(data[i:i+2], 16, 8)
		if err != nil {
			return 0
		}
		sum += int(b)
	}
	return sum
}

// timeDelta computes the clamped inter-message gap and unconditionally
// advances the session timestamp, even on the first record and even when the
// stream is not sorted.
func (e *Extractor) timeDelta(timestamp *float64) float64 {
	if timestamp == nil {
		return 0
	}
	defer func() {
		ts := *timestamp
		e.lastTimestamp = &ts
	}()
	if e.lastTimestamp == nil {
		return 0
	}
	delta := *timestamp - *e.lastTimestamp
	if delta < 0 {
		return 0
	}
	if delta > 1 {
		return 1
	}
	return delta
}

// stripHex removes an optional 0x/0X prefix, embedded spaces, and surrounding
// whitespace from a hex field.
func stripHex(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "0x", "")
	s = strings.ReplaceAll(s, "0X", "")
	return strings.ReplaceAll(s, " ", "")
}
