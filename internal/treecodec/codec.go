package treecodec

import (
	"errors"
	"fmt"
)

var (
	// ErrValueOutOfRange means a node id or child index does not fit its
	// 8-bit field. The original converter masked these silently, aliasing
	// indexes above 255 into the low range; encoding fails instead.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrUnknownFeature means an internal node carries a feature code the
	// table loader did not recognize.
	ErrUnknownFeature = errors.New("unknown feature code")
)

// Row is one source tree node as loaded from the table.
type Row struct {
	ID         int
	Feature    Feature
	Threshold  float64
	Left       int
	Right      int
	Prediction int
}

// IsLeaf applies the table-level leaf rule: sentinel feature, or both child
// indexes zero.
func (r Row) IsLeaf() bool {
	return r.Feature == None || (r.Left == 0 && r.Right == 0)
}

// Encode converts one source row into a packed record. Leaves fold their
// prediction into the type field and carry no feature or threshold. Internal
// nodes quantize their threshold under the per-feature fixed-point format.
func Encode(r Row) (PackedNode, error) {
	if err := checkIndex("node id", r.ID); err != nil {
		return PackedNode{}, err
	}
	if err := checkIndex("left child", r.Left); err != nil {
		return PackedNode{}, err
	}
	if err := checkIndex("right child", r.Right); err != nil {
		return PackedNode{}, err
	}

	p := PackedNode{
		NodeID: uint8(r.ID),
		Right:  uint8(r.Right),
		Left:   uint8(r.Left),
	}

	if r.IsLeaf() {
		if r.Prediction == 1 {
			p.Type = NodeTypeLeafPositive
		}
		return p, nil
	}

	if r.Feature == Unknown {
		return PackedNode{}, fmt.Errorf("node %d: %w", r.ID, ErrUnknownFeature)
	}
	p.FeatureID = uint8(r.Feature)
	p.Threshold = Quantize(r.Threshold, r.Feature)
	return p, nil
}

// EncodeTable encodes every row in order. Row order is load-bearing: a
// record's position in the output is the node index its siblings reference.
func EncodeTable(rows []Row) ([]PackedNode, error) {
	packed := make([]PackedNode, 0, len(rows))
	for i, r := range rows {
		p, err := Encode(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		packed = append(packed, p)
	}
	return packed, nil
}

// Words returns the raw 64-bit record for each packed node, in node order.
func Words(packed []PackedNode) []uint64 {
	words := make([]uint64, len(packed))
	for i, p := range packed {
		words[i] = p.Word()
	}
	return words
}

func checkIndex(field string, v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("%s %d: %w", field, v, ErrValueOutOfRange)
	}
	return nil
}
