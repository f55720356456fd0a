package treecodec

import "fmt"

// 64-bit record layout, most-significant bit first:
//
//	[63:56] node id      (8 bit)
//	[55:53] feature id   (3 bit)
//	[52:26] threshold    (27 bit fixed-point, format depends on feature)
//	[25:18] right child  (8 bit)
//	[17:10] left child   (8 bit)
//	[9:2]   node type    (8 bit: 0 internal or negative leaf, 1 positive leaf)
//	[1:0]   reserved     (always 0)
const (
	nodeIDShift    = 56
	featureShift   = 53
	thresholdShift = 26
	rightShift     = 18
	leftShift      = 10
	typeShift      = 2

	byteMask      = 0xFF
	featureMask   = 0x7
	thresholdMask = 0x7FFFFFF
)

// NodeTypeLeafPositive is the node-type value for a leaf predicting the
// positive (attack) class. The type field overlays two meanings: it is the
// is-leaf flag and, for leaves, the predicted label. Internal nodes always
// store 0, so a negative leaf is distinguished from an internal node only by
// its zero children.
const NodeTypeLeafPositive = 0x01

// PackedNode is the field-level view of one 64-bit tree memory record.
type PackedNode struct {
	NodeID    uint8
	FeatureID uint8
	Threshold uint32 // raw 27-bit fixed-point value
	Right     uint8
	Left      uint8
	Type      uint8
	Reserved  uint8
}

// Word packs the node into its 64-bit memory record.
func (p PackedNode) Word() uint64 {
	return uint64(p.NodeID)<<nodeIDShift |
		uint64(p.FeatureID&featureMask)<<featureShift |
		uint64(p.Threshold&thresholdMask)<<thresholdShift |
		uint64(p.Right)<<rightShift |
		uint64(p.Left)<<leftShift |
		uint64(p.Type)<<typeShift
	// reserved bits [1:0] stay zero
}

// FromWord extracts every field of a 64-bit memory record.
func FromWord(word uint64) PackedNode {
	return PackedNode{
		NodeID:    uint8(word >> nodeIDShift & byteMask),
		FeatureID: uint8(word >> featureShift & featureMask),
		Threshold: uint32(word >> thresholdShift & thresholdMask),
		Right:     uint8(word >> rightShift & byteMask),
		Left:      uint8(word >> leftShift & byteMask),
		Type:      uint8(word >> typeShift & byteMask),
		Reserved:  uint8(word & 0x3),
	}
}

// Decode is the exact inverse of Encode's packing step.
func Decode(word uint64) PackedNode {
	return FromWord(word)
}

// IsLeaf reports whether the record is a leaf. The rule matches the hardware
// walker: explicit type flag, or both children zero. An internal node with
// children (0,0) is therefore indistinguishable from a negative leaf; that
// ambiguity is part of the format, not something decode papers over.
func (p PackedNode) IsLeaf() bool {
	return p.Type == NodeTypeLeafPositive || (p.Left == 0 && p.Right == 0)
}

// Prediction returns the leaf label (0 or 1). Only meaningful when IsLeaf.
func (p PackedNode) Prediction() int {
	if p.Type == NodeTypeLeafPositive {
		return 1
	}
	return 0
}

func (p PackedNode) String() string {
	if p.IsLeaf() {
		label := "Normal"
		if p.Prediction() == 1 {
			label = "Attack"
		}
		return fmt.Sprintf("Node %3d: LEAF -> %s", p.NodeID, label)
	}
	return fmt.Sprintf("Node %3d: Feature[%d] L=%3d R=%3d", p.NodeID, p.FeatureID, p.Left, p.Right)
}
