// Package treeeval walks a packed decision tree with a feature vector the
// same way the FPGA memory reader does. It exists as a software model of the
// hardware consumer: end-to-end tests classify through it to prove the packed
// table still encodes the trained tree.
package treeeval

import (
	"errors"
	"fmt"

	"github.com/canbus-data/treemem/internal/canfeat"
	"github.com/canbus-data/treemem/internal/treecodec"
)

var (
	// ErrEmptyTree means there is no node 0 to start from.
	ErrEmptyTree = errors.New("empty tree")

	// ErrCyclic means traversal did not reach a leaf within the step limit,
	// which for a table of n nodes can only happen if the child graph loops.
	ErrCyclic = errors.New("cyclic node graph")

	// ErrDanglingChild means a node references an index past the end of the
	// table.
	ErrDanglingChild = errors.New("child index out of table")
)

// Predict walks the packed table from node 0 and returns the leaf label
// (0 normal, 1 attack) for the given feature vector. The comparison matches
// the hardware comparator: go left when the feature value is <= the
// dequantized threshold.
func Predict(packed []treecodec.PackedNode, v canfeat.Vector) (int, error) {
	if len(packed) == 0 {
		return 0, ErrEmptyTree
	}

	values := v.Values()
	idx := 0
	// A well-formed tree of n nodes has depth < n; anything longer loops.
	for steps := 0; steps < len(packed); steps++ {
		node := packed[idx]
		if node.IsLeaf() {
			return node.Prediction(), nil
		}

		f := treecodec.Feature(node.FeatureID)
		threshold := treecodec.Dequantize(node.Threshold, f)
		value := 0.0
		if int(node.FeatureID) < len(values) {
			value = values[node.FeatureID]
		}

		if value <= threshold {
			idx = int(node.Left)
		} else {
			idx = int(node.Right)
		}
		if idx >= len(packed) {
			return 0, fmt.Errorf("node %d -> %d: %w", node.NodeID, idx, ErrDanglingChild)
		}
	}
	return 0, ErrCyclic
}

// PredictWords is Predict over raw 64-bit memory words, the form a .mem file
// reads back as.
func PredictWords(words []uint64, v canfeat.Vector) (int, error) {
	packed := make([]treecodec.PackedNode, len(words))
	for i, w := range words {
		packed[i] = treecodec.Decode(w)
	}
	return Predict(packed, v)
}
