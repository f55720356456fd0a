// Package memfile renders packed tree records as a $readmemb-compatible
// memory initialization file and writes the companion metadata report.
package memfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/canbus-data/treemem/internal/treecodec"
)

const layoutHeader = `// Format: [NodeID][FeatureID][Threshold][Right][Left][Type][Reserved]
// Each line: 64 binary digits (0 or 1)
//
// Node Structure:
//   [63:56] Node ID (8-bit)
//   [55:53] Feature ID (3-bit)
//   [52:26] Threshold (27-bit fixed-point)
//   [25:18] Right Child (8-bit)
//   [17:10] Left Child (8-bit)
//   [9:2]   Node Type (8-bit: 0x00=Internal, 0x01=Leaf)
//   [1:0]   Reserved (2-bit)
//
`

// Write renders one 64-character binary line per node, in node index order,
// each followed by a comment summarizing the decoded fields. The header block
// documents the bit layout for whoever reads the file next to the Verilog.
func Write(w io.Writer, packed []treecodec.PackedNode) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "// Pure Binary Memory Initialization File for FPGA")
	fmt.Fprintln(bw, "// Decision Tree Nodes (64-bit pure binary format)")
	fmt.Fprintf(bw, "// Total Nodes: %d\n", len(packed))
	fmt.Fprint(bw, layoutHeader)
	fmt.Fprintln(bw)
	for _, p := range packed {
		if _, err := fmt.Fprintf(bw, "%064b  // %s\n", p.Word(), p); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the .mem file at path.
func WriteFile(path string, packed []treecodec.PackedNode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mem file: %w", err)
	}
	if err := Write(f, packed); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
