package memfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/canbus-data/treemem/internal/treecodec"
)

// WriteMetadata writes the human-readable companion report for a packed tree:
// node counts, memory sizing, the feature/format tables, sample decodes, and
// per-feature threshold statistics. Everything in it is regenerable from the
// packed records.
func WriteMetadata(w io.Writer, packed []treecodec.PackedNode) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 70)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "DECISION TREE BINARY MEM METADATA FOR FPGA")
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)

	internal, leaf := 0, 0
	for _, p := range packed {
		if p.IsLeaf() {
			leaf++
		} else {
			internal++
		}
	}
	fmt.Fprintf(bw, "Total Nodes: %d\n", len(packed))
	fmt.Fprintf(bw, "Internal Nodes: %d\n", internal)
	fmt.Fprintf(bw, "Leaf Nodes: %d\n", leaf)

	totalBits := len(packed) * 64
	fmt.Fprintf(bw, "\nMemory Requirements:\n")
	fmt.Fprintf(bw, "  Total bits: %d\n", totalBits)
	fmt.Fprintf(bw, "  Total bytes: %d\n", totalBits/8)
	fmt.Fprintf(bw, "  Total KB: %.2f\n", float64(totalBits)/8/1024)
	fmt.Fprintf(bw, "  Address width: %d bits\n", addressWidth(len(packed)))

	fmt.Fprintf(bw, "\nFeature ID Mapping:\n")
	for f := treecodec.ArbIDDec; f <= treecodec.TimeDelta; f++ {
		format := treecodec.Format(f)
		fmt.Fprintf(bw, "  %d: %-12s Q%d.%d\n", int(f), f, format.IntBits, format.FracBits)
	}

	writeThresholdStats(bw, packed)

	fmt.Fprintf(bw, "\nSample Node Decoding:\n")
	for i := 0; i < 3 && i < len(packed); i++ {
		p := packed[i]
		fmt.Fprintf(bw, "\n  Node %d:\n", i)
		fmt.Fprintf(bw, "    HEX: 0x%016X\n", p.Word())
		fmt.Fprintf(bw, "    BIN: %064b\n", p.Word())
		fmt.Fprintf(bw, "    %s\n", p)
	}

	fmt.Fprintf(bw, "\nHow to use in Verilog:\n")
	fmt.Fprintf(bw, "  reg [63:0] tree_mem [0:%d];\n", max(len(packed)-1, 0))
	fmt.Fprintf(bw, "  initial $readmemb(\"tree.mem\", tree_mem);\n")

	return bw.Flush()
}

// WriteMetadataFile writes the metadata report at path.
func WriteMetadataFile(path string, packed []treecodec.PackedNode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	if err := WriteMetadata(f, packed); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeThresholdStats summarizes the dequantized split thresholds per feature
// across the internal nodes. Useful as a sanity check that quantization kept
// the thresholds inside each feature's nominal range.
func writeThresholdStats(w io.Writer, packed []treecodec.PackedNode) {
	byFeature := make(map[treecodec.Feature][]float64)
	for _, p := range packed {
		if p.IsLeaf() {
			continue
		}
		f := treecodec.Feature(p.FeatureID)
		byFeature[f] = append(byFeature[f], treecodec.Dequantize(p.Threshold, f))
	}
	if len(byFeature) == 0 {
		return
	}

	fmt.Fprintf(w, "\nThreshold Statistics (dequantized, internal nodes):\n")
	for f := treecodec.ArbIDDec; f <= treecodec.TimeDelta; f++ {
		values := byFeature[f]
		if len(values) == 0 {
			continue
		}
		mean := stat.Mean(values, nil)
		sd := 0.0
		if len(values) > 1 {
			sd = stat.StdDev(values, nil)
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		fmt.Fprintf(w, "  %-12s n=%-4d mean=%-12.6g sd=%-12.6g min=%-12.6g max=%.6g\n",
			f, len(values), mean, sd, lo, hi)
	}
}

// addressWidth returns the number of address bits a memory of n words needs.
func addressWidth(n int) int {
	if n <= 1 {
		return 1
	}
	return bits.Len(uint(n - 1))
}
