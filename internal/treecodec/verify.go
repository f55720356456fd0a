package treecodec

import (
	"fmt"
	"strings"
)

// Mismatch records one sampled node whose decoded record disagrees with its
// source row.
type Mismatch struct {
	Index   int
	Field   string
	Want    int
	Got     int
	Word    uint64
	Decoded PackedNode
}

func (m Mismatch) String() string {
	return fmt.Sprintf("node %d: %s mismatch: want %d got %d (word hex=0x%016X bin=%064b decoded=%v)",
		m.Index, m.Field, m.Want, m.Got, m.Word, m.Word, m.Decoded)
}

// Report is the outcome of sampled round-trip verification.
type Report struct {
	Rows       int
	Packed     int
	Checked    []int
	Mismatches []Mismatch
}

// OK reports whether the packed table is accepted: equal lengths and zero
// sampled mismatches.
func (r Report) OK() bool {
	return r.Rows == r.Packed && len(r.Mismatches) == 0
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "verified %d/%d sampled nodes (%d rows, %d records)",
		len(r.Checked)-len(r.Mismatches), len(r.Checked), r.Rows, r.Packed)
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "\n  %s", m)
	}
	return b.String()
}

// Verify decodes a sample of packed records and compares node id and child
// indexes against the source rows. The sample always covers the first three
// nodes, spot indexes spread across the table, and the last node.
func Verify(rows []Row, packed []PackedNode) Report {
	n := len(rows)
	if len(packed) < n {
		n = len(packed)
	}
	return VerifyAt(rows, packed, sampleIndexes(n))
}

// VerifyAt is Verify with caller-chosen spot indexes. Duplicate and
// out-of-range indexes are skipped.
func VerifyAt(rows []Row, packed []PackedNode, indexes []int) Report {
	report := Report{Rows: len(rows), Packed: len(packed)}

	n := len(rows)
	if len(packed) < n {
		n = len(packed)
	}
	if n == 0 {
		return report
	}

	seen := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		report.Checked = append(report.Checked, i)
		word := packed[i].Word()
		decoded := Decode(word)
		row := rows[i]

		checks := []struct {
			field string
			want  int
			got   int
		}{
			{"node id", row.ID, int(decoded.NodeID)},
			{"left child", row.Left, int(decoded.Left)},
			{"right child", row.Right, int(decoded.Right)},
		}
		for _, c := range checks {
			if c.want != c.got {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Index:   i,
					Field:   c.field,
					Want:    c.want,
					Got:     c.got,
					Word:    word,
					Decoded: decoded,
				})
			}
		}
	}
	return report
}

// sampleIndexes returns the default verification sample for a table of n
// nodes: the first three, quartile spot checks, and the last. VerifyAt drops
// the duplicates this produces for small n.
func sampleIndexes(n int) []int {
	return []int{0, 1, 2, n / 4, n / 2, 3 * n / 4, n - 1}
}
