package memfile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/canbus-data/treemem/internal/treecodec"
)

func testPacked(t *testing.T) []treecodec.PackedNode {
	t.Helper()
	rows := []treecodec.Row{
		{ID: 0, Feature: treecodec.ArbIDDec, Threshold: 844.5, Left: 1, Right: 2},
		{ID: 1, Feature: treecodec.TimeDelta, Threshold: 0.0014, Left: 3, Right: 4},
		{ID: 3, Feature: treecodec.None, Prediction: 1},
		{ID: 4, Feature: treecodec.None},
	}
	packed, err := treecodec.EncodeTable(rows)
	if err != nil {
		t.Fatal(err)
	}
	return packed
}

func TestWriteReadRoundTrip(t *testing.T) {
	packed := testPacked(t)
	var buf bytes.Buffer
	if err := Write(&buf, packed); err != nil {
		t.Fatal(err)
	}

	words, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(treecodec.Words(packed), words); diff != "" {
		t.Errorf("word mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFormat(t *testing.T) {
	packed := testPacked(t)
	var buf bytes.Buffer
	if err := Write(&buf, packed); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "// Total Nodes: 4") {
		t.Error("header missing node count")
	}
	if !strings.Contains(out, "//   [52:26] Threshold (27-bit fixed-point)") {
		t.Error("header missing bit layout")
	}
	if !strings.Contains(out, "LEAF -> Attack") {
		t.Error("missing positive leaf comment")
	}

	// Every data line is exactly 64 binary digits before its comment.
	dataLines := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "//") || strings.TrimSpace(line) == "" {
			continue
		}
		digits := strings.TrimSpace(strings.SplitN(line, "//", 2)[0])
		if len(digits) != 64 || strings.Trim(digits, "01") != "" {
			t.Errorf("bad data line %q", line)
		}
		dataLines++
	}
	if dataLines != len(packed) {
		t.Errorf("data lines = %d, want %d", dataLines, len(packed))
	}
}

func TestCleanStripsComments(t *testing.T) {
	packed := testPacked(t)
	var annotated bytes.Buffer
	if err := Write(&annotated, packed); err != nil {
		t.Fatal(err)
	}

	var cleaned bytes.Buffer
	if err := Clean(bytes.NewReader(annotated.Bytes()), &cleaned); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(cleaned.String(), "\n"), "\n")
	if len(lines) != len(packed) {
		t.Fatalf("cleaned lines = %d, want %d", len(lines), len(packed))
	}
	for _, line := range lines {
		if len(line) != 64 || strings.Trim(line, "01") != "" {
			t.Errorf("cleaned line not bare binary: %q", line)
		}
	}
}

func TestReadRejectsBadLine(t *testing.T) {
	if _, err := Read(strings.NewReader("0101\n")); err == nil {
		t.Error("expected error for short line")
	}
	if _, err := Read(strings.NewReader(strings.Repeat("2", 64) + "\n")); err == nil {
		t.Error("expected error for non-binary digits")
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	packed := testPacked(t)

	memPath := filepath.Join(dir, "tree.mem")
	if err := WriteFile(memPath, packed); err != nil {
		t.Fatal(err)
	}
	cleanPath := filepath.Join(dir, "tree_clean.mem")
	if err := CleanFile(memPath, cleanPath); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{memPath, cleanPath} {
		words, err := ReadFile(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if diff := cmp.Diff(treecodec.Words(packed), words); diff != "" {
			t.Errorf("%s word mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func TestWriteMetadata(t *testing.T) {
	packed := testPacked(t)
	var buf bytes.Buffer
	if err := WriteMetadata(&buf, packed); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total Nodes: 4",
		"Internal Nodes: 2",
		"Leaf Nodes: 2",
		"Total bytes: 32",
		"Address width: 2 bits",
		"0: arb_id_dec  Q11.16",
		"1: data_length Q4.23",
		"5: time_delta  Q0.27",
		"Threshold Statistics",
		"arb_id_dec",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metadata missing %q", want)
		}
	}
}

func TestAddressWidth(t *testing.T) {
	cases := []struct{ n, want int }{
		{0, 1}, {1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {256, 8}, {257, 9},
	}
	for _, c := range cases {
		if got := addressWidth(c.n); got != c.want {
			t.Errorf("addressWidth(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
