// Package treetable loads the trained decision tree from its CSV export.
// The table is the single input of a conversion run: row order defines node
// indexes, so the loader preserves it exactly.
package treetable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/canbus-data/treemem/internal/treecodec"
)

// ErrSchema means a required column is missing from the table header. The
// whole table is rejected before any row converts.
var ErrSchema = errors.New("required column missing")

// Required columns, in the order the training exporter writes them.
var requiredColumns = []string{"Node", "Feature", "Threshold", "Left_Child", "Right_Child", "Prediction"}

// featureCodes maps the exporter's symbolic feature codes to features.
// "-1" is the leaf sentinel. Anything else maps to Unknown and is left for
// the codec to reject if it turns out to sit on an internal node.
var featureCodes = map[string]treecodec.Feature{
	"00": treecodec.ArbIDDec,
	"01": treecodec.DataLength,
	"02": treecodec.FirstByte,
	"03": treecodec.LastByte,
	"04": treecodec.ByteSum,
	"05": treecodec.TimeDelta,
	"-1": treecodec.None,
}

// Load reads a tree table from a CSV file.
func Load(path string) ([]treecodec.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree table: %w", err)
	}
	defer f.Close()
	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Read parses a tree table from CSV. Node and child indexes are checked
// against the 8-bit capacity of the packed format up front so an oversized
// tree fails here instead of aliasing indexes downstream.
func Read(r io.Reader) ([]treecodec.Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrSchema, name)
		}
	}

	var rows []treecodec.Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(record []string, cols map[string]int) (treecodec.Row, error) {
	var row treecodec.Row
	var err error

	if row.ID, err = parseIndex("Node", record[cols["Node"]]); err != nil {
		return row, err
	}
	if row.Left, err = parseIndex("Left_Child", record[cols["Left_Child"]]); err != nil {
		return row, err
	}
	if row.Right, err = parseIndex("Right_Child", record[cols["Right_Child"]]); err != nil {
		return row, err
	}

	code := strings.TrimSpace(record[cols["Feature"]])
	if f, ok := featureCodes[code]; ok {
		row.Feature = f
	} else {
		row.Feature = treecodec.Unknown
	}

	threshold := strings.TrimSpace(record[cols["Threshold"]])
	if threshold != "" {
		if row.Threshold, err = strconv.ParseFloat(threshold, 64); err != nil {
			return row, fmt.Errorf("bad Threshold %q: %w", threshold, err)
		}
	}

	prediction := strings.TrimSpace(record[cols["Prediction"]])
	if prediction != "" {
		if row.Prediction, err = strconv.Atoi(prediction); err != nil {
			return row, fmt.Errorf("bad Prediction %q: %w", prediction, err)
		}
	}
	return row, nil
}

// parseIndex parses a node index column and enforces the 8-bit capacity of
// the packed record format.
func parseIndex(column, value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", column, value, err)
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%s %d: %w", column, v, treecodec.ErrValueOutOfRange)
	}
	return v, nil
}
