package memfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Read parses a .mem file back into 64-bit words. Comments and blank lines
// are skipped, so both annotated and cleaned files round-trip.
func Read(r io.Reader) ([]uint64, error) {
	var words []uint64
	scan := bufio.NewScanner(r)
	line := 0
	for scan.Scan() {
		line++
		text := stripComment(scan.Text())
		if text == "" {
			continue
		}
		if len(text) != 64 {
			return nil, fmt.Errorf("line %d: %d binary digits, want 64", line, len(text))
		}
		word, err := strconv.ParseUint(text, 2, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		words = append(words, word)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ReadFile reads a .mem file from path.
func ReadFile(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mem file: %w", err)
	}
	defer f.Close()
	words, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

// Clean copies a .mem file dropping comments and blank lines. Some memory
// loaders reject anything but bare digit lines.
func Clean(r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		text := stripComment(scan.Text())
		if text == "" {
			continue
		}
		if _, err := fmt.Fprintln(bw, text); err != nil {
			return err
		}
	}
	if err := scan.Err(); err != nil {
		return err
	}
	return bw.Flush()
}

// CleanFile writes a comment-free copy of src at dst.
func CleanFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open mem file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create clean mem file: %w", err)
	}
	if err := Clean(in, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
