// Command treemem converts a trained decision-tree table into the 64-bit
// packed .mem file the FPGA classifier loads with $readmemb, verifies the
// conversion by decoding a sample, and writes the companion metadata report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/canbus-data/treemem/internal/config"
	"github.com/canbus-data/treemem/internal/memfile"
	"github.com/canbus-data/treemem/internal/treecodec"
	"github.com/canbus-data/treemem/internal/treetable"
	"github.com/canbus-data/treemem/internal/version"
)

var (
	input       = flag.String("input", "", "input tree table CSV (required)")
	output      = flag.String("output", "tree.mem", "output .mem file")
	metadata    = flag.String("metadata", "", "metadata report path (default: <output> with _metadata.txt)")
	clean       = flag.String("clean", "", "also write a comment-free copy of the .mem file at this path")
	configPath  = flag.String("config", "", "run configuration JSON")
	noVerify    = flag.Bool("no-verify", false, "skip sampled round-trip verification")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("treemem %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *input == "" {
		flag.Usage()
		log.Fatal("input tree table is required")
	}

	cfg := config.EmptyRunConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	rows, err := treetable.Load(*input)
	if err != nil {
		log.Fatalf("failed to load tree table: %v", err)
	}
	log.Printf("loaded tree with %d nodes from %s", len(rows), *input)

	packed, err := treecodec.EncodeTable(rows)
	if err != nil {
		log.Fatalf("failed to encode tree: %v", err)
	}

	verifyFailed := false
	if !*noVerify {
		var report treecodec.Report
		if indexes := cfg.GetVerifyIndexes(); indexes != nil {
			report = treecodec.VerifyAt(rows, packed, indexes)
		} else {
			report = treecodec.Verify(rows, packed)
		}
		log.Print(report)
		if !report.OK() {
			// Output is still written so the mismatching records can be
			// inspected; the exit status carries the failure.
			verifyFailed = true
		}
	}

	if err := memfile.WriteFile(*output, packed); err != nil {
		log.Fatalf("failed to write mem file: %v", err)
	}
	log.Printf("wrote %d nodes to %s", len(packed), *output)

	metaPath := *metadata
	if metaPath == "" {
		metaPath = metadataPath(*output)
	}
	if err := memfile.WriteMetadataFile(metaPath, packed); err != nil {
		log.Fatalf("failed to write metadata: %v", err)
	}
	log.Printf("wrote metadata to %s", metaPath)

	if *clean != "" {
		if err := memfile.CleanFile(*output, *clean); err != nil {
			log.Fatalf("failed to write clean mem file: %v", err)
		}
		log.Printf("wrote comment-free copy to %s", *clean)
	}

	if verifyFailed {
		fmt.Fprintln(os.Stderr, "verification found mismatches; see log above")
		os.Exit(1)
	}
}

// metadataPath derives the default metadata report path from the mem file
// path: tree.mem -> tree_metadata.txt.
func metadataPath(memPath string) string {
	base := strings.TrimSuffix(memPath, ".mem")
	return base + "_metadata.txt"
}
