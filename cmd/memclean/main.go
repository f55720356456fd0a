// Command memclean writes a comment-free copy of a .mem file for memory
// loaders that only accept bare binary digit lines.
package main

import (
	"flag"
	"log"

	"github.com/canbus-data/treemem/internal/memfile"
)

func main() {
	input := flag.String("input", "tree.mem", "annotated .mem file")
	output := flag.String("output", "tree_clean.mem", "comment-free output path")
	flag.Parse()

	if err := memfile.CleanFile(*input, *output); err != nil {
		log.Fatalf("failed to clean mem file: %v", err)
	}
	log.Printf("wrote %s", *output)
}
