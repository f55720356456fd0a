// Command featuresend replays a raw CAN capture as feature frames on the FPGA
// UART: each row is converted to the six engineered features and sent as a
// START-framed 48-byte frame. Vectors can also be recorded to the feature
// store, and classified through a packed tree as a software cross-check of
// what the hardware will decide.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/canbus-data/treemem/internal/canfeat"
	"github.com/canbus-data/treemem/internal/config"
	"github.com/canbus-data/treemem/internal/featuredb"
	"github.com/canbus-data/treemem/internal/memfile"
	"github.com/canbus-data/treemem/internal/monitoring"
	"github.com/canbus-data/treemem/internal/treeeval"
	"github.com/canbus-data/treemem/internal/uartlink"
)

var (
	input      = flag.String("input", "", "raw CAN capture CSV (required)")
	device     = flag.String("port", "", "serial device (default from config)")
	baud       = flag.Int("baud", 0, "baud rate (default from config)")
	dbPath     = flag.String("db", "", "record vectors to this feature store (empty disables)")
	memPath    = flag.String("mem", "", "classify each vector through this packed tree")
	configPath = flag.String("config", "", "run configuration JSON")
	dryRun     = flag.Bool("dry-run", false, "use an in-memory port instead of real hardware")
)

func main() {
	flag.Parse()

	if *input == "" {
		flag.Usage()
		log.Fatal("input capture is required")
	}

	cfg := config.EmptyRunConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var port uartlink.Porter
	if *dryRun {
		port = &uartlink.MockPort{}
	} else {
		mode := uartlink.DefaultMode()
		if *baud != 0 {
			mode.BaudRate = *baud
		} else {
			mode.BaudRate = cfg.GetSerialBaud()
		}
		path := *device
		if path == "" {
			path = cfg.GetSerialDevice()
		}
		var err error
		if port, err = uartlink.Open(path, mode); err != nil {
			log.Fatalf("failed to open serial port: %v", err)
		}
	}
	sender := uartlink.NewSender(port)
	defer sender.Close()

	var store *featuredb.DB
	var session featuredb.Session
	if *dbPath != "" {
		var err error
		if store, err = featuredb.Open(*dbPath); err != nil {
			log.Fatalf("failed to open feature store: %v", err)
		}
		defer store.Close()
		if session, err = store.BeginSession(*input); err != nil {
			log.Fatalf("failed to begin session: %v", err)
		}
		log.Printf("recording session %s", session.ID)
	}

	var tree []uint64
	if *memPath != "" {
		var err error
		if tree, err = memfile.ReadFile(*memPath); err != nil {
			log.Fatalf("failed to load packed tree: %v", err)
		}
	}

	sent, err := run(*input, cfg, sender, store, session.ID, tree)
	if err != nil {
		log.Fatalf("send failed: %v", err)
	}
	log.Printf("sent %d feature frames", sent)
}

// run streams the capture through one extractor session.
func run(capturePath string, cfg *config.RunConfig, sender *uartlink.Sender, store *featuredb.DB, sessionID string, tree []uint64) (int, error) {
	f, err := os.Open(capturePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read capture header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	arbCol, ok := cols[cfg.GetArbIDColumn()]
	if !ok {
		return 0, fmt.Errorf("capture missing column %q", cfg.GetArbIDColumn())
	}
	dataCol, ok := cols[cfg.GetDataColumn()]
	if !ok {
		return 0, fmt.Errorf("capture missing column %q", cfg.GetDataColumn())
	}
	tsCol, hasTimestamp := cols[cfg.GetTimestampColumn()]

	extractor := canfeat.NewExtractor()
	sent := 0
	for seq := int64(0); ; seq++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sent, fmt.Errorf("record %d: %w", seq, err)
		}

		var ts *float64
		if hasTimestamp {
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[tsCol]), 64); err == nil {
				ts = &v
			}
		}

		vector, err := extractor.Extract(record[arbCol], record[dataCol], ts)
		if err != nil {
			return sent, fmt.Errorf("record %d: %w", seq, err)
		}
		if ok, violations := canfeat.Validate(vector); !ok {
			monitoring.Logf("record %d out of range: %s", seq, strings.Join(violations, "; "))
		}

		var predicted *int
		if tree != nil {
			label, err := treeeval.PredictWords(tree, vector)
			if err != nil {
				return sent, fmt.Errorf("record %d: classify: %w", seq, err)
			}
			predicted = &label
		}

		if store != nil {
			if err := store.RecordVector(sessionID, seq, vector, predicted); err != nil {
				return sent, fmt.Errorf("record %d: %w", seq, err)
			}
		}

		if err := sender.SendVector(vector); err != nil {
			return sent, fmt.Errorf("record %d: %w", seq, err)
		}
		sent++
	}
	return sent, nil
}
