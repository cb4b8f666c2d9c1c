// Package main provides an offline gait analysis tool. It runs a JSONL frame
// capture through the full detection pipeline without a server and exports
// the resulting rows as CSV or JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/config"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/framemux"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/gait"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/timeutil"
)

var (
	capturePath = flag.String("capture", "", "JSONL frame capture to analyse (required)")
	tuningPath  = flag.String("config", "", "Path to tuning config JSON")
	outputPath  = flag.String("o", "", "Output file (default stdout)")
	jsonOutput  = flag.Bool("json", false, "Emit rows as JSON instead of CSV")
	summaryOnly = flag.Bool("summary", false, "Print the stride summary instead of rows")
	skipPhases  = flag.Bool("skip-phases", true, "Skip the warm-up and countdown phases")
)

func main() {
	flag.Parse()

	if *capturePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	tuning := config.EmptyTuningConfig()
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	f, err := os.Open(*capturePath)
	if err != nil {
		log.Fatalf("failed to open capture: %v", err)
	}

	// A mock clock driven past both phases puts the engine straight into
	// analysis, so every strike in the capture lands in the output.
	clock := timeutil.NewMockClock(time.Now())
	analyzer := gait.NewAnalyzer(tuning, clock)
	analyzer.Start()
	if *skipPhases {
		clock.Advance(tuning.GetWarmupDuration() + tuning.GetCountdownDuration())
	}

	source := framemux.NewReplaySource(f, clock, false)
	defer source.Close()

	frames := 0
	for {
		frame, err := source.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("failed to read capture: %v", err)
		}
		analyzer.ProcessFrame(frame)
		frames++
	}

	out := os.Stdout
	if *outputPath != "" {
		out, err = os.Create(*outputPath)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer out.Close()
	}

	rows := analyzer.Rows()
	snap := analyzer.Snapshot()
	fmt.Fprintf(os.Stderr, "processed %d frames: %d strikes, quality %s (%.0f%%)\n",
		frames, len(rows), snap.Quality, snap.QualityRatio*100)

	switch {
	case *summaryOnly:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analyzer.Summary()); err != nil {
			log.Fatalf("failed to write summary: %v", err)
		}
	case *jsonOutput:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			log.Fatalf("failed to write rows: %v", err)
		}
	default:
		if err := gait.WriteCSV(out, rows); err != nil {
			log.Fatalf("failed to write CSV: %v", err)
		}
	}
}
