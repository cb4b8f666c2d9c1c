package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/api"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/config"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/db"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/framemux"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/gait"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/timeutil"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "gait_data.db", "SQLite database path (empty to disable persistence)")
	tuningPath = flag.String("config", "", "Path to tuning config JSON")
	replayPath = flag.String("replay", "", "Replay a JSONL frame capture instead of live ingest")
	fast       = flag.Bool("fast", false, "Replay without timestamp pacing")
	mockMode   = flag.Bool("mock", false, "Generate a synthetic walking stream")
	autoStart  = flag.Bool("autostart", false, "Start a session immediately")
)

func main() {
	flag.Parse()
	log.Printf("treadmill-gaitlab %s", version.String())

	// .env is optional; flags and real env still apply without one.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}
	if v := os.Getenv("GAITLAB_LISTEN"); v != "" && *listen == ":8080" {
		*listen = v
	}
	if v := os.Getenv("GAITLAB_DB"); v != "" && *dbFile == "gait_data.db" {
		*dbFile = v
	}

	tuning, err := loadTuning(*tuningPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	analyzer := gait.NewAnalyzer(tuning, timeutil.RealClock{})

	var ingest *framemux.PushSource
	var m framemux.FrameMuxInterface
	switch {
	case *replayPath != "":
		f, err := os.Open(*replayPath)
		if err != nil {
			log.Fatalf("failed to open replay capture: %v", err)
		}
		m = framemux.NewFrameMux(framemux.NewReplaySource(f, timeutil.RealClock{}, !*fast))
	case *mockMode:
		m = framemux.NewMockFrameMux()
	default:
		ingest = framemux.NewPushSource()
		m = framemux.NewFrameMux(ingest)
	}
	defer m.Close()

	var database *db.DB
	if *dbFile != "" {
		database, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()
	}

	server := api.NewServer(api.ServerConfig{
		Address:  *listen,
		Analyzer: analyzer,
		DB:       database,
		Tuning:   tuning,
		Ingest:   ingest,
	})

	if *autoStart {
		analyzer.Start()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the frame source
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor frame source: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// subscribe to decoded frames and feed them through the engine
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := m.Subscribe()
		defer m.Unsubscribe(id)

		var sessionID string
		var rowSeq int
		for {
			select {
			case frame, ok := <-c:
				if !ok {
					log.Printf("frame stream closed")
					return
				}
				handleFrame(analyzer, database, server, frame, &sessionID, &rowSeq)
			case <-ctx.Done():
				log.Printf("subscribe routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// loadTuning reads the tuning config, falling back to defaults when no path
// is given.
func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// handleFrame runs one frame through the engine, persists any appended rows
// and pushes updates to websocket clients.
func handleFrame(analyzer *gait.Analyzer, database *db.DB, server *api.Server, frame *pose.Frame, sessionID *string, rowSeq *int) {
	rows := analyzer.ProcessFrame(frame)
	snap := analyzer.Snapshot()

	if snap.SessionID != *sessionID {
		*sessionID = snap.SessionID
		*rowSeq = 0
	}

	for _, row := range rows {
		if database != nil && *sessionID != "" {
			strikeMs := 0.0
			if frame != nil {
				strikeMs = frame.TimestampMs
			}
			if err := database.RecordGaitRow(*sessionID, *rowSeq, strikeMs, row); err != nil {
				log.Printf("failed to persist gait row: %v", err)
			}
		}
		*rowSeq++
		server.Broadcast(map[string]any{"type": "row", "row": row})
	}

	if len(rows) > 0 || frame == nil {
		server.Broadcast(map[string]any{"type": "snapshot", "status": snap})
	}
}
