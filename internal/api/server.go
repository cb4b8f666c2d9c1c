// Package api exposes the gait engine over HTTP: session control, status,
// row export, frame ingest, live push and a few debugging charts.
package api

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/config"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/db"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/framemux"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/gait"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/httputil"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/monitoring"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server handles the HTTP interface for the gait engine. DB and Ingest are
// optional: without a DB the stored-session endpoints report 404, and
// without an ingest source POST /api/frames reports 503.
type Server struct {
	address  string
	analyzer *gait.Analyzer
	db       *db.DB
	tuning   *config.TuningConfig
	ingest   *framemux.PushSource
	server   *http.Server

	upgrader websocket.Upgrader
	clients  *clientSet
}

// ServerConfig contains configuration options for the web server.
type ServerConfig struct {
	Address  string
	Analyzer *gait.Analyzer
	DB       *db.DB
	Tuning   *config.TuningConfig
	Ingest   *framemux.PushSource
}

// NewServer creates a new web server with the provided configuration.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		address:  cfg.Address,
		analyzer: cfg.Analyzer,
		db:       cfg.DB,
		tuning:   cfg.Tuning,
		ingest:   cfg.Ingest,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: newClientSet(),
	}

	mux := s.ServeMux()
	if s.db != nil {
		if err := s.db.AttachAdminRoutes(mux); err != nil {
			monitoring.Logf("failed to attach admin routes: %v", err)
		}
	}

	s.server = &http.Server{
		Addr:              s.address,
		Handler:           LoggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack is required for websocket upgrades through the middleware.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux configures the HTTP routes and handlers.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/session/start", s.handleSessionStart)
	mux.HandleFunc("/api/session/stop", s.handleSessionStop)
	mux.HandleFunc("/api/session/calibrate", s.handleCalibrate)
	mux.HandleFunc("/api/session/reset", s.handleReset)
	mux.HandleFunc("/api/rows", s.handleRows)
	mux.HandleFunc("/api/rows.csv", s.handleRowsCSV)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/frames", s.handleIngest)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/debug/charts/stride", s.handleStrideChart)
	mux.HandleFunc("/debug/plots/trajectory", s.handleTrajectoryPlot)

	return mux
}

// Start begins the HTTP server and blocks until the context is cancelled,
// then shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting HTTP server on %s", s.address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.analyzer.Snapshot())
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	id := s.analyzer.Start()
	if s.db != nil {
		if err := s.db.CreateSession(id, time.Now(), s.analyzer.Snapshot().BeltSpeedMPS); err != nil {
			monitoring.Logf("failed to persist session %s: %v", id, err)
		}
	}
	httputil.WriteJSONOK(w, map[string]string{"session_id": id})
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	// Capture the final quality and step count before stopping so the
	// session record reflects the run.
	snap := s.analyzer.Snapshot()
	s.analyzer.Stop()

	if s.db != nil && snap.SessionID != "" {
		err := s.db.FinishSession(snap.SessionID, time.Now(),
			string(snap.Facing), string(snap.Quality), snap.QualityRatio, snap.Steps)
		if err != nil {
			monitoring.Logf("failed to finish session %s: %v", snap.SessionID, err)
		}
	}
	httputil.WriteJSONOK(w, s.analyzer.Snapshot())
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.analyzer.Calibrate()
	httputil.WriteJSONOK(w, s.analyzer.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.analyzer.Reset()
	httputil.WriteJSONOK(w, s.analyzer.Snapshot())
}

// handleRows returns gait rows as JSON. With a session_id query parameter it
// reads the stored rows for that session; otherwise it returns the live
// engine rows.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rows, ok := s.lookupRows(w, r)
	if !ok {
		return
	}
	if rows == nil {
		rows = []gait.GaitRow{}
	}
	httputil.WriteJSONOK(w, rows)
}

func (s *Server) handleRowsCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rows, ok := s.lookupRows(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="gait-rows.csv"`)
	if err := gait.WriteCSV(w, rows); err != nil {
		monitoring.Logf("failed to write CSV export: %v", err)
	}
}

// lookupRows resolves the row set for an export request. The bool result is
// false when an error response has already been written.
func (s *Server) lookupRows(w http.ResponseWriter, r *http.Request) ([]gait.GaitRow, bool) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		return s.analyzer.Rows(), true
	}
	if s.db == nil {
		httputil.NotFound(w, "no database configured for session lookup")
		return nil, false
	}
	rows, err := s.db.GaitRows(sessionID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get session rows: %v", err))
		return nil, false
	}
	return rows, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.analyzer.Summary())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "no database configured for session lookup")
		return
	}

	sessions, err := s.db.Sessions(100)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]any{
		"version":                  version.String(),
		"belt_speed_mps":           s.tuning.GetBeltSpeedMPS(),
		"visibility_threshold":     s.tuning.GetVisibilityThreshold(),
		"min_strike_interval_ms":   s.tuning.GetMinStrikeIntervalMs(),
		"smoothing_window":         s.tuning.GetSmoothingWindow(),
		"ground_tolerance_px":      s.tuning.GetGroundTolerancePx(),
		"require_sign_change":      s.tuning.GetRequireSignChange(),
		"require_ground_proximity": s.tuning.GetRequireGroundProximity(),
		"warmup_seconds":           s.tuning.GetWarmupDuration().Seconds(),
		"countdown_seconds":        s.tuning.GetCountdownDuration().Seconds(),
		"step_quota":               s.tuning.GetStepQuota(),
	})
}
