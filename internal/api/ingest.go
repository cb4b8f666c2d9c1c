package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/framemux"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/httputil"
)

// maxIngestBytes bounds one ingest request body.
const maxIngestBytes = 1 << 20

// handleIngest accepts one pose frame per POST, JSON or CBOR encoded, and
// queues it for the engine. A full queue reports 503 so capture clients can
// back off.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.ingest == nil {
		httputil.ServiceUnavailable(w, "no ingest source configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBytes+1))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}
	if len(body) > maxIngestBytes {
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, "frame payload too large")
		return
	}

	frame, err := framemux.DecodeFrame(body)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ingest.Push(frame); err != nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
