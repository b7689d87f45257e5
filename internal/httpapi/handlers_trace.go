package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gyeh/cms-pricing/internal/trace"
)

func (s *Server) handleLookupRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	ctx, cancel := s.withRequestContext(r)
	defer cancel()

	full, err := trace.Lookup(ctx, s.traces, runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, full)
}

// handleReplayRun re-executes a previously recorded request and
// reports whether it reproduces the original Run byte-for-byte. It
// requires the orchestrator as a trace.Repricer.
func (s *Server) handleReplayRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	ctx, cancel := s.withRequestContext(r)
	defer cancel()

	report, err := trace.Replay(ctx, s.traces, s.orchestrator, runID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if !report.Equal {
		status = http.StatusConflict
	}
	writeJSON(w, status, report)
}
