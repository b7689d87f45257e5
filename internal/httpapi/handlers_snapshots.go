package httpapi

import (
	"net/http"

	"github.com/gyeh/cms-pricing/internal/apperr"
)

type pinSnapshotRequest struct {
	PinName string `json:"pin_name"`
	Digest  string `json:"digest"`
}

// handlePinSnapshot records a named digest pin for later reproducibility
// assertions. Admin-only: pinning fixes the dataset a reproducibility
// test runs against, so it must not be reachable by a regular key.
func (s *Server) handlePinSnapshot(w http.ResponseWriter, r *http.Request) {
	var req pinSnapshotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PinName == "" || req.Digest == "" {
		writeError(w, apperr.New(apperr.CodeInvalidInput, "pin_name and digest are required"))
		return
	}

	ctx, cancel := s.withRequestContext(r)
	defer cancel()

	if err := s.registry.Pin(ctx, req.PinName, req.Digest); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pin_name": req.PinName, "digest": req.Digest})
}
