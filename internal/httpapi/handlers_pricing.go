package httpapi

import (
	"net/http"

	"github.com/gyeh/cms-pricing/internal/pricing/orchestrator"
)

func (s *Server) handlePricePlan(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.withRequestContext(r)
	defer cancel()

	resp, err := s.orchestrator.PricePlan(ctx, "POST /pricing/price", req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orchestrator.FormatResponse(resp, req.FormatOrDefault()))
}

// compareRequest is the same shape as a /pricing/price body, except
// the location is split into an A/B pair via zip_a/zip_b and, when the
// plan is ad hoc, ccn_a/ccn_b. Every other field (year, toggles,
// format, ...) is shared by both sides.
type compareRequest struct {
	ZipA               string                        `json:"zip_a"`
	ZipB               string                        `json:"zip_b"`
	PlanID             string                        `json:"plan_id,omitempty"`
	AdHocPlan          []orchestrator.ComponentInput `json:"ad_hoc_plan,omitempty"`
	Year               int                           `json:"year"`
	Quarter            *int                          `json:"quarter,omitempty"`
	CCNA               string                        `json:"ccn_a,omitempty"`
	CCNB               string                        `json:"ccn_b,omitempty"`
	Payer              string                        `json:"payer,omitempty"`
	Plan               string                        `json:"plan,omitempty"`
	IncludeHomeHealth  bool                          `json:"include_home_health"`
	IncludeSNF         bool                          `json:"include_snf"`
	ApplySequestration bool                          `json:"apply_sequestration"`
	SequestrationRate  float64                       `json:"sequestration_rate,omitempty"`
	Format             string                        `json:"format,omitempty"`
}

func (c compareRequest) sideRequests() (orchestrator.Request, orchestrator.Request) {
	shared := orchestrator.Request{
		PlanID:             c.PlanID,
		AdHocPlan:          c.AdHocPlan,
		Year:               c.Year,
		Quarter:            c.Quarter,
		Payer:              c.Payer,
		PlanName:           c.Plan,
		IncludeHomeHealth:  c.IncludeHomeHealth,
		IncludeSNF:         c.IncludeSNF,
		ApplySequestration: c.ApplySequestration,
		SequestrationRate:  c.SequestrationRate,
		Format:             c.Format,
	}
	a, b := shared, shared
	a.Zip, a.CCN = c.ZipA, c.CCNA
	b.Zip, b.CCN = c.ZipB, c.CCNB
	return a, b
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.withRequestContext(r)
	defer cancel()

	reqA, reqB := req.sideRequests()
	resp, err := s.orchestrator.Compare(ctx, "POST /pricing/compare", reqA, reqB)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if !resp.Parity.Valid {
		status = http.StatusConflict
	}
	writeJSON(w, status, orchestrator.FormatCompareResponse(resp, req.Format))
}
