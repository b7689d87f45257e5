package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/pricing/orchestrator"
)

type codePriceRequest struct {
	Zip     string         `json:"zip"`
	Plus4   string         `json:"plus4,omitempty"`
	Year    int            `json:"year"`
	Quarter *int           `json:"quarter,omitempty"`
	Code    string         `json:"code"`
	Setting domain.Setting `json:"setting"`
	CCN     string         `json:"ccn,omitempty"`
	Units   float64        `json:"units,omitempty"`
	Payer   string         `json:"payer,omitempty"`
	Plan    string         `json:"plan,omitempty"`
}

type codePriceResponse struct {
	Benchmark       orchestrator.LineItem `json:"benchmark"`
	NegotiatedCents *int64                `json:"negotiated_cents,omitempty"`
	NegotiatedPayer string                `json:"negotiated_payer,omitempty"`
}

// handlePriceCode prices a single ad-hoc code against the Medicare
// benchmark and, when a payer/plan is given, attaches a negotiated
// commercial rate for comparison. Absence of a negotiated rate is not
// an error — the field is simply omitted.
func (s *Server) handlePriceCode(w http.ResponseWriter, r *http.Request) {
	req := codePriceRequest{Units: 1}
	q := r.URL.Query()
	req.Zip = q.Get("zip")
	req.Plus4 = q.Get("plus4")
	req.Code = q.Get("code")
	req.Setting = domain.Setting(q.Get("setting"))
	req.CCN = q.Get("ccn")
	req.Payer = q.Get("payer")
	req.Plan = q.Get("plan")
	if year, ok := queryInt(q, "year"); ok {
		req.Year = year
	}
	if quarter, ok := queryInt(q, "quarter"); ok {
		req.Quarter = &quarter
	}
	if units, ok := queryFloat(q, "units"); ok && units != 0 {
		req.Units = units
	}

	if req.Code == "" || req.Setting == "" {
		writeError(w, apperr.New(apperr.CodeInvalidInput, "code and setting are required"))
		return
	}

	ctx, cancel := s.withRequestContext(r)
	defer cancel()

	planReq := orchestrator.Request{
		Zip:      req.Zip,
		Plus4:    req.Plus4,
		Year:     req.Year,
		Quarter:  req.Quarter,
		CCN:      req.CCN,
		Payer:    req.Payer,
		PlanName: req.Plan,
		AdHocPlan: []orchestrator.ComponentInput{
			{Sequence: 1, Code: req.Code, Setting: req.Setting, Units: req.Units, UtilizationWeight: 1},
		},
	}

	resp, err := s.orchestrator.PricePlan(ctx, "GET /pricing/codes/price", planReq)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(resp.LineItems) == 0 {
		writeError(w, apperr.New(apperr.CodeInternal, "orchestrator returned no line for single-code request"))
		return
	}

	out := codePriceResponse{Benchmark: resp.LineItems[0]}
	if s.mrf != nil && req.Payer != "" && req.Plan != "" {
		rate, err := s.mrf.NegotiatedRate(ctx, req.Code, req.Payer, req.Plan, string(req.Setting))
		if err != nil {
			s.log.Warn("negotiated rate lookup failed", zap.Error(err))
		} else if rate != nil {
			cents := int64(rate.NegotiatedCents)
			out.NegotiatedCents = &cents
			out.NegotiatedPayer = rate.Payer
		}
	}
	writeJSON(w, http.StatusOK, out)
}
