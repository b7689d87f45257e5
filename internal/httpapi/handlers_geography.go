package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/geo"
)

// handleResolveGeography resolves a ZIP/ZIP+4 to a locality. All
// inputs arrive as query parameters; the radius-expansion knobs
// default inside geo.Resolver when left unset.
func (s *Server) handleResolveGeography(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zip5 := q.Get("zip")
	if zip5 == "" {
		writeError(w, apperr.New(apperr.CodeInvalidInput, "zip is required"))
		return
	}

	params := geo.Params{
		Zip5:          zip5,
		Plus4:         q.Get("plus4"),
		Strict:        queryBool(q, "strict"),
		ExposeCarrier: queryBool(q, "expose_carrier"),
	}
	if year, ok := queryInt(q, "valuation_year"); ok {
		params.Year = &year
	}
	if quarter, ok := queryInt(q, "quarter"); ok {
		params.Quarter = &quarter
	}
	if raw := q.Get("valuation_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, apperr.New(apperr.CodeInvalidInput, "valuation_date must be YYYY-MM-DD"))
			return
		}
		params.ValuationDate = &t
	}
	if v, ok := queryFloat(q, "initial_radius_miles"); ok {
		params.InitialRadiusMiles = v
	}
	if v, ok := queryFloat(q, "expand_step_miles"); ok {
		params.ExpandStepMiles = v
	}
	if v, ok := queryFloat(q, "max_radius_miles"); ok {
		params.MaxRadiusMiles = v
	}

	ctx, cancel := s.withRequestContext(r)
	defer cancel()

	res, err := s.resolver.Resolve(ctx, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func queryBool(q url.Values, key string) bool {
	raw := q.Get(key)
	if raw == "" {
		return false
	}
	b, _ := strconv.ParseBool(raw)
	return b
}

func queryInt(q url.Values, key string) (int, bool) {
	raw := q.Get(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func queryFloat(q url.Values, key string) (float64, bool) {
	raw := q.Get(key)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
