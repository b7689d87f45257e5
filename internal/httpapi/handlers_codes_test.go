package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/geo"
	"github.com/gyeh/cms-pricing/internal/mrf"
	"github.com/gyeh/cms-pricing/internal/pricing/engine"
	"github.com/gyeh/cms-pricing/internal/pricing/orchestrator"
)

type codesFakeGeoStore struct{}

func (codesFakeGeoStore) GeographyByZipPlus4(context.Context, string, string, time.Time) (*domain.GeographyRow, error) {
	return nil, nil
}
func (codesFakeGeoStore) GeographyByZip5(_ context.Context, zip5 string, _ time.Time) (*domain.GeographyRow, error) {
	return &domain.GeographyRow{Zip5: zip5, State: "CA", LocalityID: "5", CBSACode: "41860", RuralFlag: domain.RuralFlagNone, DatasetDigest: "digest-1"}, nil
}
func (codesFakeGeoStore) GeographyByZipState(context.Context, string, string, time.Time) (*domain.GeographyRow, error) {
	return nil, nil
}
func (codesFakeGeoStore) ZipGeometry(context.Context, string, time.Time) (*domain.ZipGeometryRow, error) {
	return nil, nil
}
func (codesFakeGeoStore) ZipGeometriesInState(context.Context, string, string, time.Time) ([]domain.ZipGeometryRow, error) {
	return nil, nil
}

type codesNoopTracer struct{}

func (codesNoopTracer) WriteResolutionTrace(context.Context, geo.ResolutionTrace) error { return nil }

type codesFakePlanStore struct{}

func (codesFakePlanStore) PlanByID(context.Context, string) (*domain.Plan, error) {
	return nil, errors.New("plan not found")
}

type codesFakeBenefitStore struct{}

func (codesFakeBenefitStore) BenefitParamsForYear(context.Context, int) (*domain.BenefitParams, error) {
	return &domain.BenefitParams{ValuationYear: 2025, CoinsuranceRate: 0.20}, nil
}

type codesFakeTraceStore struct{}

func (codesFakeTraceStore) SaveRun(context.Context, domain.Run, []domain.RunInput, []domain.RunOutput, []domain.RunTrace) error {
	return nil
}
func (codesFakeTraceStore) GetRun(context.Context, string) (domain.Run, error) {
	return domain.Run{}, errors.New("not found")
}
func (codesFakeTraceStore) ListInputs(context.Context, string) ([]domain.RunInput, error) {
	return nil, nil
}
func (codesFakeTraceStore) ListOutputs(context.Context, string) ([]domain.RunOutput, error) {
	return nil, nil
}
func (codesFakeTraceStore) ListTraces(context.Context, string) ([]domain.RunTrace, error) {
	return nil, nil
}

type codesFakeEngine struct{ result engine.Result }

func (f codesFakeEngine) Price(context.Context, engine.Context) (engine.Result, error) {
	return f.result, nil
}

type codesFakeMRFStore struct {
	rate *mrf.NegotiatedRate
}

func (f codesFakeMRFStore) LatestNegotiatedRate(context.Context, string, string, string, string) (*mrf.NegotiatedRate, error) {
	return f.rate, nil
}

func newTestServerForCodes(t *testing.T, mrfLookup *mrf.Lookup) *Server {
	t.Helper()
	resolver := geo.NewResolver(codesFakeGeoStore{}, codesNoopTracer{}, zap.NewNop(), "test", "01")
	engines := engine.Table{
		domain.SettingPhysician: codesFakeEngine{result: engine.Result{
			AllowedCents: 8859, BeneficiaryCoinsuranceCents: 1772, BeneficiaryTotalCents: 1772,
			ProgramPaymentCents: 7087, ProfessionalAllowedCents: 8859, Source: engine.SourceBenchmark,
		}},
	}
	orch := orchestrator.NewOrchestrator(resolver, codesFakePlanStore{}, codesFakeBenefitStore{}, engines, codesFakeTraceStore{}, zap.NewNop())
	return &Server{
		resolver:       resolver,
		orchestrator:   orch,
		mrf:            mrfLookup,
		log:            zap.NewNop(),
		requestTimeout: 5 * time.Second,
	}
}

func getCodePrice(t *testing.T, s *Server, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/pricing/codes/price?"+query, nil)
	rr := httptest.NewRecorder()
	s.handlePriceCode(rr, req)
	return rr
}

func TestHandlePriceCode_PricesWithoutMRF(t *testing.T) {
	s := newTestServerForCodes(t, nil)
	rr := getCodePrice(t, s, "zip=94110&year=2025&code=99214&setting=PHYS")

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
	var out codePriceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.Benchmark.AllowedCents != 8859 {
		t.Errorf("got allowed_cents=%d, want 8859", out.Benchmark.AllowedCents)
	}
	if out.NegotiatedCents != nil {
		t.Errorf("got negotiated_cents=%v, want nil when no payer/plan given", out.NegotiatedCents)
	}
}

func TestHandlePriceCode_AttachesNegotiatedRateWhenPayerAndPlanGiven(t *testing.T) {
	mrfLookup := mrf.NewLookup(codesFakeMRFStore{rate: &mrf.NegotiatedRate{
		HCPCS: "99214", Payer: "Acme Health", Plan: "PPO Gold", NegotiatedCents: 11500,
	}})
	s := newTestServerForCodes(t, mrfLookup)
	rr := getCodePrice(t, s, "zip=94110&year=2025&code=99214&setting=PHYS&payer=Acme+Health&plan=PPO+Gold")

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
	var out codePriceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.NegotiatedCents == nil || *out.NegotiatedCents != 11500 {
		t.Errorf("got negotiated_cents=%v, want 11500", out.NegotiatedCents)
	}
	if out.NegotiatedPayer != "Acme Health" {
		t.Errorf("got negotiated_payer=%q, want Acme Health", out.NegotiatedPayer)
	}
}

func TestHandlePriceCode_MissingCodeReturnsBadRequest(t *testing.T) {
	s := newTestServerForCodes(t, nil)
	rr := getCodePrice(t, s, "zip=94110&year=2025&setting=PHYS")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rr.Code)
	}
}
