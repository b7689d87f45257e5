package engine

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

// OPPSStore is the narrow read interface the outpatient engine needs.
type OPPSStore interface {
	OutpatientRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.OutpatientRow, error)
	WageIndex(ctx context.Context, year int, quarter *int, cbsaCode string) (*domain.WageIndexRow, error)
}

// packagedStatusIndicators are the OPPS status indicators whose line is
// packaged into another and priced at zero.
var packagedStatusIndicators = map[string]bool{
	"N": true, "J1": true, "Q1": true, "Q2": true, "Q3": true,
}

// OPPSEngine prices OPPS-setting lines against the wage-adjusted APC
// rate, packaging line items whose status indicator marks them as
// bundled into another line at zero.
type OPPSEngine struct {
	store OPPSStore
}

// NewOPPSEngine constructs an OPPSEngine.
func NewOPPSEngine(store OPPSStore) *OPPSEngine {
	return &OPPSEngine{store: store}
}

func (e *OPPSEngine) Price(ctx context.Context, line Context) (Result, error) {
	quarter := quarterOrDefault(line.Quarter)
	row, err := e.store.OutpatientRow(ctx, line.Year, quarter, line.Code)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSchedulePricingMiss, "outpatient fee schedule row not found", err)
	}

	if packagedStatusIndicators[row.StatusIndicator] || row.PackagingFlag {
		res := Result{Packaged: true, Source: SourceBenchmark}
		sharing := ApplyCostSharing(0, line.DeductibleRemainingCents, line.CoinsuranceRate)
		sharing.apply(&res)
		return res, nil
	}

	wage, err := e.store.WageIndex(ctx, line.Year, line.Quarter, line.CBSACode)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeRequiredReferenceMiss, "wage index row not found", err)
	}

	wageAdjusted := row.NationalUnadjRateCents.MulFloat(wage.WageIndex)
	adjusted, unknownMods := ApplyModifiers(wageAdjusted, line.Modifiers)
	allowed := adjusted.MulFloat(line.Units).MulFloat(line.UtilizationWeight)

	sharing := ApplyCostSharing(allowed, line.DeductibleRemainingCents, line.CoinsuranceRate)
	res := Result{AllowedCents: allowed, FacilityAllowedCents: allowed, FacilitySpecific: true, Source: SourceBenchmark}
	sharing.apply(&res)
	if len(unknownMods) > 0 {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "unknown_modifiers", PayloadJSON: joinStrings(unknownMods)})
	}
	return res, nil
}

func quarterOrDefault(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}
