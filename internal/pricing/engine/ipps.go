package engine

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/money"
)

// IPPSStore is the narrow read interface the inpatient engine needs.
type IPPSStore interface {
	InpatientDRGRow(ctx context.Context, fiscalYear int, drgCode string) (*domain.InpatientDRGRow, error)
	InpatientBaseRates(ctx context.Context, fiscalYear int) (*domain.InpatientBaseRatesRow, error)
	AnnualWageIndex(ctx context.Context, fiscalYear int, cbsaCode string) (*domain.WageIndexRow, error)
}

// IPPSEngine prices IPPS-setting lines (DRG weight × wage-adjusted base
// rates). Cost sharing is the per-admission
// Part-A deductible threaded in via line.DeductibleRemainingCents — no
// coinsurance layer.
type IPPSEngine struct {
	store IPPSStore
}

// NewIPPSEngine constructs an IPPSEngine.
func NewIPPSEngine(store IPPSStore) *IPPSEngine {
	return &IPPSEngine{store: store}
}

func (e *IPPSEngine) Price(ctx context.Context, line Context) (Result, error) {
	drg, err := e.store.InpatientDRGRow(ctx, line.Year, line.Code)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSchedulePricingMiss, "inpatient DRG row not found", err)
	}
	base, err := e.store.InpatientBaseRates(ctx, line.Year)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeRequiredReferenceMiss, "inpatient base rates not found", err)
	}
	if line.CBSACode == "" {
		return Result{}, apperr.New(apperr.CodeRequiredReferenceMiss, "IPPS pricing requires a resolved CBSA")
	}
	wage, err := e.store.AnnualWageIndex(ctx, line.Year, line.CBSACode)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeRequiredReferenceMiss, "annual wage index row not found", err)
	}

	operating := money.RoundToCents(float64(base.OperatingBaseCents) / 100 * wage.WageIndex)
	capital := money.RoundToCents(float64(base.CapitalBaseCents) / 100 * wage.WageIndex)
	basePayment := operating.Add(capital).MulFloat(drg.RelativeWeight)

	adjusted, unknownMods := ApplyModifiers(basePayment, line.Modifiers)
	allowed := adjusted.MulFloat(line.Units).MulFloat(line.UtilizationWeight)

	sharing := ApplyFullDeductible(allowed, line.DeductibleRemainingCents)
	res := Result{AllowedCents: allowed, FacilityAllowedCents: allowed, FacilitySpecific: true, Source: SourceBenchmark}
	sharing.apply(&res)
	if len(unknownMods) > 0 {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "unknown_modifiers", PayloadJSON: joinStrings(unknownMods)})
	}
	return res, nil
}
