package engine

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

// ASCStore is the narrow read interface the ambulatory-surgical engine
// needs.
type ASCStore interface {
	ASCRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.ASCRow, error)
}

// ASCEngine prices ASC-setting lines against the national ASC rate
// schedule.
type ASCEngine struct {
	store ASCStore
}

// NewASCEngine constructs an ASCEngine.
func NewASCEngine(store ASCStore) *ASCEngine {
	return &ASCEngine{store: store}
}

func (e *ASCEngine) Price(ctx context.Context, line Context) (Result, error) {
	quarter := quarterOrDefault(line.Quarter)
	row, err := e.store.ASCRow(ctx, line.Year, quarter, line.Code)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSchedulePricingMiss, "ASC fee schedule row not found", err)
	}

	adjusted, unknownMods := ApplyModifiers(row.ASCRateCents, line.Modifiers)
	allowed := adjusted.MulFloat(line.Units).MulFloat(line.UtilizationWeight)

	sharing := ApplyCostSharing(allowed, line.DeductibleRemainingCents, line.CoinsuranceRate)
	res := Result{AllowedCents: allowed, FacilityAllowedCents: allowed, FacilitySpecific: true, Source: SourceBenchmark}
	sharing.apply(&res)
	if len(unknownMods) > 0 {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "unknown_modifiers", PayloadJSON: joinStrings(unknownMods)})
	}
	return res, nil
}
