package engine

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

// DMEPOSStore is the narrow read interface the durable-equipment
// engine needs.
type DMEPOSStore interface {
	DMEPOSRow(ctx context.Context, year, quarter int, code string, isRural bool) (*domain.DMEPOSRow, error)
}

// DMEPOSEngine prices DMEPOS-setting lines against the durable
// medical equipment fee schedule, split by rural flag.
type DMEPOSEngine struct {
	store DMEPOSStore
}

// NewDMEPOSEngine constructs a DMEPOSEngine.
func NewDMEPOSEngine(store DMEPOSStore) *DMEPOSEngine {
	return &DMEPOSEngine{store: store}
}

func (e *DMEPOSEngine) Price(ctx context.Context, line Context) (Result, error) {
	quarter := quarterOrDefault(line.Quarter)
	row, err := e.store.DMEPOSRow(ctx, line.Year, quarter, line.Code, line.IsRural)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSchedulePricingMiss, "DMEPOS fee schedule row not found", err)
	}

	adjusted, unknownMods := ApplyModifiers(row.FeeCents, line.Modifiers)
	allowed := adjusted.MulFloat(line.Units).MulFloat(line.UtilizationWeight)

	sharing := ApplyCostSharing(allowed, line.DeductibleRemainingCents, line.CoinsuranceRate)
	res := Result{AllowedCents: allowed, ProfessionalAllowedCents: allowed, Source: SourceBenchmark}
	sharing.apply(&res)
	if len(unknownMods) > 0 {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "unknown_modifiers", PayloadJSON: joinStrings(unknownMods)})
	}
	return res, nil
}
