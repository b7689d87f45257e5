package engine

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

// CLFSStore is the narrow read interface the clinical-laboratory
// engine needs.
type CLFSStore interface {
	CLFSRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.CLFSRow, error)
}

// CLFSEngine prices CLFS-setting lines against the clinical
// laboratory fee schedule.
type CLFSEngine struct {
	store CLFSStore
}

// NewCLFSEngine constructs a CLFSEngine.
func NewCLFSEngine(store CLFSStore) *CLFSEngine {
	return &CLFSEngine{store: store}
}

func (e *CLFSEngine) Price(ctx context.Context, line Context) (Result, error) {
	quarter := quarterOrDefault(line.Quarter)
	row, err := e.store.CLFSRow(ctx, line.Year, quarter, line.Code)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSchedulePricingMiss, "CLFS fee schedule row not found", err)
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
