package engine

import (
	"context"
	"strconv"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/money"
)

// MPFSStore is the narrow read interface the physician engine needs.
type MPFSStore interface {
	MPFSRow(ctx context.Context, year int, localityID, hcpcs string) (*domain.MPFSRow, error)
	GPCIRow(ctx context.Context, year int, localityID string) (*domain.GPCIRow, error)
	ConversionFactor(ctx context.Context, year int, kind domain.ConversionFactorKind) (*domain.ConversionFactorRow, error)
}

// MPFSEngine prices PHYS-setting lines against the physician fee
// schedule (RVU × GPCI × conversion factor).
type MPFSEngine struct {
	store MPFSStore
}

// NewMPFSEngine constructs an MPFSEngine.
func NewMPFSEngine(store MPFSStore) *MPFSEngine {
	return &MPFSEngine{store: store}
}

// nonFacilityPOSMin/Max bound the place-of-service codes that select the
// non-facility PE RVU.
const (
	nonFacilityPOSMin = 11
	nonFacilityPOSMax = 21
)

func (e *MPFSEngine) Price(ctx context.Context, line Context) (Result, error) {
	row, err := e.store.MPFSRow(ctx, line.Year, line.LocalityID, line.Code)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSchedulePricingMiss, "physician fee schedule row not found", err)
	}
	gpci, err := e.store.GPCIRow(ctx, line.Year, line.LocalityID)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeRequiredReferenceMiss, "GPCI row not found", err)
	}
	cf, err := e.store.ConversionFactor(ctx, line.Year, domain.ConversionFactorPhysician)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeRequiredReferenceMiss, "physician conversion factor not found", err)
	}

	peRVU := peRVUForPOS(row, line.POS)
	totalRVU := row.WorkRVU*gpci.GPCIWork + peRVU*gpci.GPCIPE + row.MalpRVU*gpci.GPCIMalp
	baseAllowed := money.RoundToCents(totalRVU * cf.Value)

	adjusted, unknownMods := ApplyModifiers(baseAllowed, line.Modifiers)
	allowed := adjusted.MulFloat(line.Units).MulFloat(line.UtilizationWeight)

	sharing := ApplyCostSharing(allowed, line.DeductibleRemainingCents, line.CoinsuranceRate)

	res := Result{AllowedCents: allowed, Source: SourceBenchmark}
	sharing.apply(&res)
	if line.FacilityComponent && !line.ProfessionalComponent {
		res.FacilityAllowedCents = allowed
	} else {
		res.ProfessionalAllowedCents = allowed
	}
	if len(unknownMods) > 0 {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "unknown_modifiers", PayloadJSON: joinStrings(unknownMods)})
	}
	return res, nil
}

// peRVUForPOS selects the non-facility or facility practice-expense
// RVU based on the place-of-service code.
func peRVUForPOS(row *domain.MPFSRow, pos string) float64 {
	if pos == "" {
		return row.PEFacRVU
	}
	n, err := strconv.Atoi(pos)
	if err != nil {
		return row.PEFacRVU
	}
	if n >= nonFacilityPOSMin && n <= nonFacilityPOSMax {
		return row.PENonFacRVU
	}
	return row.PEFacRVU
}

func joinStrings(ss []string) string {
	out := `["`
	for i, s := range ss {
		if i > 0 {
			out += `","`
		}
		out += s
	}
	return out + `"]`
}
