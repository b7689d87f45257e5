package engine

import (
	"context"
	"fmt"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

// partBAddOnRate is the 6% Part B add-on applied to the ASP.
const partBAddOnRate = 1.06

// DrugStore is the narrow read interface the drug engine needs.
type DrugStore interface {
	DrugASPRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.DrugASPRow, error)
	LatestNADAC(ctx context.Context, ndc11 string) (*domain.NADACRow, error)
	NDCCrosswalk(ctx context.Context, ndc11, hcpcs string) (*domain.NDCCrosswalkRow, error)
}

// DrugEngine prices DRUG-setting lines against Part B ASP, with an
// optional NADAC reference-price comparison when an NDC is supplied.
type DrugEngine struct {
	store DrugStore
}

// NewDrugEngine constructs a DrugEngine.
func NewDrugEngine(store DrugStore) *DrugEngine {
	return &DrugEngine{store: store}
}

func (e *DrugEngine) Price(ctx context.Context, line Context) (Result, error) {
	quarter := quarterOrDefault(line.Quarter)
	asp, err := e.store.DrugASPRow(ctx, line.Year, quarter, line.Code)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSchedulePricingMiss, "drug ASP row not found", err)
	}

	partBAllowed := asp.ASPPerUnitCents.MulFloat(partBAddOnRate).MulFloat(line.Units).MulFloat(line.UtilizationWeight)
	adjusted, unknownMods := ApplyModifiers(partBAllowed, line.Modifiers)
	allowed := adjusted

	sharing := ApplyCostSharing(allowed, line.DeductibleRemainingCents, line.CoinsuranceRate)
	res := Result{AllowedCents: allowed, ProfessionalAllowedCents: allowed, Source: SourceBenchmark}
	sharing.apply(&res)
	if len(unknownMods) > 0 {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "unknown_modifiers", PayloadJSON: joinStrings(unknownMods)})
	}

	if line.NDC11 != "" {
		e.attachReferencePrice(ctx, line, &res)
	}

	return res, nil
}

// attachReferencePrice looks up the NADAC unit price and the NDC-to-HCPCS
// unit crosswalk for comparison against the benchmark allowed amount. A
// miss on either is recorded as a trace note, not a line failure.
func (e *DrugEngine) attachReferencePrice(ctx context.Context, line Context, res *Result) {
	nadac, err := e.store.LatestNADAC(ctx, line.NDC11)
	if err != nil {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "nadac_miss", PayloadJSON: fmt.Sprintf(`{"ndc11":%q}`, line.NDC11)})
		return
	}
	crosswalk, err := e.store.NDCCrosswalk(ctx, line.NDC11, line.Code)
	if err != nil {
		res.TraceRefs = append(res.TraceRefs, TraceRef{Kind: "ndc_crosswalk_miss", PayloadJSON: fmt.Sprintf(`{"ndc11":%q,"hcpcs":%q}`, line.NDC11, line.Code)})
		return
	}

	reference := nadac.UnitPriceCents.MulFloat(crosswalk.UnitsPerHCPCS).MulFloat(line.Units).MulFloat(line.UtilizationWeight)
	res.ReferencePriceCents = &reference
	res.TraceRefs = append(res.TraceRefs, TraceRef{
		Kind: "nadac_unit_conversion",
		PayloadJSON: fmt.Sprintf(`{"ndc11":%q,"hcpcs":%q,"units_per_hcpcs":%v,"reference_price_cents":%d}`,
			line.NDC11, line.Code, crosswalk.UnitsPerHCPCS, int64(reference)),
	})
}
