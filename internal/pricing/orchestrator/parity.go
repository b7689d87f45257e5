package orchestrator

import (
	"context"
	"math"
	"sort"

	"github.com/gyeh/cms-pricing/internal/money"
)

// ParityViolation names a single parity invariant that failed.
type ParityViolation string

const (
	ParityDatasetDigestDiffer ParityViolation = "DatasetDigestDiffer"
	ParityTogglesDiffer       ParityViolation = "TogglesDiffer"
	ParityPlanDiffer          ParityViolation = "PlanDiffer"
)

// ParityReport is returned alongside a comparison response. The HTTP
// surface decides whether to reject the response when Valid is false.
type ParityReport struct {
	Valid      bool              `json:"valid"`
	Violations []ParityViolation `json:"violations,omitempty"`
}

// Delta is the difference between side A and side B for one totals
// field of a comparison response.
type Delta struct {
	Field        string      `json:"field"`
	LocationA    money.Cents `json:"location_a"`
	LocationB    money.Cents `json:"location_b"`
	DeltaCents   money.Cents `json:"delta_cents"`
	DeltaPercent float64     `json:"delta_percent"`
}

// CompareResponse is the result of pricing two locations side-by-side.
type CompareResponse struct {
	A      Response     `json:"a"`
	B      Response     `json:"b"`
	Deltas []Delta      `json:"deltas"`
	Parity ParityReport `json:"parity"`
}

// Compare prices reqA and reqB and evaluates the parity invariants
// before returning: snapshot parity (identical dataset_digest sets),
// toggle parity, and plan parity.
func (o *Orchestrator) Compare(ctx context.Context, endpoint string, reqA, reqB Request) (CompareResponse, error) {
	respA, err := o.PricePlan(ctx, endpoint, reqA)
	if err != nil {
		return CompareResponse{}, err
	}
	respB, err := o.PricePlan(ctx, endpoint, reqB)
	if err != nil {
		return CompareResponse{}, err
	}

	return CompareResponse{
		A:      respA,
		B:      respB,
		Deltas: calculateDeltas(respA, respB),
		Parity: evaluateParity(reqA, reqB, respA, respB),
	}, nil
}

// calculateDeltas computes the per-field B-minus-A deltas over the
// comparison's totals.
func calculateDeltas(respA, respB Response) []Delta {
	return []Delta{
		{
			Field:        "total_allowed",
			LocationA:    respA.Totals.AllowedCents,
			LocationB:    respB.Totals.AllowedCents,
			DeltaCents:   respB.Totals.AllowedCents - respA.Totals.AllowedCents,
			DeltaPercent: percentageDelta(respA.Totals.AllowedCents, respB.Totals.AllowedCents),
		},
		{
			Field:        "total_beneficiary",
			LocationA:    respA.Totals.BeneficiaryTotalCents,
			LocationB:    respB.Totals.BeneficiaryTotalCents,
			DeltaCents:   respB.Totals.BeneficiaryTotalCents - respA.Totals.BeneficiaryTotalCents,
			DeltaPercent: percentageDelta(respA.Totals.BeneficiaryTotalCents, respB.Totals.BeneficiaryTotalCents),
		},
	}
}

// percentageDelta is (b-a)/a * 100; a zero base is reported as 0 when b
// is also zero, or +Inf otherwise, rather than dividing by zero.
func percentageDelta(a, b money.Cents) float64 {
	if a == 0 {
		if b == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (float64(b-a) / float64(a)) * 100
}

func evaluateParity(reqA, reqB Request, respA, respB Response) ParityReport {
	var violations []ParityViolation

	if !sameDigestSet(digestsOf(respA), digestsOf(respB)) {
		violations = append(violations, ParityDatasetDigestDiffer)
	}
	if reqA.ApplySequestration != reqB.ApplySequestration ||
		reqA.SequestrationRate != reqB.SequestrationRate ||
		reqA.IncludeHomeHealth != reqB.IncludeHomeHealth ||
		reqA.IncludeSNF != reqB.IncludeSNF {
		violations = append(violations, ParityTogglesDiffer)
	}
	if reqA.PlanID != "" && reqB.PlanID != "" && reqA.PlanID != reqB.PlanID {
		violations = append(violations, ParityPlanDiffer)
	}

	return ParityReport{Valid: len(violations) == 0, Violations: violations}
}

func digestsOf(resp Response) []string {
	seen := make(map[string]struct{})
	var digests []string
	for _, l := range resp.LineItems {
		if l.DatasetDigest == "" {
			continue
		}
		if _, ok := seen[l.DatasetDigest]; !ok {
			seen[l.DatasetDigest] = struct{}{}
			digests = append(digests, l.DatasetDigest)
		}
	}
	sort.Strings(digests)
	return digests
}

func sameDigestSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
