package orchestrator

import (
	"math"
	"testing"

	"github.com/gyeh/cms-pricing/internal/money"
)

func TestPercentageDelta_ZeroBaseConvention(t *testing.T) {
	cases := []struct {
		name string
		a, b money.Cents
		want float64
	}{
		{"both zero", 0, 0, 0},
		{"zero base nonzero other", 0, 500, math.Inf(1)},
		{"normal increase", 1000, 1100, 10},
		{"normal decrease", 1000, 900, -10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := percentageDelta(c.a, c.b)
			if math.IsInf(c.want, 1) {
				if !math.IsInf(got, 1) {
					t.Errorf("got %v, want +Inf", got)
				}
				return
			}
			if got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestCalculateDeltas_TotalAllowedAndBeneficiary(t *testing.T) {
	respA := Response{Totals: Totals{AllowedCents: 1000, BeneficiaryTotalCents: 200, ProgramPaymentCents: 800}}
	respB := Response{Totals: Totals{AllowedCents: 1500, BeneficiaryTotalCents: 300, ProgramPaymentCents: 1200}}

	deltas := calculateDeltas(respA, respB)
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}

	byField := make(map[string]Delta, len(deltas))
	for _, d := range deltas {
		byField[d.Field] = d
	}

	allowed, ok := byField["total_allowed"]
	if !ok {
		t.Fatal("missing total_allowed delta")
	}
	if allowed.DeltaCents != 500 {
		t.Errorf("total_allowed delta_cents = %d, want 500", allowed.DeltaCents)
	}

	ben, ok := byField["total_beneficiary"]
	if !ok {
		t.Fatal("missing total_beneficiary delta")
	}
	if ben.DeltaCents != 100 {
		t.Errorf("total_beneficiary delta_cents = %d, want 100", ben.DeltaCents)
	}
}
