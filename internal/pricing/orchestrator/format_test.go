package orchestrator

import "testing"

func TestFormatResponse_CentsIsUnchanged(t *testing.T) {
	resp := Response{RunID: "r1", Totals: Totals{AllowedCents: 12345}}
	out := FormatResponse(resp, FormatCents)
	got, ok := out.(Response)
	if !ok {
		t.Fatalf("expected Response for format=cents, got %T", out)
	}
	if got.Totals.AllowedCents != 12345 {
		t.Errorf("allowed_cents = %d, want 12345", got.Totals.AllowedCents)
	}
}

func TestFormatResponse_DecimalConvertsCentsToDollars(t *testing.T) {
	resp := Response{
		RunID: "r1",
		LineItems: []LineItem{
			{Sequence: 1, Code: "99213", AllowedCents: 12345},
		},
		Totals: Totals{AllowedCents: 12345, BeneficiaryTotalCents: 2000, ProgramPaymentCents: 10345},
	}
	out := FormatResponse(resp, FormatDecimal)
	got, ok := out.(DecimalResponse)
	if !ok {
		t.Fatalf("expected DecimalResponse for format=decimal, got %T", out)
	}
	if got.Totals.Allowed != 123.45 {
		t.Errorf("totals.allowed = %v, want 123.45", got.Totals.Allowed)
	}
	if len(got.LineItems) != 1 || got.LineItems[0].Allowed != 123.45 {
		t.Errorf("line item allowed = %v, want 123.45", got.LineItems)
	}
}

func TestFormatCompareResponse_DecimalConvertsDeltas(t *testing.T) {
	cmp := CompareResponse{
		A: Response{Totals: Totals{AllowedCents: 1000}},
		B: Response{Totals: Totals{AllowedCents: 1500}},
		Deltas: []Delta{
			{Field: "total_allowed", LocationA: 1000, LocationB: 1500, DeltaCents: 500, DeltaPercent: 50},
		},
		Parity: ParityReport{Valid: true},
	}
	out := FormatCompareResponse(cmp, FormatDecimal)
	got, ok := out.(DecimalCompareResponse)
	if !ok {
		t.Fatalf("expected DecimalCompareResponse, got %T", out)
	}
	if len(got.Deltas) != 1 || got.Deltas[0].DeltaCents != 5.0 {
		t.Errorf("delta = %+v, want 5.0 dollars", got.Deltas)
	}
}

func TestRequest_FormatOrDefault(t *testing.T) {
	if got := (Request{}).FormatOrDefault(); got != FormatCents {
		t.Errorf("empty format defaults to %q, got %q", FormatCents, got)
	}
	if got := (Request{Format: FormatDecimal}).FormatOrDefault(); got != FormatDecimal {
		t.Errorf("explicit decimal format not preserved, got %q", got)
	}
}
