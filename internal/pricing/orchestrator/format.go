package orchestrator

import (
	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/geo"
	"github.com/gyeh/cms-pricing/internal/pricing/engine"
)

// DecimalLineItem mirrors LineItem with dollar amounts instead of cents, for format=decimal responses.
type DecimalLineItem struct {
	Sequence               int            `json:"sequence"`
	Code                   string         `json:"code"`
	Setting                domain.Setting `json:"setting"`
	Allowed                float64        `json:"allowed"`
	BeneficiaryDeductible  float64        `json:"beneficiary_deductible"`
	BeneficiaryCoinsurance float64        `json:"beneficiary_coinsurance"`
	BeneficiaryTotal       float64        `json:"beneficiary_total"`
	ProgramPayment         float64        `json:"program_payment"`
	ProfessionalAllowed    float64        `json:"professional_allowed,omitempty"`
	FacilityAllowed        float64        `json:"facility_allowed,omitempty"`
	Packaged               bool           `json:"packaged,omitempty"`
	ReferencePrice         *float64       `json:"reference_price,omitempty"`
	Source                 engine.Source  `json:"source,omitempty"`
	DatasetDigest          string         `json:"dataset_digest,omitempty"`
	FailureCode            string         `json:"failure_code,omitempty"`
	FailureMessage         string         `json:"failure_message,omitempty"`
}

// DecimalTotals mirrors Totals in dollars.
type DecimalTotals struct {
	Allowed          float64 `json:"allowed"`
	BeneficiaryTotal float64 `json:"beneficiary_total"`
	ProgramPayment   float64 `json:"program_payment"`
}

// DecimalResponse mirrors Response with every money.Cents field
// rendered as dollars via money.Cents.Dollars.
type DecimalResponse struct {
	RunID                string            `json:"run_id"`
	Geography            geo.Resolution    `json:"geography"`
	LineItems            []DecimalLineItem `json:"line_items"`
	Totals               DecimalTotals     `json:"totals"`
	Warnings             []string          `json:"warnings,omitempty"`
	SequestrationApplied bool              `json:"sequestration_applied,omitempty"`
}

func toDecimalLineItem(l LineItem) DecimalLineItem {
	d := DecimalLineItem{
		Sequence:               l.Sequence,
		Code:                   l.Code,
		Setting:                l.Setting,
		Allowed:                l.AllowedCents.Dollars(),
		BeneficiaryDeductible:  l.BeneficiaryDeductibleCents.Dollars(),
		BeneficiaryCoinsurance: l.BeneficiaryCoinsuranceCents.Dollars(),
		BeneficiaryTotal:       l.BeneficiaryTotalCents.Dollars(),
		ProgramPayment:         l.ProgramPaymentCents.Dollars(),
		ProfessionalAllowed:    l.ProfessionalAllowedCents.Dollars(),
		FacilityAllowed:        l.FacilityAllowedCents.Dollars(),
		Packaged:               l.Packaged,
		Source:                 l.Source,
		DatasetDigest:          l.DatasetDigest,
		FailureCode:            l.FailureCode,
		FailureMessage:         l.FailureMessage,
	}
	if l.ReferencePriceCents != nil {
		dollars := l.ReferencePriceCents.Dollars()
		d.ReferencePrice = &dollars
	}
	return d
}

func toDecimalResponse(r Response) DecimalResponse {
	items := make([]DecimalLineItem, len(r.LineItems))
	for i, l := range r.LineItems {
		items[i] = toDecimalLineItem(l)
	}
	return DecimalResponse{
		RunID:     r.RunID,
		Geography: r.Geography,
		LineItems: items,
		Totals: DecimalTotals{
			Allowed:          r.Totals.AllowedCents.Dollars(),
			BeneficiaryTotal: r.Totals.BeneficiaryTotalCents.Dollars(),
			ProgramPayment:   r.Totals.ProgramPaymentCents.Dollars(),
		},
		Warnings:             r.Warnings,
		SequestrationApplied: r.SequestrationApplied,
	}
}

// FormatResponse renders r as cents (the zero value, returned
// unmodified) or as a DecimalResponse when format is "decimal".
func FormatResponse(r Response, format string) any {
	if format == FormatDecimal {
		return toDecimalResponse(r)
	}
	return r
}

// DecimalDelta mirrors Delta in dollars.
type DecimalDelta struct {
	Field        string  `json:"field"`
	LocationA    float64 `json:"location_a"`
	LocationB    float64 `json:"location_b"`
	DeltaCents   float64 `json:"delta"`
	DeltaPercent float64 `json:"delta_percent"`
}

// DecimalCompareResponse mirrors CompareResponse in dollars.
type DecimalCompareResponse struct {
	A      DecimalResponse `json:"a"`
	B      DecimalResponse `json:"b"`
	Deltas []DecimalDelta  `json:"deltas"`
	Parity ParityReport    `json:"parity"`
}

// FormatCompareResponse renders r as cents (returned unmodified) or as
// a DecimalCompareResponse when format is "decimal".
func FormatCompareResponse(r CompareResponse, format string) any {
	if format != FormatDecimal {
		return r
	}
	deltas := make([]DecimalDelta, len(r.Deltas))
	for i, d := range r.Deltas {
		deltas[i] = DecimalDelta{
			Field:        d.Field,
			LocationA:    d.LocationA.Dollars(),
			LocationB:    d.LocationB.Dollars(),
			DeltaCents:   d.DeltaCents.Dollars(),
			DeltaPercent: d.DeltaPercent,
		}
	}
	return DecimalCompareResponse{
		A:      toDecimalResponse(r.A),
		B:      toDecimalResponse(r.B),
		Deltas: deltas,
		Parity: r.Parity,
	}
}
