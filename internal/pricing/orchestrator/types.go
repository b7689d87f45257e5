// Package orchestrator implements the Pricing Orchestrator: plan decomposition, per-setting engine dispatch,
// deductible threading, aggregation, comparison parity, and run/trace
// persistence.
package orchestrator

import (
	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/geo"
	"github.com/gyeh/cms-pricing/internal/money"
	"github.com/gyeh/cms-pricing/internal/pricing/engine"
)

// ComponentInput normalizes an ad-hoc plan line to the same shape as a
// stored PlanComponent.
type ComponentInput struct {
	Sequence              int              `json:"sequence"`
	Code                  string           `json:"code"`
	Setting               domain.Setting   `json:"setting"`
	Units                 float64          `json:"units"`
	UtilizationWeight     float64          `json:"utilization_weight"`
	ProfessionalComponent bool             `json:"professional_component"`
	FacilityComponent     bool             `json:"facility_component"`
	Modifiers             []string         `json:"modifiers,omitempty"`
	POS                   string           `json:"pos,omitempty"`
	NDC11                 string           `json:"ndc11,omitempty"`
	WastageUnits          float64          `json:"wastage_units,omitempty"`
}

func (c ComponentInput) toComponent() domain.PlanComponent {
	return domain.PlanComponent{
		Sequence:              c.Sequence,
		Code:                  c.Code,
		Setting:               c.Setting,
		Units:                 c.Units,
		UtilizationWeight:     c.UtilizationWeight,
		ProfessionalComponent: c.ProfessionalComponent,
		FacilityComponent:     c.FacilityComponent,
		Modifiers:             c.Modifiers,
		POS:                   c.POS,
		NDC11:                 c.NDC11,
		WastageUnits:          c.WastageUnits,
	}
}

// Request is the canonical, JSON-serializable shape of a pricing call,
// used both as the live request and as the Run's persisted RequestJSON
// (so Replay can reconstruct it verbatim).
type Request struct {
	Zip                string           `json:"zip"`
	Plus4              string           `json:"plus4,omitempty"`
	PlanID             string           `json:"plan_id,omitempty"`
	AdHocPlan          []ComponentInput `json:"ad_hoc_plan,omitempty"`
	Year               int              `json:"year"`
	Quarter            *int             `json:"quarter,omitempty"`
	CCN                string           `json:"ccn,omitempty"`
	Payer              string           `json:"payer,omitempty"`
	PlanName           string           `json:"plan,omitempty"`
	IncludeHomeHealth  bool             `json:"include_home_health"`
	IncludeSNF         bool             `json:"include_snf"`
	ApplySequestration bool             `json:"apply_sequestration"`
	SequestrationRate  float64          `json:"sequestration_rate,omitempty"`
	Strict             bool             `json:"strict,omitempty"`
	Format             string           `json:"format,omitempty"`
}

// FormatOrDefault returns the requested money format ("cents" or
// "decimal"), defaulting to "cents" when the caller left it blank.
func (r Request) FormatOrDefault() string {
	if r.Format == "" {
		return FormatCents
	}
	return r.Format
}

const (
	FormatCents   = "cents"
	FormatDecimal = "decimal"
)

// LineItem is one priced (or failed) line in the response.
type LineItem struct {
	Sequence                    int            `json:"sequence"`
	Code                        string         `json:"code"`
	Setting                     domain.Setting `json:"setting"`
	AllowedCents                money.Cents    `json:"allowed_cents"`
	BeneficiaryDeductibleCents  money.Cents    `json:"beneficiary_deductible_cents"`
	BeneficiaryCoinsuranceCents money.Cents    `json:"beneficiary_coinsurance_cents"`
	BeneficiaryTotalCents       money.Cents    `json:"beneficiary_total_cents"`
	ProgramPaymentCents         money.Cents    `json:"program_payment_cents"`
	ProfessionalAllowedCents    money.Cents    `json:"professional_allowed_cents,omitempty"`
	FacilityAllowedCents        money.Cents    `json:"facility_allowed_cents,omitempty"`
	Packaged                    bool           `json:"packaged,omitempty"`
	ReferencePriceCents         *money.Cents   `json:"reference_price_cents,omitempty"`
	Source                      engine.Source  `json:"source,omitempty"`
	DatasetDigest                string        `json:"dataset_digest,omitempty"`
	FailureCode                 string         `json:"failure_code,omitempty"`
	FailureMessage               string        `json:"failure_message,omitempty"`
}

// Totals aggregates a response's line items.
type Totals struct {
	AllowedCents          money.Cents `json:"allowed_cents"`
	BeneficiaryTotalCents money.Cents `json:"beneficiary_total_cents"`
	ProgramPaymentCents   money.Cents `json:"program_payment_cents"`
}

// Response is the result of pricing one plan.
type Response struct {
	RunID                string         `json:"run_id"`
	Geography            geo.Resolution `json:"geography"`
	LineItems            []LineItem     `json:"line_items"`
	Totals               Totals         `json:"totals"`
	Warnings             []string       `json:"warnings,omitempty"`
	SequestrationApplied bool           `json:"sequestration_applied,omitempty"`
}
