// Package engine implements the seven setting-specific fee-schedule
// calculators, sharing the modifier-adjustment and cost-sharing
// subroutines common to all of them. Engines are
// dispatched by the Orchestrator through the Setting-keyed table in
// table.go rather than a class hierarchy.
package engine

import (
	"context"
	"time"

	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/money"
)

// Source distinguishes a benchmark (CMS fee-schedule) price from a
// commercial machine-readable-file comparison price.
type Source string

const (
	SourceBenchmark Source = "benchmark"
	SourceMRF       Source = "mrf"
	SourceTIC       Source = "tic"
)

// TraceRef is one engine-emitted trace payload, persisted by the
// Orchestrator as a RunTrace row.
type TraceRef struct {
	Kind        string
	PayloadJSON string
}

// Context is the per-line input every engine consumes, assembled by
// the Orchestrator from the PlanComponent and the resolved geography.
type Context struct {
	Code                  string
	Units                 float64
	UtilizationWeight     float64
	Modifiers             []string
	POS                   string
	NDC11                 string
	WastageUnits          float64
	ProfessionalComponent bool
	FacilityComponent     bool

	Year    int
	Quarter *int // nil for annual-only series (IPPS)

	LocalityID string
	CBSACode   string
	IsRural    bool

	DeductibleRemainingCents money.Cents
	CoinsuranceRate          float64

	ValuationDate time.Time
}

// Result is the common shape every engine returns.
type Result struct {
	AllowedCents                money.Cents
	BeneficiaryDeductibleCents  money.Cents
	BeneficiaryCoinsuranceCents money.Cents
	BeneficiaryTotalCents       money.Cents
	ProgramPaymentCents         money.Cents
	ProfessionalAllowedCents    money.Cents
	FacilityAllowedCents        money.Cents
	Packaged                    bool
	FacilitySpecific            bool
	Source                      Source
	TraceRefs                   []TraceRef

	// DeductibleRemainingCents is the updated running deductible the
	// Orchestrator threads into the next line.
	DeductibleRemainingCents money.Cents

	// ReferencePriceCents is set only by the drug engine when an NDC was
	// given and a NADAC/crosswalk match was found.
	ReferencePriceCents *money.Cents
}

// Engine is the interface every setting-specific calculator satisfies.
// The context.Context carries the request-scoped deadline that every
// schedule-row lookup must respect.
type Engine interface {
	Price(ctx context.Context, line Context) (Result, error)
}

// Setting re-exports domain.Setting so callers need only import engine
// for dispatch.
type Setting = domain.Setting
