// Package domain holds the entities: effective-dated
// reference rows, plans, snapshots, and run/trace records. All monetary
// fields are money.Cents; all effective windows are half-open
// [EffectiveFrom, EffectiveTo) with a nil EffectiveTo meaning open-ended.
package domain

import (
	"time"

	"github.com/gyeh/cms-pricing/internal/money"
)

// Window is an effective-dated half-open interval shared by every
// reference row in the system.
type Window struct {
	EffectiveFrom time.Time
	EffectiveTo   *time.Time // nil = open-ended
}

// Covers reports whether at falls inside [EffectiveFrom, EffectiveTo).
func (w Window) Covers(at time.Time) bool {
	if at.Before(w.EffectiveFrom) {
		return false
	}
	if w.EffectiveTo == nil {
		return true
	}
	return at.Before(*w.EffectiveTo)
}

// Locality is the physician fee-schedule pricing jurisdiction.
type Locality struct {
	LocalityID string
	Name       string
	State      string
}

// RuralFlag enumerates the rural designation carried on a Geography row.
type RuralFlag string

const (
	RuralFlagNone  RuralFlag = ""
	RuralFlagRural RuralFlag = "R"
	RuralFlagBoth  RuralFlag = "B"
)

// GeographyRow maps a ZIP/ZIP+4 to a locality for a given effective window.
type GeographyRow struct {
	Zip5          string
	Plus4         string // empty when HasPlus4 is false
	HasPlus4      bool
	State         string
	LocalityID    string
	CarrierID     string
	RuralFlag     RuralFlag
	CBSACode      string
	Window        Window
	DatasetDigest string
}

// ZipGeometryRow is one representative lat/lon point for a ZIP5.
type ZipGeometryRow struct {
	Zip5     string
	Lat      float64
	Lon      float64
	State    string
	IsPOBox  bool
	Window   Window
}

// WageIndexRow is a CBSA wage index for a year, optionally by quarter.
// Quarter is nil for the annual (IPPS) series and non-nil for the
// quarterly (OPPS) series.
type WageIndexRow struct {
	Year      int
	Quarter   *int
	CBSACode  string
	WageIndex float64
}

// MPFSRow is a physician fee-schedule row (RVUs) for one HCPCS code.
type MPFSRow struct {
	Year       int
	LocalityID string
	HCPCS      string
	WorkRVU    float64
	PENonFacRVU float64
	PEFacRVU   float64
	MalpRVU    float64
	StatusCode string
	GlobalDays string
}

// GPCIRow is the geographic practice cost index for a locality/year.
type GPCIRow struct {
	Year       int
	LocalityID string
	GPCIWork   float64
	GPCIPE     float64
	GPCIMalp   float64
}

// ConversionFactorKind distinguishes the physician CF from the
// anesthesia CF.
type ConversionFactorKind string

const (
	ConversionFactorPhysician  ConversionFactorKind = "physician"
	ConversionFactorAnesthesia ConversionFactorKind = "anesthesia"
)

// ConversionFactorRow is the national dollar multiplier for a year/kind.
type ConversionFactorRow struct {
	Year  int
	Kind  ConversionFactorKind
	Value float64
}

// OutpatientRow is an OPPS status/rate row for a HCPCS/year/quarter.
type OutpatientRow struct {
	Year                   int
	Quarter                int
	HCPCS                  string
	StatusIndicator        string
	APCCode                string
	NationalUnadjRateCents money.Cents
	PackagingFlag          bool
}

// InpatientDRGRow is the IPPS relative weight for a DRG/fiscal year.
type InpatientDRGRow struct {
	FiscalYear     int
	DRGCode        string
	RelativeWeight float64
}

// InpatientBaseRatesRow is the IPPS national base rates for a fiscal year.
type InpatientBaseRatesRow struct {
	FiscalYear        int
	OperatingBaseCents money.Cents
	CapitalBaseCents   money.Cents
}

// ASCRow is the ambulatory surgical center national rate for a
// HCPCS/year/quarter.
type ASCRow struct {
	Year         int
	Quarter      int
	HCPCS        string
	ASCRateCents money.Cents
}

// CLFSRow is the clinical laboratory fee schedule rate.
type CLFSRow struct {
	Year      int
	Quarter   int
	HCPCS     string
	FeeCents  money.Cents
}

// DMEPOSRow is the durable medical equipment fee, split by rural flag.
type DMEPOSRow struct {
	Year     int
	Quarter  int
	Code     string
	IsRural  bool
	FeeCents money.Cents
}

// DrugASPRow is the Part B average sales price for a HCPCS/year/quarter.
type DrugASPRow struct {
	Year            int
	Quarter         int
	HCPCS           string
	ASPPerUnitCents money.Cents
}

// NADACRow is the national average drug acquisition cost as of a date.
type NADACRow struct {
	AsOf          time.Time
	NDC11         string
	UnitPriceCents money.Cents
	UnitType      string
}

// NDCCrosswalkRow maps an NDC to the HCPCS it bills under.
type NDCCrosswalkRow struct {
	NDC11        string
	HCPCS        string
	UnitsPerHCPCS float64
}

// Setting is the tagged variant dispatching a PlanComponent to its
// pricing engine.
type Setting string

const (
	SettingPhysician Setting = "PHYS"
	SettingOutpatient Setting = "OPPS"
	SettingASC        Setting = "ASC"
	SettingInpatient  Setting = "IPPS"
	SettingCLFS       Setting = "CLFS"
	SettingDMEPOS     Setting = "DMEPOS"
	SettingDrug       Setting = "DRUG"
)

// Plan is a named, ordered sequence of billable components.
type Plan struct {
	ID         string
	Name       string
	Components []PlanComponent
}

// PlanComponent is one billable line within a Plan.
type PlanComponent struct {
	Sequence             int
	Code                 string
	Setting              Setting
	Units                float64
	UtilizationWeight    float64
	ProfessionalComponent bool
	FacilityComponent    bool
	Modifiers            []string
	POS                  string // place-of-service, empty if unset
	NDC11                string // empty if unset
	WastageUnits         float64
}

// BenefitParams holds where the IPPS per-admission deductible (and
// the default coinsurance rate) live: they are data, keyed by
// valuation year, not a hard-coded constant.
type BenefitParams struct {
	ValuationYear        int
	CoinsuranceRate      float64
	PartADeductibleCents money.Cents
	PartBDeductibleCents money.Cents
}

// Snapshot is an effective-dated, digest-identified dataset version.
type Snapshot struct {
	DatasetID     string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	Digest        string
	Manifest      string
}

// RunStatus is the terminal or in-flight status of a priced Run.
type RunStatus string

const (
	RunStatusOK     RunStatus = "ok"
	RunStatusFailed RunStatus = "failed"
	RunStatusPartial RunStatus = "partial"
)

// Run is the top-level audit record for one priced request: the flat relational root of Run -> RunInput ->
// RunOutput -> RunTrace, avoiding any cyclic object graph.
type Run struct {
	RunID        string
	Endpoint     string
	RequestJSON  string // canonical JSON
	ResponseJSON string // canonical JSON
	Status       RunStatus
	StartedAt    time.Time
	DurationMS   int64
}

// RunInput is one top-level request parameter of a Run, stored as a
// flattened key/value so the Run row itself need not carry a variant
// schema per endpoint.
type RunInput struct {
	RunID string
	Key   string
	Value string
}

// RunOutput is one priced line's flattened result.
type RunOutput struct {
	RunID                string
	Sequence             int
	Code                 string
	Setting              Setting
	AllowedCents         money.Cents
	ProgramPaymentCents  money.Cents
	BeneficiaryCostCents money.Cents
	DatasetDigest        string
	FailureCode          string // empty on success
	FailureMessage       string // empty on success
}

// RunTrace is one distinct trace kind emitted during a Run (the
// resolution trace, or a per-engine trace payload).
type RunTrace struct {
	RunID         string
	Kind          string
	PayloadJSON   string
	LineSequence  *int // nil for run-level traces such as run_summary
}
