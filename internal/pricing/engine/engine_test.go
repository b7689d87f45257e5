package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/money"
)

type fakeScheduleStore struct {
	mpfs       *domain.MPFSRow
	gpci       *domain.GPCIRow
	cf         *domain.ConversionFactorRow
	outpatient *domain.OutpatientRow
	wage       *domain.WageIndexRow
	drg        *domain.InpatientDRGRow
	baseRates  *domain.InpatientBaseRatesRow
	annualWage *domain.WageIndexRow
	asc        *domain.ASCRow
	clfs       *domain.CLFSRow
	dmepos     *domain.DMEPOSRow
	asp        *domain.DrugASPRow
	nadac      *domain.NADACRow
	crosswalk  *domain.NDCCrosswalkRow
}

func (s *fakeScheduleStore) MPFSRow(context.Context, int, string, string) (*domain.MPFSRow, error) {
	if s.mpfs == nil {
		return nil, errors.New("not found")
	}
	return s.mpfs, nil
}
func (s *fakeScheduleStore) GPCIRow(context.Context, int, string) (*domain.GPCIRow, error) {
	if s.gpci == nil {
		return nil, errors.New("not found")
	}
	return s.gpci, nil
}
func (s *fakeScheduleStore) ConversionFactor(context.Context, int, domain.ConversionFactorKind) (*domain.ConversionFactorRow, error) {
	if s.cf == nil {
		return nil, errors.New("not found")
	}
	return s.cf, nil
}
func (s *fakeScheduleStore) OutpatientRow(context.Context, int, int, string) (*domain.OutpatientRow, error) {
	if s.outpatient == nil {
		return nil, errors.New("not found")
	}
	return s.outpatient, nil
}
func (s *fakeScheduleStore) WageIndex(context.Context, int, *int, string) (*domain.WageIndexRow, error) {
	if s.wage == nil {
		return nil, errors.New("not found")
	}
	return s.wage, nil
}
func (s *fakeScheduleStore) InpatientDRGRow(context.Context, int, string) (*domain.InpatientDRGRow, error) {
	if s.drg == nil {
		return nil, errors.New("not found")
	}
	return s.drg, nil
}
func (s *fakeScheduleStore) InpatientBaseRates(context.Context, int) (*domain.InpatientBaseRatesRow, error) {
	if s.baseRates == nil {
		return nil, errors.New("not found")
	}
	return s.baseRates, nil
}
func (s *fakeScheduleStore) AnnualWageIndex(context.Context, int, string) (*domain.WageIndexRow, error) {
	if s.annualWage == nil {
		return nil, errors.New("not found")
	}
	return s.annualWage, nil
}
func (s *fakeScheduleStore) ASCRow(context.Context, int, int, string) (*domain.ASCRow, error) {
	if s.asc == nil {
		return nil, errors.New("not found")
	}
	return s.asc, nil
}
func (s *fakeScheduleStore) CLFSRow(context.Context, int, int, string) (*domain.CLFSRow, error) {
	if s.clfs == nil {
		return nil, errors.New("not found")
	}
	return s.clfs, nil
}
func (s *fakeScheduleStore) DMEPOSRow(context.Context, int, int, string, bool) (*domain.DMEPOSRow, error) {
	if s.dmepos == nil {
		return nil, errors.New("not found")
	}
	return s.dmepos, nil
}
func (s *fakeScheduleStore) DrugASPRow(context.Context, int, int, string) (*domain.DrugASPRow, error) {
	if s.asp == nil {
		return nil, errors.New("not found")
	}
	return s.asp, nil
}
func (s *fakeScheduleStore) LatestNADAC(context.Context, string) (*domain.NADACRow, error) {
	if s.nadac == nil {
		return nil, errors.New("not found")
	}
	return s.nadac, nil
}
func (s *fakeScheduleStore) NDCCrosswalk(context.Context, string, string) (*domain.NDCCrosswalkRow, error) {
	if s.crosswalk == nil {
		return nil, errors.New("not found")
	}
	return s.crosswalk, nil
}

// TestMPFSEngine_SpecExample reproduces worked example 4.
func TestMPFSEngine_SpecExample(t *testing.T) {
	store := &fakeScheduleStore{
		mpfs: &domain.MPFSRow{Year: 2025, LocalityID: "5", HCPCS: "99213", WorkRVU: 1.30, PENonFacRVU: 1.17, PEFacRVU: 1.00, MalpRVU: 0.09},
		gpci: &domain.GPCIRow{Year: 2025, LocalityID: "5", GPCIWork: 1, GPCIPE: 1, GPCIMalp: 1},
		cf:   &domain.ConversionFactorRow{Year: 2025, Kind: domain.ConversionFactorPhysician, Value: 34.6062},
	}
	e := NewMPFSEngine(store)

	res, err := e.Price(context.Background(), Context{
		Code: "99213", Year: 2025, LocalityID: "5", POS: "11",
		Units: 1, UtilizationWeight: 1,
		ProfessionalComponent:    true,
		DeductibleRemainingCents: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AllowedCents != 8859 {
		t.Errorf("allowed_cents = %d, want 8859", res.AllowedCents)
	}
	if res.BeneficiaryCoinsuranceCents != 1772 {
		t.Errorf("coinsurance_cents = %d, want 1772", res.BeneficiaryCoinsuranceCents)
	}
	if res.ProgramPaymentCents != 7087 {
		t.Errorf("program_payment_cents = %d, want 7087", res.ProgramPaymentCents)
	}
	if res.BeneficiaryTotalCents != 1772 {
		t.Errorf("beneficiary_total_cents = %d, want 1772", res.BeneficiaryTotalCents)
	}
	if res.ProfessionalAllowedCents != 8859 {
		t.Errorf("professional_allowed_cents = %d, want 8859", res.ProfessionalAllowedCents)
	}
}

// TestOPPSEngine_Packaged reproduces worked example 5.
func TestOPPSEngine_Packaged(t *testing.T) {
	store := &fakeScheduleStore{
		outpatient: &domain.OutpatientRow{Year: 2025, Quarter: 1, HCPCS: "80053", StatusIndicator: "N", NationalUnadjRateCents: 5000},
	}
	e := NewOPPSEngine(store)
	q := 1

	res, err := e.Price(context.Background(), Context{Code: "80053", Year: 2025, Quarter: &q, Units: 1, UtilizationWeight: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Packaged {
		t.Error("expected packaged=true")
	}
	if res.AllowedCents != 0 {
		t.Errorf("allowed_cents = %d, want 0", res.AllowedCents)
	}
	if res.BeneficiaryTotalCents != 0 || res.ProgramPaymentCents != 0 || res.BeneficiaryCoinsuranceCents != 0 {
		t.Error("expected all cost-sharing fields to be zero for a packaged line")
	}
}

func TestOPPSEngine_WageAdjusted(t *testing.T) {
	store := &fakeScheduleStore{
		outpatient: &domain.OutpatientRow{Year: 2025, Quarter: 1, HCPCS: "99999", StatusIndicator: "S", NationalUnadjRateCents: 10000},
		wage:       &domain.WageIndexRow{Year: 2025, CBSACode: "41860", WageIndex: 1.1},
	}
	e := NewOPPSEngine(store)
	q := 1

	res, err := e.Price(context.Background(), Context{
		Code: "99999", Year: 2025, Quarter: &q, CBSACode: "41860",
		Units: 1, UtilizationWeight: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AllowedCents != 11000 {
		t.Errorf("allowed_cents = %d, want 11000", res.AllowedCents)
	}
}

func TestModifiers_BilateralAndMultipleProcedure(t *testing.T) {
	got, unknown := ApplyModifiers(money.Cents(10000), []string{"-50"})
	if got != 15000 {
		t.Errorf("-50 adjustment = %d, want 15000", got)
	}
	if len(unknown) != 0 {
		t.Errorf("expected no unknown modifiers, got %v", unknown)
	}

	got, _ = ApplyModifiers(money.Cents(10000), []string{"-51"})
	if got != 5000 {
		t.Errorf("-51 adjustment = %d, want 5000", got)
	}

	_, unknown = ApplyModifiers(money.Cents(10000), []string{"-22"})
	if len(unknown) != 1 || unknown[0] != "-22" {
		t.Errorf("expected -22 to pass through as unknown, got %v", unknown)
	}
}

func TestApplyCostSharing_DeductibleExhaustsBeforeAllowed(t *testing.T) {
	res := ApplyCostSharing(money.Cents(10000), money.Cents(3000), 0.20)
	if res.DeductibleAppliedCents != 3000 {
		t.Errorf("deductible applied = %d, want 3000", res.DeductibleAppliedCents)
	}
	// coinsurance on the remaining 7000 at 20% = 1400
	if res.CoinsuranceCents != 1400 {
		t.Errorf("coinsurance = %d, want 1400", res.CoinsuranceCents)
	}
	if res.BeneficiaryTotalCents != 4400 {
		t.Errorf("beneficiary total = %d, want 4400", res.BeneficiaryTotalCents)
	}
	if res.ProgramPaymentCents != 5600 {
		t.Errorf("program payment = %d, want 5600", res.ProgramPaymentCents)
	}
	if res.DeductibleRemaining != 0 {
		t.Errorf("deductible remaining = %d, want 0", res.DeductibleRemaining)
	}
}

func TestDrugEngine_NDCMissDoesNotFailLine(t *testing.T) {
	store := &fakeScheduleStore{
		asp: &domain.DrugASPRow{Year: 2025, Quarter: 1, HCPCS: "J1234", ASPPerUnitCents: 1000},
	}
	e := NewDrugEngine(store)
	q := 1

	res, err := e.Price(context.Background(), Context{
		Code: "J1234", Year: 2025, Quarter: &q, NDC11: "00000-0000-00",
		Units: 1, UtilizationWeight: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ReferencePriceCents != nil {
		t.Error("expected no reference price on NADAC miss")
	}
	if res.AllowedCents == 0 {
		t.Error("expected primary allowed amount to still be computed")
	}
	foundTrace := false
	for _, tr := range res.TraceRefs {
		if tr.Kind == "nadac_miss" {
			foundTrace = true
		}
	}
	if !foundTrace {
		t.Error("expected a nadac_miss trace note")
	}
}

func TestTable_DispatchesBySetting(t *testing.T) {
	store := &fakeScheduleStore{
		mpfs: &domain.MPFSRow{Year: 2025, LocalityID: "5", HCPCS: "99213", WorkRVU: 1, PENonFacRVU: 1, PEFacRVU: 1, MalpRVU: 1},
		gpci: &domain.GPCIRow{Year: 2025, LocalityID: "5", GPCIWork: 1, GPCIPE: 1, GPCIMalp: 1},
		cf:   &domain.ConversionFactorRow{Year: 2025, Kind: domain.ConversionFactorPhysician, Value: 1},
	}
	table := NewTable(store)
	e, ok := table[domain.SettingPhysician]
	if !ok {
		t.Fatal("expected PHYS setting to be registered")
	}
	if _, err := e.Price(context.Background(), Context{Code: "99213", Year: 2025, LocalityID: "5", Units: 1, UtilizationWeight: 1}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
