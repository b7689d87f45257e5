package engine

import "github.com/gyeh/cms-pricing/internal/money"

// defaultCoinsuranceRate is used when a Context carries no explicit
// coinsurance rate.
const defaultCoinsuranceRate = 0.20

// CostSharingResult is the deductible/coinsurance split for one line,
// plus the running deductible the Orchestrator threads to the next.
type CostSharingResult struct {
	DeductibleAppliedCents money.Cents
	CoinsuranceCents       money.Cents
	BeneficiaryTotalCents  money.Cents
	ProgramPaymentCents    money.Cents
	DeductibleRemaining    money.Cents
}

// ApplyCostSharing is the common cost-sharing subroutine shared by
// every engine: deductible_applied = min(remaining, allowed); coinsurance
// on what's left after the deductible; beneficiary_total is their sum;
// program_payment is the remainder.
func ApplyCostSharing(allowed, deductibleRemaining money.Cents, coinsuranceRate float64) CostSharingResult {
	if coinsuranceRate == 0 {
		coinsuranceRate = defaultCoinsuranceRate
	}

	deductibleApplied := money.Min(deductibleRemaining, allowed)
	afterDeductible := allowed.Sub(deductibleApplied)
	coinsurance := afterDeductible.MulFloat(coinsuranceRate)
	beneficiaryTotal := deductibleApplied.Add(coinsurance)
	programPayment := allowed.Sub(beneficiaryTotal)

	return CostSharingResult{
		DeductibleAppliedCents: deductibleApplied,
		CoinsuranceCents:       coinsurance,
		BeneficiaryTotalCents:  beneficiaryTotal,
		ProgramPaymentCents:    programPayment,
		DeductibleRemaining:    deductibleRemaining.Sub(deductibleApplied),
	}
}

// ApplyFullDeductible implements the IPPS per-admission variant: the
// entire allowed amount is treated as deductible, up to what remains,
// with no coinsurance layered on top.
func ApplyFullDeductible(allowed, deductibleRemaining money.Cents) CostSharingResult {
	deductibleApplied := money.Min(deductibleRemaining, allowed)
	programPayment := allowed.Sub(deductibleApplied)

	return CostSharingResult{
		DeductibleAppliedCents: deductibleApplied,
		CoinsuranceCents:       0,
		BeneficiaryTotalCents:  deductibleApplied,
		ProgramPaymentCents:    programPayment,
		DeductibleRemaining:    deductibleRemaining.Sub(deductibleApplied),
	}
}

func (r CostSharingResult) apply(res *Result) {
	res.BeneficiaryDeductibleCents = r.DeductibleAppliedCents
	res.BeneficiaryCoinsuranceCents = r.CoinsuranceCents
	res.BeneficiaryTotalCents = r.BeneficiaryTotalCents
	res.ProgramPaymentCents = r.ProgramPaymentCents
	res.DeductibleRemainingCents = r.DeductibleRemaining
}
