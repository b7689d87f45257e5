package pg

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// PlanByID implements orchestrator.PlanStore.
func (s *Store) PlanByID(ctx context.Context, planID string) (*domain.Plan, error) {
	const planQ = `SELECT id, name FROM plans WHERE id = $1`
	var plan domain.Plan
	if err := s.pool.QueryRow(ctx, planQ, planID).Scan(&plan.ID, &plan.Name); err != nil {
		return nil, err
	}

	const compQ = `
		SELECT sequence, code, setting, units, utilization_weight, professional_component,
		       facility_component, modifiers, pos, ndc11, wastage_units
		FROM plan_components WHERE plan_id = $1 ORDER BY sequence`
	rows, err := s.pool.Query(ctx, compQ, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.PlanComponent
		var setting string
		var pos, ndc11 *string
		if err := rows.Scan(&c.Sequence, &c.Code, &setting, &c.Units, &c.UtilizationWeight,
			&c.ProfessionalComponent, &c.FacilityComponent, &c.Modifiers, &pos, &ndc11, &c.WastageUnits); err != nil {
			return nil, err
		}
		c.Setting = domain.Setting(setting)
		if pos != nil {
			c.POS = *pos
		}
		if ndc11 != nil {
			c.NDC11 = *ndc11
		}
		plan.Components = append(plan.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// BenefitParamsForYear implements orchestrator.BenefitStore.
func (s *Store) BenefitParamsForYear(ctx context.Context, year int) (*domain.BenefitParams, error) {
	const q = `
		SELECT valuation_year, coinsurance_rate, part_a_deductible_cents, part_b_deductible_cents
		FROM benefit_params WHERE valuation_year = $1`
	var b domain.BenefitParams
	err := s.pool.QueryRow(ctx, q, year).Scan(&b.ValuationYear, &b.CoinsuranceRate,
		&b.PartADeductibleCents, &b.PartBDeductibleCents)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
