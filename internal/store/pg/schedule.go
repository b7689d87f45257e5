package pg

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// MPFSRow implements engine.MPFSStore.
func (s *Store) MPFSRow(ctx context.Context, year int, localityID, hcpcs string) (*domain.MPFSRow, error) {
	const q = `
		SELECT year, locality_id, hcpcs, work_rvu, pe_nonfac_rvu, pe_fac_rvu, malp_rvu, status_code, global_days
		FROM mpfs_rows WHERE year = $1 AND locality_id = $2 AND hcpcs = $3`
	var r domain.MPFSRow
	err := s.pool.QueryRow(ctx, q, year, localityID, hcpcs).Scan(&r.Year, &r.LocalityID, &r.HCPCS,
		&r.WorkRVU, &r.PENonFacRVU, &r.PEFacRVU, &r.MalpRVU, &r.StatusCode, &r.GlobalDays)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GPCIRow implements engine.MPFSStore.
func (s *Store) GPCIRow(ctx context.Context, year int, localityID string) (*domain.GPCIRow, error) {
	const q = `SELECT year, locality_id, gpci_work, gpci_pe, gpci_malp FROM gpci_rows WHERE year = $1 AND locality_id = $2`
	var r domain.GPCIRow
	err := s.pool.QueryRow(ctx, q, year, localityID).Scan(&r.Year, &r.LocalityID, &r.GPCIWork, &r.GPCIPE, &r.GPCIMalp)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ConversionFactor implements engine.MPFSStore.
func (s *Store) ConversionFactor(ctx context.Context, year int, kind domain.ConversionFactorKind) (*domain.ConversionFactorRow, error) {
	const q = `SELECT year, kind, value FROM conversion_factors WHERE year = $1 AND kind = $2`
	var r domain.ConversionFactorRow
	var kindStr string
	err := s.pool.QueryRow(ctx, q, year, string(kind)).Scan(&r.Year, &kindStr, &r.Value)
	if err != nil {
		return nil, err
	}
	r.Kind = domain.ConversionFactorKind(kindStr)
	return &r, nil
}

// OutpatientRow implements engine.OPPSStore.
func (s *Store) OutpatientRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.OutpatientRow, error) {
	const q = `
		SELECT year, quarter, hcpcs, status_indicator, apc_code, national_unadj_rate_cents, packaging_flag
		FROM outpatient_rows WHERE year = $1 AND quarter = $2 AND hcpcs = $3`
	var r domain.OutpatientRow
	err := s.pool.QueryRow(ctx, q, year, quarter, hcpcs).Scan(&r.Year, &r.Quarter, &r.HCPCS,
		&r.StatusIndicator, &r.APCCode, &r.NationalUnadjRateCents, &r.PackagingFlag)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// WageIndex implements engine.OPPSStore and engine.IPPSStore's quarterly
// series. quarter is nil for the annual IPPS series.
func (s *Store) WageIndex(ctx context.Context, year int, quarter *int, cbsaCode string) (*domain.WageIndexRow, error) {
	const q = `
		SELECT year, quarter, cbsa_code, wage_index FROM wage_index
		WHERE year = $1 AND cbsa_code = $2 AND quarter IS NOT DISTINCT FROM $3`
	var r domain.WageIndexRow
	err := s.pool.QueryRow(ctx, q, year, cbsaCode, quarter).Scan(&r.Year, &r.Quarter, &r.CBSACode, &r.WageIndex)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AnnualWageIndex implements engine.IPPSStore: the annual (quarter-less)
// wage index series used by inpatient pricing.
func (s *Store) AnnualWageIndex(ctx context.Context, fiscalYear int, cbsaCode string) (*domain.WageIndexRow, error) {
	return s.WageIndex(ctx, fiscalYear, nil, cbsaCode)
}

// InpatientDRGRow implements engine.IPPSStore.
func (s *Store) InpatientDRGRow(ctx context.Context, fiscalYear int, drgCode string) (*domain.InpatientDRGRow, error) {
	const q = `SELECT fiscal_year, drg_code, relative_weight FROM inpatient_drg_rows WHERE fiscal_year = $1 AND drg_code = $2`
	var r domain.InpatientDRGRow
	err := s.pool.QueryRow(ctx, q, fiscalYear, drgCode).Scan(&r.FiscalYear, &r.DRGCode, &r.RelativeWeight)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InpatientBaseRates implements engine.IPPSStore.
func (s *Store) InpatientBaseRates(ctx context.Context, fiscalYear int) (*domain.InpatientBaseRatesRow, error) {
	const q = `SELECT fiscal_year, operating_base_cents, capital_base_cents FROM inpatient_base_rates WHERE fiscal_year = $1`
	var r domain.InpatientBaseRatesRow
	err := s.pool.QueryRow(ctx, q, fiscalYear).Scan(&r.FiscalYear, &r.OperatingBaseCents, &r.CapitalBaseCents)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ASCRow implements engine.ASCStore.
func (s *Store) ASCRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.ASCRow, error) {
	const q = `SELECT year, quarter, hcpcs, asc_rate_cents FROM asc_rows WHERE year = $1 AND quarter = $2 AND hcpcs = $3`
	var r domain.ASCRow
	err := s.pool.QueryRow(ctx, q, year, quarter, hcpcs).Scan(&r.Year, &r.Quarter, &r.HCPCS, &r.ASCRateCents)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CLFSRow implements engine.CLFSStore.
func (s *Store) CLFSRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.CLFSRow, error) {
	const q = `SELECT year, quarter, hcpcs, fee_cents FROM clfs_rows WHERE year = $1 AND quarter = $2 AND hcpcs = $3`
	var r domain.CLFSRow
	err := s.pool.QueryRow(ctx, q, year, quarter, hcpcs).Scan(&r.Year, &r.Quarter, &r.HCPCS, &r.FeeCents)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DMEPOSRow implements engine.DMEPOSStore.
func (s *Store) DMEPOSRow(ctx context.Context, year, quarter int, code string, isRural bool) (*domain.DMEPOSRow, error) {
	const q = `
		SELECT year, quarter, code, is_rural, fee_cents FROM dmepos_rows
		WHERE year = $1 AND quarter = $2 AND code = $3 AND is_rural = $4`
	var r domain.DMEPOSRow
	err := s.pool.QueryRow(ctx, q, year, quarter, code, isRural).Scan(&r.Year, &r.Quarter, &r.Code, &r.IsRural, &r.FeeCents)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DrugASPRow implements engine.DrugStore.
func (s *Store) DrugASPRow(ctx context.Context, year, quarter int, hcpcs string) (*domain.DrugASPRow, error) {
	const q = `SELECT year, quarter, hcpcs, asp_per_unit_cents FROM drug_asp_rows WHERE year = $1 AND quarter = $2 AND hcpcs = $3`
	var r domain.DrugASPRow
	err := s.pool.QueryRow(ctx, q, year, quarter, hcpcs).Scan(&r.Year, &r.Quarter, &r.HCPCS, &r.ASPPerUnitCents)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// LatestNADAC implements engine.DrugStore: the most recently published
// NADAC unit price for an NDC.
func (s *Store) LatestNADAC(ctx context.Context, ndc11 string) (*domain.NADACRow, error) {
	const q = `
		SELECT as_of, ndc11, unit_price_cents, unit_type FROM nadac_rows
		WHERE ndc11 = $1 ORDER BY as_of DESC LIMIT 1`
	var r domain.NADACRow
	err := s.pool.QueryRow(ctx, q, ndc11).Scan(&r.AsOf, &r.NDC11, &r.UnitPriceCents, &r.UnitType)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// NDCCrosswalk implements engine.DrugStore.
func (s *Store) NDCCrosswalk(ctx context.Context, ndc11, hcpcs string) (*domain.NDCCrosswalkRow, error) {
	const q = `SELECT ndc11, hcpcs, units_per_hcpcs FROM ndc_crosswalk WHERE ndc11 = $1 AND hcpcs = $2`
	var r domain.NDCCrosswalkRow
	err := s.pool.QueryRow(ctx, q, ndc11, hcpcs).Scan(&r.NDC11, &r.HCPCS, &r.UnitsPerHCPCS)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
