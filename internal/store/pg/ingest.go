package pg

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// UpsertMPFSRow writes a single Medicare Physician Fee Schedule row,
// replacing any existing row for the same (year, locality, HCPCS).
func (s *Store) UpsertMPFSRow(ctx context.Context, row domain.MPFSRow) error {
	const q = `
		INSERT INTO mpfs_rows (year, locality_id, hcpcs, work_rvu, pe_nonfac_rvu, pe_fac_rvu, malp_rvu, status_code, global_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (year, locality_id, hcpcs) DO UPDATE SET
			work_rvu = EXCLUDED.work_rvu,
			pe_nonfac_rvu = EXCLUDED.pe_nonfac_rvu,
			pe_fac_rvu = EXCLUDED.pe_fac_rvu,
			malp_rvu = EXCLUDED.malp_rvu,
			status_code = EXCLUDED.status_code,
			global_days = EXCLUDED.global_days
	`
	_, err := s.pool.Exec(ctx, q,
		row.Year, row.LocalityID, row.HCPCS, row.WorkRVU, row.PENonFacRVU, row.PEFacRVU, row.MalpRVU, row.StatusCode, row.GlobalDays,
	)
	return err
}
