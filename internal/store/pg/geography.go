package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// GeographyByZipPlus4 implements geo.Store.
func (s *Store) GeographyByZipPlus4(ctx context.Context, zip5, plus4 string, at time.Time) (*domain.GeographyRow, error) {
	const q = `
		SELECT zip5, plus4, has_plus4, state, locality_id, carrier_id, rural_flag, cbsa_code,
		       effective_from, effective_to, dataset_digest
		FROM geography_rows
		WHERE zip5 = $1 AND has_plus4 AND plus4 = $2
		  AND effective_from <= $3 AND (effective_to IS NULL OR effective_to > $3)
		ORDER BY effective_from DESC
		LIMIT 1`
	return scanGeographyRow(s.pool.QueryRow(ctx, q, zip5, plus4, at))
}

// GeographyByZip5 implements geo.Store.
func (s *Store) GeographyByZip5(ctx context.Context, zip5 string, at time.Time) (*domain.GeographyRow, error) {
	const q = `
		SELECT zip5, plus4, has_plus4, state, locality_id, carrier_id, rural_flag, cbsa_code,
		       effective_from, effective_to, dataset_digest
		FROM geography_rows
		WHERE zip5 = $1 AND NOT has_plus4
		  AND effective_from <= $2 AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY effective_from DESC
		LIMIT 1`
	return scanGeographyRow(s.pool.QueryRow(ctx, q, zip5, at))
}

// GeographyByZipState implements geo.Store: used by the nearest-ZIP
// fallback once a candidate ZIP5 within the same state is chosen.
func (s *Store) GeographyByZipState(ctx context.Context, zip5, state string, at time.Time) (*domain.GeographyRow, error) {
	const q = `
		SELECT zip5, plus4, has_plus4, state, locality_id, carrier_id, rural_flag, cbsa_code,
		       effective_from, effective_to, dataset_digest
		FROM geography_rows
		WHERE zip5 = $1 AND state = $2 AND NOT has_plus4
		  AND effective_from <= $3 AND (effective_to IS NULL OR effective_to > $3)
		ORDER BY effective_from DESC
		LIMIT 1`
	return scanGeographyRow(s.pool.QueryRow(ctx, q, zip5, state, at))
}

func scanGeographyRow(row pgx.Row) (*domain.GeographyRow, error) {
	var g domain.GeographyRow
	var effFrom time.Time
	var effTo *time.Time
	var plus4, carrierID, cbsaCode *string // nullable columns
	err := row.Scan(&g.Zip5, &plus4, &g.HasPlus4, &g.State, &g.LocalityID, &carrierID,
		&g.RuralFlag, &cbsaCode, &effFrom, &effTo, &g.DatasetDigest)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if plus4 != nil {
		g.Plus4 = *plus4
	}
	if carrierID != nil {
		g.CarrierID = *carrierID
	}
	if cbsaCode != nil {
		g.CBSACode = *cbsaCode
	}
	g.Window = domain.Window{EffectiveFrom: effFrom, EffectiveTo: effTo}
	return &g, nil
}

// ZipGeometry implements geo.Store.
func (s *Store) ZipGeometry(ctx context.Context, zip5 string, at time.Time) (*domain.ZipGeometryRow, error) {
	const q = `
		SELECT zip5, lat, lon, state, is_pobox, effective_from, effective_to
		FROM zip_geometry
		WHERE zip5 = $1
		  AND effective_from <= $2 AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY effective_from DESC
		LIMIT 1`
	var g domain.ZipGeometryRow
	var effFrom time.Time
	var effTo *time.Time
	err := s.pool.QueryRow(ctx, q, zip5, at).Scan(&g.Zip5, &g.Lat, &g.Lon, &g.State, &g.IsPOBox, &effFrom, &effTo)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.Window = domain.Window{EffectiveFrom: effFrom, EffectiveTo: effTo}
	return &g, nil
}

// ZipGeometriesInState implements geo.Store: every geometry row in
// state other than excludeZip5, used as the candidate pool for the
// nearest-neighbor fallback.
func (s *Store) ZipGeometriesInState(ctx context.Context, state, excludeZip5 string, at time.Time) ([]domain.ZipGeometryRow, error) {
	const q = `
		SELECT zip5, lat, lon, state, is_pobox, effective_from, effective_to
		FROM zip_geometry
		WHERE state = $1 AND zip5 <> $2
		  AND effective_from <= $3 AND (effective_to IS NULL OR effective_to > $3)`
	rows, err := s.pool.Query(ctx, q, state, excludeZip5, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ZipGeometryRow
	for rows.Next() {
		var g domain.ZipGeometryRow
		var effFrom time.Time
		var effTo *time.Time
		if err := rows.Scan(&g.Zip5, &g.Lat, &g.Lon, &g.State, &g.IsPOBox, &effFrom, &effTo); err != nil {
			return nil, err
		}
		g.Window = domain.Window{EffectiveFrom: effFrom, EffectiveTo: effTo}
		out = append(out, g)
	}
	return out, rows.Err()
}
