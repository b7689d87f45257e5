package pg

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// ListSnapshots implements snapshot.Store.
func (s *Store) ListSnapshots(ctx context.Context, datasetID string) ([]domain.Snapshot, error) {
	const q = `
		SELECT dataset_id, effective_from, effective_to, digest, manifest
		FROM snapshots WHERE dataset_id = $1`
	rows, err := s.pool.Query(ctx, q, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var sn domain.Snapshot
		if err := rows.Scan(&sn.DatasetID, &sn.EffectiveFrom, &sn.EffectiveTo, &sn.Digest, &sn.Manifest); err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

// RowTuplesForDigest implements snapshot.Store: the canonical row
// tuples recorded for a dataset at ingest time for the given digest.
func (s *Store) RowTuplesForDigest(ctx context.Context, datasetID, digest string) ([]string, error) {
	const q = `SELECT row_tuple FROM dataset_row_tuples WHERE dataset_id = $1 AND digest = $2`
	rows, err := s.pool.Query(ctx, q, datasetID, digest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tuple string
		if err := rows.Scan(&tuple); err != nil {
			return nil, err
		}
		out = append(out, tuple)
	}
	return out, rows.Err()
}

// SavePin implements snapshot.Store.
func (s *Store) SavePin(ctx context.Context, pinName, digest string) error {
	const q = `
		INSERT INTO snapshot_pins (pin_name, digest) VALUES ($1,$2)
		ON CONFLICT (pin_name) DO UPDATE SET digest = EXCLUDED.digest`
	_, err := s.pool.Exec(ctx, q, pinName, digest)
	return err
}

// LoadPin implements snapshot.Store.
func (s *Store) LoadPin(ctx context.Context, pinName string) (string, bool, error) {
	const q = `SELECT digest FROM snapshot_pins WHERE pin_name = $1`
	var digest string
	err := s.pool.QueryRow(ctx, q, pinName).Scan(&digest)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return digest, true, nil
}
