package pg

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// SaveRun implements trace.Store: it writes the Run row and its
// RunInput/RunOutput/RunTrace children inside a single transaction, so
// a crash mid-write never leaves a Run without its trace.
func (s *Store) SaveRun(ctx context.Context, run domain.Run, inputs []domain.RunInput, outputs []domain.RunOutput, traces []domain.RunTrace) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertRun = `
		INSERT INTO runs (run_id, endpoint, request_json, response_json, status, started_at, duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.Exec(ctx, insertRun, run.RunID, run.Endpoint, run.RequestJSON, run.ResponseJSON,
		string(run.Status), run.StartedAt, run.DurationMS); err != nil {
		return err
	}

	const insertInput = `INSERT INTO run_inputs (run_id, key, value) VALUES ($1,$2,$3)`
	for _, in := range inputs {
		if _, err := tx.Exec(ctx, insertInput, run.RunID, in.Key, in.Value); err != nil {
			return err
		}
	}

	const insertOutput = `
		INSERT INTO run_outputs
			(run_id, sequence, code, setting, allowed_cents, program_payment_cents,
			 beneficiary_cost_cents, dataset_digest, failure_code, failure_message)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	for _, o := range outputs {
		if _, err := tx.Exec(ctx, insertOutput, run.RunID, o.Sequence, o.Code, string(o.Setting),
			o.AllowedCents, o.ProgramPaymentCents, o.BeneficiaryCostCents, o.DatasetDigest,
			o.FailureCode, o.FailureMessage); err != nil {
			return err
		}
	}

	const insertTrace = `INSERT INTO run_traces (run_id, kind, payload_json, line_sequence) VALUES ($1,$2,$3,$4)`
	for _, tr := range traces {
		if _, err := tx.Exec(ctx, insertTrace, run.RunID, tr.Kind, tr.PayloadJSON, tr.LineSequence); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetRun implements trace.Store.
func (s *Store) GetRun(ctx context.Context, runID string) (domain.Run, error) {
	const q = `SELECT run_id, endpoint, request_json, response_json, status, started_at, duration_ms
		FROM runs WHERE run_id = $1`
	var run domain.Run
	var status string
	err := s.pool.QueryRow(ctx, q, runID).Scan(&run.RunID, &run.Endpoint, &run.RequestJSON,
		&run.ResponseJSON, &status, &run.StartedAt, &run.DurationMS)
	if err != nil {
		return domain.Run{}, err
	}
	run.Status = domain.RunStatus(status)
	return run, nil
}

// ListInputs implements trace.Store.
func (s *Store) ListInputs(ctx context.Context, runID string) ([]domain.RunInput, error) {
	const q = `SELECT run_id, key, value FROM run_inputs WHERE run_id = $1 ORDER BY key`
	rows, err := s.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunInput
	for rows.Next() {
		var in domain.RunInput
		if err := rows.Scan(&in.RunID, &in.Key, &in.Value); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ListOutputs implements trace.Store.
func (s *Store) ListOutputs(ctx context.Context, runID string) ([]domain.RunOutput, error) {
	const q = `
		SELECT run_id, sequence, code, setting, allowed_cents, program_payment_cents,
		       beneficiary_cost_cents, dataset_digest, failure_code, failure_message
		FROM run_outputs WHERE run_id = $1 ORDER BY sequence`
	rows, err := s.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunOutput
	for rows.Next() {
		var o domain.RunOutput
		var setting string
		if err := rows.Scan(&o.RunID, &o.Sequence, &o.Code, &setting, &o.AllowedCents,
			&o.ProgramPaymentCents, &o.BeneficiaryCostCents, &o.DatasetDigest,
			&o.FailureCode, &o.FailureMessage); err != nil {
			return nil, err
		}
		o.Setting = domain.Setting(setting)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListTraces implements trace.Store.
func (s *Store) ListTraces(ctx context.Context, runID string) ([]domain.RunTrace, error) {
	const q = `SELECT run_id, kind, payload_json, line_sequence FROM run_traces WHERE run_id = $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunTrace
	for rows.Next() {
		var t domain.RunTrace
		if err := rows.Scan(&t.RunID, &t.Kind, &t.PayloadJSON, &t.LineSequence); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
