package trace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gyeh/cms-pricing/internal/domain"
)

type fakeStore struct {
	runs    map[string]domain.Run
	inputs  map[string][]domain.RunInput
	outputs map[string][]domain.RunOutput
	traces  map[string][]domain.RunTrace
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:    make(map[string]domain.Run),
		inputs:  make(map[string][]domain.RunInput),
		outputs: make(map[string][]domain.RunOutput),
		traces:  make(map[string][]domain.RunTrace),
	}
}

func (f *fakeStore) SaveRun(_ context.Context, run domain.Run, inputs []domain.RunInput, outputs []domain.RunOutput, traces []domain.RunTrace) error {
	f.runs[run.RunID] = run
	f.inputs[run.RunID] = inputs
	f.outputs[run.RunID] = outputs
	f.traces[run.RunID] = traces
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (domain.Run, error) {
	run, ok := f.runs[runID]
	if !ok {
		return domain.Run{}, errors.New("run not found")
	}
	return run, nil
}

func (f *fakeStore) ListInputs(_ context.Context, runID string) ([]domain.RunInput, error) {
	return f.inputs[runID], nil
}

func (f *fakeStore) ListOutputs(_ context.Context, runID string) ([]domain.RunOutput, error) {
	return f.outputs[runID], nil
}

func (f *fakeStore) ListTraces(_ context.Context, runID string) ([]domain.RunTrace, error) {
	return f.traces[runID], nil
}

func TestRecorder_Finish_PersistsAtomically(t *testing.T) {
	store := newFakeStore()
	rec := NewRecorder("run-1", "POST /pricing/price", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec.RecordInput("zip", "94110")
	rec.RecordOutput(domain.RunOutput{Sequence: 1, Code: "99213", AllowedCents: 9241, DatasetDigest: "d1"})
	seq := 1
	rec.RecordTrace("resolution", `{"match_level":"zip5"}`, &seq)

	err := rec.Finish(context.Background(), store, `{"zip":"94110"}`, `{"run_id":"run-1"}`, domain.RunStatusOK, time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	full, err := Lookup(context.Background(), store, "run-1")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if full.Run.Status != domain.RunStatusOK {
		t.Errorf("status = %v, want ok", full.Run.Status)
	}
	if full.Run.DurationMS != 1000 {
		t.Errorf("duration = %d, want 1000", full.Run.DurationMS)
	}
	if len(full.Inputs) != 1 || len(full.Outputs) != 1 || len(full.Traces) != 1 {
		t.Errorf("expected one of each child row, got inputs=%d outputs=%d traces=%d", len(full.Inputs), len(full.Outputs), len(full.Traces))
	}
	if len(full.DatasetDigests) != 1 || full.DatasetDigests[0] != "d1" {
		t.Errorf("dataset digests = %v, want [d1]", full.DatasetDigests)
	}
}

type fakeRepricer struct {
	result ReplayResult
	err    error
}

func (f fakeRepricer) Reprice(_ context.Context, _ string) (ReplayResult, error) {
	return f.result, f.err
}

func TestReplay_EqualWhenDeterministic(t *testing.T) {
	store := newFakeStore()
	rec := NewRecorder("run-2", "POST /pricing/price", time.Now().Add(-time.Second))
	rec.RecordOutput(domain.RunOutput{Sequence: 1, AllowedCents: 100, ProgramPaymentCents: 80, BeneficiaryCostCents: 20, DatasetDigest: "dA"})
	if err := rec.Finish(context.Background(), store, `{}`, `{}`, domain.RunStatusOK, time.Now()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	repricer := fakeRepricer{result: ReplayResult{
		DatasetDigests: []string{"dA"},
		Outputs:        []domain.RunOutput{{Sequence: 1, AllowedCents: 100, ProgramPaymentCents: 80, BeneficiaryCostCents: 20}},
	}}

	report, err := Replay(context.Background(), store, repricer, "run-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Equal {
		t.Errorf("expected replay to be equal, got diffs: %+v", report.Diffs)
	}
}

func TestReplay_DetectsNumericDrift(t *testing.T) {
	store := newFakeStore()
	rec := NewRecorder("run-3", "POST /pricing/price", time.Now().Add(-time.Second))
	rec.RecordOutput(domain.RunOutput{Sequence: 1, AllowedCents: 100, DatasetDigest: "dA"})
	if err := rec.Finish(context.Background(), store, `{}`, `{}`, domain.RunStatusOK, time.Now()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	repricer := fakeRepricer{result: ReplayResult{
		DatasetDigests: []string{"dA"},
		Outputs:        []domain.RunOutput{{Sequence: 1, AllowedCents: 101}},
	}}

	report, err := Replay(context.Background(), store, repricer, "run-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Equal {
		t.Fatal("expected replay to detect drift")
	}
	if len(report.Diffs) != 1 || report.Diffs[0].Field != "line[1].allowed_cents" {
		t.Errorf("unexpected diffs: %+v", report.Diffs)
	}
}

func TestReplay_DetectsDatasetDigestDrift(t *testing.T) {
	store := newFakeStore()
	rec := NewRecorder("run-4", "POST /pricing/price", time.Now().Add(-time.Second))
	rec.RecordOutput(domain.RunOutput{Sequence: 1, AllowedCents: 100, DatasetDigest: "dA"})
	if err := rec.Finish(context.Background(), store, `{}`, `{}`, domain.RunStatusOK, time.Now()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	repricer := fakeRepricer{result: ReplayResult{
		DatasetDigests: []string{"dB"},
		Outputs:        []domain.RunOutput{{Sequence: 1, AllowedCents: 100}},
	}}

	report, err := Replay(context.Background(), store, repricer, "run-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Equal {
		t.Fatal("expected dataset digest drift to be detected")
	}
}
