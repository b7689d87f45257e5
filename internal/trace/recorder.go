package trace

import (
	"context"
	"time"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// Recorder accumulates the rows of one in-flight run and commits them
// in a single Store.SaveRun call once the Orchestrator completes
//. It holds no reference to the Store
// until Finish, so partial runs never reach persistence.
type Recorder struct {
	runID     string
	endpoint  string
	startedAt time.Time

	inputs  []domain.RunInput
	outputs []domain.RunOutput
	traces  []domain.RunTrace
}

// NewRecorder starts accumulating a run identified by runID.
func NewRecorder(runID, endpoint string, startedAt time.Time) *Recorder {
	return &Recorder{runID: runID, endpoint: endpoint, startedAt: startedAt}
}

// RunID returns the run identifier this recorder was created with.
func (r *Recorder) RunID() string { return r.runID }

// RecordInput appends one top-level request parameter.
func (r *Recorder) RecordInput(key, value string) {
	r.inputs = append(r.inputs, domain.RunInput{RunID: r.runID, Key: key, Value: value})
}

// RecordOutput appends one priced (or failed) line result.
func (r *Recorder) RecordOutput(o domain.RunOutput) {
	o.RunID = r.runID
	r.outputs = append(r.outputs, o)
}

// RecordTrace appends one trace row. lineSeq is nil for run-level
// traces such as "run_summary".
func (r *Recorder) RecordTrace(kind, payloadJSON string, lineSeq *int) {
	r.traces = append(r.traces, domain.RunTrace{
		RunID:        r.runID,
		Kind:         kind,
		PayloadJSON:  payloadJSON,
		LineSequence: lineSeq,
	})
}

// Finish assembles the Run row and persists the whole graph atomically.
// Persistence errors are returned to the caller (unlike resolution
// traces, a dropped Run/Output row breaks replay, so it must not be
// silently swallowed).
func (r *Recorder) Finish(ctx context.Context, store Store, requestJSON, responseJSON string, status domain.RunStatus, now time.Time) error {
	run := domain.Run{
		RunID:        r.runID,
		Endpoint:     r.endpoint,
		RequestJSON:  requestJSON,
		ResponseJSON: responseJSON,
		Status:       status,
		StartedAt:    r.startedAt,
		DurationMS:   now.Sub(r.startedAt).Milliseconds(),
	}
	return store.SaveRun(ctx, run, r.inputs, r.outputs, r.traces)
}
