package trace

import (
	"context"
	"sort"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// FullTrace is the read-path response for GET /trace/{run_id}: the run
// plus every child row, and the set of dataset digests observed across
// all outputs.
type FullTrace struct {
	Run            domain.Run
	Inputs         []domain.RunInput
	Outputs        []domain.RunOutput
	Traces         []domain.RunTrace
	DatasetDigests []string
}

// Lookup assembles the full trace for a run_id.
func Lookup(ctx context.Context, store Store, runID string) (FullTrace, error) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return FullTrace{}, err
	}
	inputs, err := store.ListInputs(ctx, runID)
	if err != nil {
		return FullTrace{}, err
	}
	outputs, err := store.ListOutputs(ctx, runID)
	if err != nil {
		return FullTrace{}, err
	}
	traces, err := store.ListTraces(ctx, runID)
	if err != nil {
		return FullTrace{}, err
	}

	return FullTrace{
		Run:            run,
		Inputs:         inputs,
		Outputs:        outputs,
		Traces:         traces,
		DatasetDigests: distinctDigests(outputs),
	}, nil
}

func distinctDigests(outputs []domain.RunOutput) []string {
	seen := make(map[string]struct{})
	for _, o := range outputs {
		if o.DatasetDigest != "" {
			seen[o.DatasetDigest] = struct{}{}
		}
	}
	digests := make([]string, 0, len(seen))
	for d := range seen {
		digests = append(digests, d)
	}
	sort.Strings(digests)
	return digests
}
