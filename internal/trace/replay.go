package trace

import (
	"context"
	"fmt"
	"sort"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// ReplayResult is what a Repricer returns after re-executing a run's
// original request.
type ReplayResult struct {
	ResponseJSON   string
	DatasetDigests []string
	Outputs        []domain.RunOutput
}

// Repricer re-executes a previously-recorded request. The Orchestrator
// implements this; trace depends only on the interface to avoid an
// import cycle (orchestrator already imports trace to record runs).
type Repricer interface {
	Reprice(ctx context.Context, requestJSON string) (ReplayResult, error)
}

// Diff is one field that disagreed between the original run and its
// replay.
type Diff struct {
	Field    string
	Original string
	Replayed string
}

// ReplayReport is the response of GET /trace/{run_id}/replay.
type ReplayReport struct {
	Equal bool
	Diffs []Diff
}

// Replay re-executes a recorded request: re-derive the dataset
// digests, compare all numeric fields and enum strings for exact
// equality, and report any mismatch. It does not mutate stored state
// — a passing replay is read-only proof of determinism.
func Replay(ctx context.Context, store Store, repricer Repricer, runID string) (ReplayReport, error) {
	original, err := Lookup(ctx, store, runID)
	if err != nil {
		return ReplayReport{}, err
	}

	result, err := repricer.Reprice(ctx, original.Run.RequestJSON)
	if err != nil {
		return ReplayReport{}, err
	}

	var diffs []Diff
	diffs = append(diffs, diffDigestSets(original.DatasetDigests, result.DatasetDigests)...)
	diffs = append(diffs, diffOutputs(original.Outputs, result.Outputs)...)

	return ReplayReport{Equal: len(diffs) == 0, Diffs: diffs}, nil
}

func diffDigestSets(original, replayed []string) []Diff {
	a := append([]string(nil), original...)
	b := append([]string(nil), replayed...)
	sort.Strings(a)
	sort.Strings(b)

	if len(a) != len(b) {
		return []Diff{{Field: "dataset_digest_set", Original: fmt.Sprint(a), Replayed: fmt.Sprint(b)}}
	}
	for i := range a {
		if a[i] != b[i] {
			return []Diff{{Field: "dataset_digest_set", Original: fmt.Sprint(a), Replayed: fmt.Sprint(b)}}
		}
	}
	return nil
}

func diffOutputs(original, replayed []domain.RunOutput) []Diff {
	bySeq := make(map[int]domain.RunOutput, len(replayed))
	for _, o := range replayed {
		bySeq[o.Sequence] = o
	}

	var diffs []Diff
	for _, o := range original {
		r, ok := bySeq[o.Sequence]
		if !ok {
			diffs = append(diffs, Diff{Field: fmt.Sprintf("line[%d]", o.Sequence), Original: "present", Replayed: "missing"})
			continue
		}
		diffs = append(diffs, fieldDiffs(o, r)...)
	}
	return diffs
}

func fieldDiffs(o, r domain.RunOutput) []Diff {
	var diffs []Diff
	prefix := fmt.Sprintf("line[%d].", o.Sequence)

	if o.AllowedCents != r.AllowedCents {
		diffs = append(diffs, Diff{Field: prefix + "allowed_cents", Original: fmt.Sprint(o.AllowedCents), Replayed: fmt.Sprint(r.AllowedCents)})
	}
	if o.ProgramPaymentCents != r.ProgramPaymentCents {
		diffs = append(diffs, Diff{Field: prefix + "program_payment_cents", Original: fmt.Sprint(o.ProgramPaymentCents), Replayed: fmt.Sprint(r.ProgramPaymentCents)})
	}
	if o.BeneficiaryCostCents != r.BeneficiaryCostCents {
		diffs = append(diffs, Diff{Field: prefix + "beneficiary_cost_cents", Original: fmt.Sprint(o.BeneficiaryCostCents), Replayed: fmt.Sprint(r.BeneficiaryCostCents)})
	}
	if o.Setting != r.Setting {
		diffs = append(diffs, Diff{Field: prefix + "setting", Original: string(o.Setting), Replayed: string(r.Setting)})
	}
	if o.FailureCode != r.FailureCode {
		diffs = append(diffs, Diff{Field: prefix + "failure_code", Original: o.FailureCode, Replayed: r.FailureCode})
	}
	return diffs
}
