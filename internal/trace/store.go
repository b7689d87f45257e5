// Package trace persists and replays the audit record of a priced run.
// The Run/RunInput/RunOutput/RunTrace graph is kept flat and
// relational on purpose: Run references nothing, and
// RunOutput/RunTrace reference only a RunID, so there is no cyclic
// object graph to traverse.
package trace

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/domain"
)

// Store is the persistence boundary a pgx-backed implementation (or a
// fake, in tests) must satisfy. SaveRun is the one write path and must
// be atomic: either every row lands, or none does.
type Store interface {
	SaveRun(ctx context.Context, run domain.Run, inputs []domain.RunInput, outputs []domain.RunOutput, traces []domain.RunTrace) error
	GetRun(ctx context.Context, runID string) (domain.Run, error)
	ListInputs(ctx context.Context, runID string) ([]domain.RunInput, error)
	ListOutputs(ctx context.Context, runID string) ([]domain.RunOutput, error)
	ListTraces(ctx context.Context, runID string) ([]domain.RunTrace, error)
}
