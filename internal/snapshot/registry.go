package snapshot

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

// Store is the persistence dependency the Registry needs: listing a
// dataset's snapshots and recording/reading digest pins.
type Store interface {
	ListSnapshots(ctx context.Context, datasetID string) ([]domain.Snapshot, error)
	RowTuplesForDigest(ctx context.Context, datasetID string, digest string) ([]string, error)
	SavePin(ctx context.Context, pinName, digest string) error
	LoadPin(ctx context.Context, pinName string) (string, bool, error)
}

// SelectMode governs what happens when no snapshot covers the requested
// effective date.
type SelectMode int

const (
	// SelectStrict fails with NoSnapshot if no snapshot covers the date.
	SelectStrict SelectMode = iota
	// SelectLatestBefore picks the snapshot with the greatest
	// EffectiveFrom <= effectiveAt and logs a warning.
	SelectLatestBefore
)

// Registry selects the right snapshot for an effective date and
// verifies pinned reproducibility.
type Registry struct {
	store Store
	log   *zap.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(store Store, log *zap.Logger) *Registry {
	return &Registry{store: store, log: log}
}

// Select returns the active snapshot for a dataset at a point in time,
// per the "most recent effective_from wins" selection rule.
func (r *Registry) Select(ctx context.Context, datasetID string, effectiveAt time.Time, mode SelectMode) (domain.Snapshot, error) {
	snapshots, err := r.store.ListSnapshots(ctx, datasetID)
	if err != nil {
		return domain.Snapshot{}, apperr.Wrap(apperr.CodeInternal, "failed to list snapshots", err)
	}

	var covering []domain.Snapshot
	for _, s := range snapshots {
		if !effectiveAt.Before(s.EffectiveFrom) && (s.EffectiveTo == nil || effectiveAt.Before(*s.EffectiveTo)) {
			covering = append(covering, s)
		}
	}

	if len(covering) > 0 {
		sort.Slice(covering, func(i, j int) bool {
			return covering[i].EffectiveFrom.After(covering[j].EffectiveFrom)
		})
		return covering[0], nil
	}

	if mode == SelectStrict {
		return domain.Snapshot{}, apperr.New(apperr.CodeNoSnapshot,
			"no snapshot of dataset "+datasetID+" covers the requested effective date")
	}

	// latest_before fallback
	var before []domain.Snapshot
	for _, s := range snapshots {
		if !s.EffectiveFrom.After(effectiveAt) {
			before = append(before, s)
		}
	}
	if len(before) == 0 {
		return domain.Snapshot{}, apperr.New(apperr.CodeNoSnapshot,
			"no snapshot of dataset "+datasetID+" exists at or before the requested effective date")
	}
	sort.Slice(before, func(i, j int) bool {
		return before[i].EffectiveFrom.After(before[j].EffectiveFrom)
	})
	r.log.Warn("falling back to latest-before snapshot selection",
		zap.String("dataset_id", datasetID),
		zap.Time("effective_at", effectiveAt),
		zap.Time("selected_effective_from", before[0].EffectiveFrom))
	return before[0], nil
}

// Pin records a named digest pin for later reproducibility assertions.
func (r *Registry) Pin(ctx context.Context, pinName string, digest string) error {
	return r.store.SavePin(ctx, pinName, digest)
}

// VerifyReproducibility scores a pin against a set of sample
// resolutions' dataset digests: the score is the fraction whose
// digest matches the pin.
func (r *Registry) VerifyReproducibility(ctx context.Context, pinName string, observedDigests []string) (score float64, matchedPin string, err error) {
	pinned, ok, err := r.store.LoadPin(ctx, pinName)
	if err != nil {
		return 0, "", apperr.Wrap(apperr.CodeInternal, "failed to load pin", err)
	}
	if !ok {
		return 0, "", apperr.New(apperr.CodeInvalidInput, "no such pin: "+pinName)
	}
	if len(observedDigests) == 0 {
		return 0, pinned, nil
	}
	matches := 0
	for _, d := range observedDigests {
		if d == pinned {
			matches++
		}
	}
	return float64(matches) / float64(len(observedDigests)), pinned, nil
}

// RecomputeDigest recomputes a dataset's digest on demand by
// canonicalizing its current row set.
func (r *Registry) RecomputeDigest(ctx context.Context, datasetID, currentDigest string) (string, error) {
	tuples, err := r.store.RowTuplesForDigest(ctx, datasetID, currentDigest)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "failed to load row tuples", err)
	}
	return CanonicalDigest(tuples), nil
}
