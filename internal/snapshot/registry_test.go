package snapshot

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

type fakeStore struct {
	snapshots map[string][]domain.Snapshot
	pins      map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{snapshots: map[string][]domain.Snapshot{}, pins: map[string]string{}}
}

func (f *fakeStore) ListSnapshots(_ context.Context, datasetID string) ([]domain.Snapshot, error) {
	return f.snapshots[datasetID], nil
}

func (f *fakeStore) RowTuplesForDigest(_ context.Context, _ string, _ string) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) SavePin(_ context.Context, pinName, digest string) error {
	f.pins[pinName] = digest
	return nil
}

func (f *fakeStore) LoadPin(_ context.Context, pinName string) (string, bool, error) {
	d, ok := f.pins[pinName]
	return d, ok, nil
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestRegistry_Select_MostRecentEffectiveFromWins(t *testing.T) {
	store := newFakeStore()
	store.snapshots["geography"] = []domain.Snapshot{
		{DatasetID: "geography", EffectiveFrom: date(2024, 1, 1), EffectiveTo: ptr(date(2025, 1, 1)), Digest: "old"},
		{DatasetID: "geography", EffectiveFrom: date(2025, 1, 1), EffectiveTo: nil, Digest: "new"},
	}
	reg := NewRegistry(store, zap.NewNop())

	snap, err := reg.Select(context.Background(), "geography", date(2025, 6, 1), SelectStrict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Digest != "new" {
		t.Errorf("got digest %s, want new", snap.Digest)
	}
}

func TestRegistry_Select_StrictNoSnapshot(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, zap.NewNop())

	_, err := reg.Select(context.Background(), "unknown", date(2025, 1, 1), SelectStrict)
	if !apperr.IsCode(err, apperr.CodeNoSnapshot) {
		t.Errorf("expected NoSnapshot, got %v", err)
	}
}

func TestRegistry_Select_LatestBeforeFallback(t *testing.T) {
	store := newFakeStore()
	store.snapshots["geography"] = []domain.Snapshot{
		{DatasetID: "geography", EffectiveFrom: date(2023, 1, 1), EffectiveTo: ptr(date(2024, 1, 1)), Digest: "old"},
	}
	reg := NewRegistry(store, zap.NewNop())

	snap, err := reg.Select(context.Background(), "geography", date(2025, 1, 1), SelectLatestBefore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Digest != "old" {
		t.Errorf("got digest %s, want old", snap.Digest)
	}
}

func TestRegistry_PinAndVerify(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, zap.NewNop())

	if err := reg.Pin(context.Background(), "smoke-test", "abc123"); err != nil {
		t.Fatalf("pin failed: %v", err)
	}

	score, pinned, err := reg.VerifyReproducibility(context.Background(), "smoke-test",
		[]string{"abc123", "abc123", "different"})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if pinned != "abc123" {
		t.Errorf("pinned digest = %s, want abc123", pinned)
	}
	want := float64(2) / float64(3)
	if score != want {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func ptr(t time.Time) *time.Time { return &t }
