package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManager_GetOrCompute_SingleflightCoalesces(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{MaxItems: 64, MaxBytes: 1 << 20, DiskDir: dir, DefaultTTL: time.Minute}, zap.NewNop())

	var calls int64
	const workers = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	start := make(chan struct{})
	results := make([][]byte, workers)

	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			<-start
			v, err := m.GetOrCompute("shared-key", "", time.Minute, func() ([]byte, string, error) {
				atomic.AddInt64(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return []byte("computed"), "digest-1", nil
			})
			if err != nil {
				t.Errorf("worker %d: unexpected error: %v", i, err)
				return
			}
			results[i] = v
		}()
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("factory invoked %d times, want at most 1 per effective value", got)
	}
	for i, r := range results {
		if string(r) != "computed" {
			t.Errorf("worker %d got %q, want \"computed\"", i, r)
		}
	}
}

func TestManager_DiskDigestMismatch_InvalidatesSilently(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{MaxItems: 64, MaxBytes: 1 << 20, DiskDir: dir}, zap.NewNop())

	m.Put("k", []byte("v1"), "digest-a", time.Minute)
	m.Clear() // force a disk-tier read by emptying memory

	_, ok := m.Get("k", "digest-b")
	if ok {
		t.Error("expected digest mismatch to invalidate the disk entry")
	}

	_, ok = m.Get("k", "digest-a")
	if !ok {
		t.Error("expected matching digest to hit")
	}
}

func TestMemoryCache_EvictsOldestOnOverflow(t *testing.T) {
	c := NewMemoryCache(2, 1<<20)
	c.Put("a", Entry{Value: []byte("1")})
	c.Put("b", Entry{Value: []byte("2")})
	c.Put("c", Entry{Value: []byte("3")})

	if _, ok := c.Get("a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected newest entry to remain cached")
	}
}
