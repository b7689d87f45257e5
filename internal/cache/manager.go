package cache

import (
	"time"

	"go.uber.org/zap"
)

// Factory computes the value for a cache miss.
type Factory func() ([]byte, string, error) // value, digest, error

// Manager is the unified two-tier cache with singleflight coalescing
// of concurrent misses. Callers key entries with a stable string such
// as "mpfs:{year}:{locality}:{hcpcs}".
type Manager struct {
	memory     *MemoryCache
	disk       *DiskCache
	inflight   *shardedGroup
	defaultTTL time.Duration
	log        *zap.Logger
}

// Config bounds the Manager's two tiers.
type Config struct {
	MaxItems   int
	MaxBytes   int64
	DiskDir    string
	DefaultTTL time.Duration
}

// NewManager constructs a Manager from Config.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		memory:     NewMemoryCache(cfg.MaxItems, cfg.MaxBytes),
		disk:       NewDiskCache(cfg.DiskDir, log),
		inflight:   newShardedGroup(),
		defaultTTL: ttl,
		log:        log,
	}
}

// Get reads from memory first, then disk (promoting a disk hit back
// into memory), returning false on a full miss.
func (m *Manager) Get(key string, expectedDigest string) (Entry, bool) {
	if e, ok := m.memory.Get(key); ok {
		if expectedDigest == "" || e.Digest == expectedDigest {
			return e, true
		}
	}

	e, ok := m.disk.Get(key, expectedDigest)
	if !ok {
		return Entry{}, false
	}
	m.memory.Put(key, e)
	return e, true
}

// Put writes through both tiers.
func (m *Manager) Put(key string, value []byte, digest string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	e := Entry{Value: value, Digest: digest, ExpiresAt: time.Now().Add(ttl)}
	m.memory.Put(key, e)
	m.disk.Put(key, e)
}

// GetOrCompute implements the cache's singleflight contract:
// concurrent calls for the same key coalesce onto a single factory
// invocation; the cache is re-checked after acquiring the per-key slot
// (double-checked) before the factory runs.
func (m *Manager) GetOrCompute(key string, expectedDigest string, ttl time.Duration, factory Factory) ([]byte, error) {
	if e, ok := m.Get(key, expectedDigest); ok {
		return e.Value, nil
	}

	v, err, _ := m.inflight.Do(key, func() (interface{}, error) {
		// Double-checked: another caller may have populated the cache
		// while we were waiting to acquire this shard's slot.
		if e, ok := m.Get(key, expectedDigest); ok {
			return e.Value, nil
		}

		value, digest, err := factory()
		if err != nil {
			return nil, err
		}

		m.Put(key, value, digest, ttl)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Stats reports current cache occupancy for health/metrics endpoints.
type Stats struct {
	MemoryItems int
	MemoryBytes int64
}

// Stats returns a snapshot of the in-memory tier's occupancy.
func (m *Manager) Stats() Stats {
	return Stats{MemoryItems: m.memory.Len(), MemoryBytes: m.memory.Bytes()}
}

// Clear empties the in-memory tier. The disk tier is left untouched —
// it is not evicted by the cache itself.
func (m *Manager) Clear() {
	m.memory.Clear()
}
