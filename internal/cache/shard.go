package cache

import (
	"hash/fnv"

	"golang.org/x/sync/singleflight"
)

// shardCount determines how many independent singleflight groups the
// Manager spreads keys across, so that lock-map mutation for one key
// never serializes an unrelated key.
const shardCount = 256

// shardedGroup is a fixed-size ring of singleflight.Group instances
// keyed by an FNV hash of the cache key.
type shardedGroup struct {
	groups [shardCount]singleflight.Group
}

func newShardedGroup() *shardedGroup {
	return &shardedGroup{}
}

func (s *shardedGroup) groupFor(key string) *singleflight.Group {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.groups[h.Sum32()%shardCount]
}

// Do coalesces concurrent calls for the same key onto a single fn
// invocation, scoped to the shard that key hashes to.
func (s *shardedGroup) Do(key string, fn func() (interface{}, error)) (interface{}, error, bool) {
	return s.groupFor(key).Do(key, fn)
}
