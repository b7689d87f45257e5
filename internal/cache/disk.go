package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DiskCache is the persistent, content-addressed on-disk tier: files
// live under cacheDir/<two-hex>/<hex>.bin. The filesystem or an external process is
// responsible for eviction; DiskCache never removes entries except on
// expiry or digest mismatch.
type DiskCache struct {
	dir string
	log *zap.Logger
}

// NewDiskCache constructs a DiskCache rooted at dir, creating it if
// necessary. Directory-creation failure degrades to "miss" behavior for
// every subsequent call rather than returning an error here.
func NewDiskCache(dir string, log *zap.Logger) *DiskCache {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("failed to create disk cache directory", zap.String("dir", dir), zap.Error(err))
	}
	return &DiskCache{dir: dir, log: log}
}

type diskRecord struct {
	Value     []byte
	Digest    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (d *DiskCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	hexDigest := hex.EncodeToString(sum[:])
	return filepath.Join(d.dir, hexDigest[:2], hexDigest+".bin")
}

// Get reads a cache entry, returning (Entry{}, false) on any miss: file
// absent, corrupt, expired, or digest-mismatched.
func (d *DiskCache) Get(key string, expectedDigest string) (Entry, bool) {
	data, err := os.ReadFile(d.pathFor(key))
	if err != nil {
		return Entry{}, false
	}

	var rec diskRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		d.log.Warn("disk cache entry unreadable", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}

	if expectedDigest != "" && rec.Digest != expectedDigest {
		d.log.Warn("disk cache digest mismatch",
			zap.String("key", key), zap.String("expected", expectedDigest), zap.String("actual", rec.Digest))
		return Entry{}, false
	}

	if !rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt) {
		_ = os.Remove(d.pathFor(key))
		return Entry{}, false
	}

	return Entry{Value: rec.Value, Digest: rec.Digest, ExpiresAt: rec.ExpiresAt}, true
}

// Put writes a cache entry. Write failures degrade to a no-op and are
// logged, never propagated into pricing results.
func (d *DiskCache) Put(key string, entry Entry) {
	path := d.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.log.Warn("failed to create disk cache subdirectory", zap.String("path", path), zap.Error(err))
		return
	}

	rec := diskRecord{Value: entry.Value, Digest: entry.Digest, ExpiresAt: entry.ExpiresAt, CreatedAt: time.Now()}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		d.log.Warn("failed to encode disk cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		d.log.Warn("failed to write disk cache entry", zap.String("path", path), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		d.log.Warn("failed to commit disk cache entry", zap.String("path", path), zap.Error(err))
		_ = os.Remove(tmp)
	}
}
