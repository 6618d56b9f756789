package oracle

import (
	"bytes"
	"encoding/gob"
	/* #nosec G505 -- content-addressing, not a security boundary */
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/groceryroute/tourplanner/internal/domain"
)

// cacheRecord is the on-disk shape of one cached matrix pair, mirroring the
// {distance_matrix, duration_matrix, cached_at, ttl_hours} record the
// source's pickle-based cache wrote, reimplemented with encoding/gob.
type cacheRecord struct {
	Distance domain.Matrix
	Duration domain.Matrix
	CachedAt time.Time
	TTLHours int
}

// cacheKey returns a deterministic, order-dependent hash of the coordinate
// sequence. Two calls with the same locations in the same order always
// produce the same key; this is what makes the matrix cache a pure function
// of its key.
func cacheKey(points []domain.Point) string {
	var buf bytes.Buffer
	for _, p := range points {
		fmt.Fprintf(&buf, "%.6f,%.6f;", p.Lat, p.Lng)
	}
	sum := sha1.Sum(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// diskCache is a content-addressed, write-once matrix cache. Entries are
// written to a temp file and atomically renamed into place so concurrent
// solves never observe a partially written entry.
type diskCache struct {
	dir       string
	ttlHours  int
	enabled   bool
}

func newDiskCache(dir string, ttlHours int, enabled bool) *diskCache {
	if enabled {
		_ = os.MkdirAll(dir, 0o755)
	}
	return &diskCache{dir: dir, ttlHours: ttlHours, enabled: enabled}
}

func (c *diskCache) path(key string) string {
	return filepath.Join(c.dir, "matrix_"+key+".gob")
}

// load returns the cached matrices for key, or ok=false if absent, expired,
// or corrupted. A corrupted entry is removed so future readers don't retry
// the same bad file.
func (c *diskCache) load(key string) (Matrices, bool) {
	if !c.enabled {
		return Matrices{}, false
	}
	p := c.path(key)
	info, err := os.Stat(p)
	if err != nil {
		return Matrices{}, false
	}
	if c.ttlHours > 0 && time.Since(info.ModTime()) > time.Duration(c.ttlHours)*time.Hour {
		_ = os.Remove(p)
		return Matrices{}, false
	}

	f, err := os.Open(p)
	if err != nil {
		return Matrices{}, false
	}
	defer f.Close()

	var rec cacheRecord
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		_ = os.Remove(p)
		return Matrices{}, false
	}
	return Matrices{Distance: rec.Distance, Duration: rec.Duration}, true
}

// save writes the entry via a temp file + atomic rename (write-once). A
// failure to persist is non-fatal: the caller continues without caching.
func (c *diskCache) save(key string, m Matrices) error {
	if !c.enabled {
		return nil
	}
	rec := cacheRecord{
		Distance: m.Distance,
		Duration: m.Duration,
		CachedAt: time.Now(),
		TTLHours: c.ttlHours,
	}

	tmp, err := os.CreateTemp(c.dir, "matrix_*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := gob.NewEncoder(tmp).Encode(rec); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, c.path(key))
}
