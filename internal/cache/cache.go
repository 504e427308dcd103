// Package cache keeps response bodies built from persisted artifacts in
// memory. Every entry remembers the file (or directory) it was built from
// and is only served while that source is unchanged on disk, so a rerun
// that replaces <date>.json is visible on the next request.
package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"
)

// Client-facing freshness per kind of response. Entries are revalidated
// against their source on every Get regardless of TTL.
const (
	TTLDated  = 1 * time.Hour
	TTLLatest = 5 * time.Minute
	TTLIndex  = 1 * time.Minute
)

type entry struct {
	data      []byte
	etag      string
	source    os.FileInfo
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache of artifact-backed bodies.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	enabled bool
	now     func() time.Time

	hits, misses, invalidated int
}

// New creates a new cache. Pass enabled=false to create a no-op cache.
func New(enabled bool) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		now:     time.Now,
	}
}

// Get returns the body stored under key if it has not expired and was built
// from the same version of source. Stale entries are dropped.
func (c *Cache) Get(key string, source os.FileInfo) (data []byte, etag string, ok bool) {
	if !c.enabled || source == nil {
		return nil, "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	switch {
	case !exists:
		c.misses++
		return nil, "", false
	case !sameVersion(e.source, source):
		delete(c.entries, key)
		c.invalidated++
		return nil, "", false
	case c.now().After(e.expiresAt):
		delete(c.entries, key)
		c.misses++
		return nil, "", false
	}
	c.hits++
	return e.data, e.etag, true
}

// Set stores data built from source and returns its ETag. Without a source
// nothing is stored.
func (c *Cache) Set(key string, source os.FileInfo, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled || source == nil {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		data:      data,
		etag:      etag,
		source:    source,
		expiresAt: c.now().Add(ttl),
	}
	return etag
}

// Stats returns cache statistics.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]interface{}{
		"enabled":     c.enabled,
		"keys":        len(c.entries),
		"hits":        c.hits,
		"misses":      c.misses,
		"invalidated": c.invalidated,
	}
}

// sameVersion reports whether b is the file a was read from, untouched.
// Atomic writes rename a new inode into place, which os.SameFile catches
// even when size and mtime happen to match.
func sameVersion(a, b os.FileInfo) bool {
	return os.SameFile(a, b) && a.ModTime().Equal(b.ModTime()) && a.Size() == b.Size()
}

// ComputeETag derives a weak ETag from the body.
func ComputeETag(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}

// CheckETagMatch checks if If-None-Match header matches the current ETag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	return ifNoneMatch == etag
}
