package repo

import (
	"sync"
	"time"

	domainRepo "labsite/internal/domain/repo"
)

// DefaultTTL is how long a fetched repository list stays fresh.
const DefaultTTL = 5 * time.Minute

// SourceCache holds the last successfully fetched repository list.
//
// It is either cold (never filled, or older than the TTL) or warm. The value
// is only ever replaced as a whole after a complete fetch, so a failed
// refresh leaves the previous state in place. The mutex only keeps
// concurrent requests from tearing the struct; two cold requests may both
// fetch.
type SourceCache struct {
	mu        sync.Mutex
	entries   []domainRepo.Entry
	fetchedAt time.Time
	filled    bool

	ttl time.Duration
	now func() time.Time
}

// NewSourceCache builds a cold cache. ttl<=0 falls back to DefaultTTL and a
// nil clock to time.Now.
func NewSourceCache(ttl time.Duration, now func() time.Time) *SourceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SourceCache{ttl: ttl, now: now}
}

// Get returns the cached list and its fetch time when warm.
func (c *SourceCache) Get() ([]domainRepo.Entry, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.warmLocked() {
		return nil, time.Time{}, false
	}
	return c.entries, c.fetchedAt, true
}

// Replace stores a complete list fetched at fetchedAt.
func (c *SourceCache) Replace(entries []domainRepo.Entry, fetchedAt time.Time) {
	cp := make([]domainRepo.Entry, len(entries))
	copy(cp, entries)
	c.mu.Lock()
	c.entries = cp
	c.fetchedAt = fetchedAt
	c.filled = true
	c.mu.Unlock()
}

// FetchedAt returns the timestamp of the stored value, zero when never
// filled.
func (c *SourceCache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}

// Warm reports whether Get would hit.
func (c *SourceCache) Warm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warmLocked()
}

// TTL returns the freshness window.
func (c *SourceCache) TTL() time.Duration {
	return c.ttl
}

// Fresh reports whether a value fetched at fetchedAt is still within the TTL.
func (c *SourceCache) Fresh(fetchedAt time.Time) bool {
	return !fetchedAt.IsZero() && c.now().Sub(fetchedAt) < c.ttl
}

// Now returns the cache clock's current time.
func (c *SourceCache) Now() time.Time {
	return c.now()
}

func (c *SourceCache) warmLocked() bool {
	return c.filled && c.now().Sub(c.fetchedAt) < c.ttl
}
