package catalog

import (
	"sync"
	"time"

	"shopmi-api/internal/domain"
)

// collectionCache is a keyed cache of collection preview pages. Each refresh
// for a key is issued a generation token; a completing fetch is applied only
// if it is still the most recent one for that key, so out-of-order responses
// cannot clobber fresher data.
type collectionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	generation uint64
	page       *domain.CollectionPage
	fetchedAt  time.Time
}

func newCollectionCache(ttl time.Duration) *collectionCache {
	return &collectionCache{
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
	}
}

// get returns a fresh cached page for the handle, if any.
func (c *collectionCache) get(handle string) (*domain.CollectionPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[handle]
	if !ok || entry.page == nil {
		return nil, false
	}
	if time.Since(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.page, true
}

// begin registers a new refresh for the handle and returns its generation.
// Any refresh started earlier becomes stale.
func (c *collectionCache) begin(handle string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[handle]
	if !ok {
		entry = &cacheEntry{}
		c.entries[handle] = entry
	}
	entry.generation++
	return entry.generation
}

// complete stores the fetched page if the generation is still current.
// Returns false when the result was stale and discarded.
func (c *collectionCache) complete(handle string, generation uint64, page *domain.CollectionPage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[handle]
	if !ok || entry.generation != generation {
		return false
	}
	entry.page = page
	entry.fetchedAt = time.Now()
	return true
}
