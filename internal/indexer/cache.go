package indexer

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/feral-file/ledger-indexer/internal/adapter"
)

// CACHE_EVICTION_TARGET is the fraction of capacity kept after an overflow
const CACHE_EVICTION_TARGET = 0.75

// processedCache remembers recently committed signatures so polling does not
// hit the store for every listed signature. Entries are ordered by insertion;
// overflow and retention pruning both drop the oldest first.
type processedCache struct {
	mu        sync.Mutex
	lru       *simplelru.LRU[string, time.Time]
	maxSize   int
	retention time.Duration
	clock     adapter.Clock
}

func newProcessedCache(maxSize int, retention time.Duration, clock adapter.Clock) *processedCache {
	if maxSize < 1 {
		maxSize = 1
	}

	// One slot of headroom so an overflow is observed before the LRU evicts on its own
	lru, err := simplelru.NewLRU[string, time.Time](maxSize+1, nil)
	if err != nil {
		panic(err) // only on non-positive size
	}

	return &processedCache{
		lru:       lru,
		maxSize:   maxSize,
		retention: retention,
		clock:     clock,
	}
}

// Contains reports whether sig was committed recently
func (c *processedCache) Contains(sig string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(sig)
}

// Add records sig. When the cache exceeds its capacity it is trimmed to
// CACHE_EVICTION_TARGET of capacity keeping the newest entries.
// Returns the number of evicted entries.
func (c *processedCache) Add(sig string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(sig, c.clock.Now())
	if c.lru.Len() <= c.maxSize {
		return 0
	}

	target := max(int(float64(c.maxSize)*CACHE_EVICTION_TARGET), 1)
	evicted := 0
	for c.lru.Len() > target {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
		evicted++
	}
	return evicted
}

// Prune drops entries older than the retention window. Returns the number removed.
func (c *processedCache) Prune() int {
	if c.retention <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.clock.Now().Add(-c.retention)
	removed := 0
	for {
		_, addedAt, ok := c.lru.GetOldest()
		if !ok || addedAt.After(cutoff) {
			break
		}
		c.lru.RemoveOldest()
		removed++
	}
	return removed
}

func (c *processedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
