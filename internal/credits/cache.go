package credits

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// BalanceSnapshot is a short-lived cached view of a user's counters.
type BalanceSnapshot struct {
	Counters  Counters
	Available int
}

type cacheEntry struct {
	snapshot  BalanceSnapshot
	expiresAt time.Time
}

// BalanceCache caches balance snapshots per (app, user) for a short TTL.
// Every credit-affecting write must call Invalidate so reads are never stale
// beyond the cache window.
type BalanceCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewBalanceCache(ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKey(appID string, userID uuid.UUID) string {
	return appID + ":" + userID.String()
}

func (c *BalanceCache) Get(appID string, userID uuid.UUID) (BalanceSnapshot, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(appID, userID)]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return BalanceSnapshot{}, false
	}
	return entry.snapshot, true
}

func (c *BalanceCache) Set(appID string, userID uuid.UUID, snapshot BalanceSnapshot) {
	c.mu.Lock()
	c.entries[cacheKey(appID, userID)] = cacheEntry{
		snapshot:  snapshot,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops the cached snapshot for a user immediately after a
// credit-affecting event.
func (c *BalanceCache) Invalidate(appID string, userID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, cacheKey(appID, userID))
	c.mu.Unlock()
}
