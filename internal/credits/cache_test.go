package credits

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBalanceCache(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	cache := NewBalanceCache(60 * time.Second)
	cache.now = func() time.Time { return now }

	userID := uuid.New()
	snapshot := BalanceSnapshot{Counters: Counters{Limit: 100, Used: 30, Balance: 50}, Available: 120}

	t.Run("miss before set", func(t *testing.T) {
		_, ok := cache.Get("vibephoto", userID)
		assert.False(t, ok)
	})

	cache.Set("vibephoto", userID, snapshot)

	t.Run("hit within ttl", func(t *testing.T) {
		got, ok := cache.Get("vibephoto", userID)
		assert.True(t, ok)
		assert.Equal(t, snapshot, got)
	})

	t.Run("scoped per app", func(t *testing.T) {
		_, ok := cache.Get("retrobooth", userID)
		assert.False(t, ok)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		now = now.Add(61 * time.Second)
		_, ok := cache.Get("vibephoto", userID)
		assert.False(t, ok)
	})
}

func TestBalanceCacheInvalidate(t *testing.T) {
	cache := NewBalanceCache(time.Minute)
	userID := uuid.New()

	cache.Set("vibephoto", userID, BalanceSnapshot{Available: 10})
	cache.Invalidate("vibephoto", userID)

	_, ok := cache.Get("vibephoto", userID)
	assert.False(t, ok)
}
