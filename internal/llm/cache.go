package llm

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/parthgeek/tally/internal/model"
)

// cacheEntry represents a cached model classification.
type cacheEntry struct {
	expiry  time.Time
	outcome model.Outcome
}

// outcomeCache provides thread-safe short-lived caching of model outcomes so
// repeated feed entries for the same merchant don't burn quota.
type outcomeCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newOutcomeCache creates a new cache with the specified TTL.
func newOutcomeCache(ttl time.Duration) *outcomeCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &outcomeCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// cacheKey identifies a transaction by the fields the prompt is built from.
func cacheKey(txn model.Transaction, industry string) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%s",
		txn.MerchantName, txn.Description, txn.MCC, txn.AmountCents, industry)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}

func (c *outcomeCache) get(key string) (model.Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return model.Outcome{}, false
	}
	return entry.outcome, true
}

func (c *outcomeCache) set(key string, outcome model.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		outcome: outcome,
		expiry:  time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *outcomeCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (c *outcomeCache) Close() {
	close(c.stopCh)
}
