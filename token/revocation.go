package token

import (
	"sync"
	"time"
)

// RevokedCache remembers token IDs that were logged out before they expired.
type RevokedCache interface {
	Add(jti string, exp time.Time)
	IsRevoked(jti string) bool
	Cleanup(now time.Time) int
}

// InMemoryRevokedCache is a RevokedCache guarded by a RWMutex.
type InMemoryRevokedCache struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

func NewInMemoryRevokedCache() *InMemoryRevokedCache {
	return &InMemoryRevokedCache{
		revoked: make(map[string]time.Time),
	}
}

func (c *InMemoryRevokedCache) Add(jti string, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
}

func (c *InMemoryRevokedCache) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

// Cleanup drops entries whose token has expired anyway and reports how many
// were removed.
func (c *InMemoryRevokedCache) Cleanup(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
			removed++
		}
	}
	return removed
}
