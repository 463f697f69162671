package token

import (
	"sync"
	"time"
)

// RevokedTokenCache tracks token ids that must be rejected until they expire
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	Cleanup() int // Remove expired entries, returning how many were dropped
	Len() int
}

// InMemoryRevokedTokenCache is a simple in-memory implementation
type InMemoryRevokedTokenCache struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	nowTime func() time.Time
}

// RevocationOption configures an InMemoryRevokedTokenCache
type RevocationOption func(*InMemoryRevokedTokenCache)

// WithRevocationNowTime sets the now time function (primarily for testing)
func WithRevocationNowTime(nowFunc func() time.Time) RevocationOption {
	return func(c *InMemoryRevokedTokenCache) {
		c.nowTime = nowFunc
	}
}

func NewInMemoryRevokedTokenCache(opts ...RevocationOption) *InMemoryRevokedTokenCache {
	c := &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	if jti == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

func (c *InMemoryRevokedTokenCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowTime()
	removed := 0
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
			removed++
		}
	}
	return removed
}

func (c *InMemoryRevokedTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.revoked)
}
