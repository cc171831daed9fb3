// Package cache holds short-lived generated responses so repeated
// identical queries skip the model round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"aidesk/internal/models"
)

type item struct {
	response  models.RagResponse
	expiresAt time.Time
}

// ResponseCache is an in-memory TTL cache keyed by (orgId, query)
type ResponseCache struct {
	items map[string]item
	mutex sync.RWMutex
	ttl   time.Duration
}

// New creates a response cache with the given entry TTL
func New(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		items: make(map[string]item),
		ttl:   ttl,
	}
}

// Key derives the cache key for an org-scoped query
func Key(orgID, query string) string {
	sum := sha256.Sum256([]byte(orgID + "\x00" + query))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a cached response if present and not expired
func (c *ResponseCache) Get(key string) (models.RagResponse, bool) {
	c.mutex.RLock()
	it, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists {
		return models.RagResponse{}, false
	}
	if time.Now().After(it.expiresAt) {
		c.mutex.Lock()
		delete(c.items, key)
		c.mutex.Unlock()
		return models.RagResponse{}, false
	}

	return it.response, true
}

// Set stores a response under key
func (c *ResponseCache) Set(key string, response models.RagResponse) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = item{
		response:  response,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all cached responses
func (c *ResponseCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]item)
}
