package cache

import (
	"testing"
	"time"

	"aidesk/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestGetMissingKey(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get(Key("org-1", "pool hours"))
	assert.False(t, ok)
}

func TestSetAndGet(t *testing.T) {
	c := New(time.Minute)
	key := Key("org-1", "pool hours")

	response := models.RagResponse{Response: "<p>8am</p>", Confidence: 90, References: []string{"doc1_0"}}
	c.Set(key, response)

	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, response, got)
}

func TestExpiredEntryIsEvicted(t *testing.T) {
	c := New(10 * time.Millisecond)
	key := Key("org-1", "pool hours")

	c.Set(key, models.RagResponse{Response: "<p>8am</p>", Confidence: 90})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	c := New(time.Minute)
	key := Key("org-1", "pool hours")

	c.Set(key, models.RagResponse{Response: "<p>8am</p>"})
	c.Clear()

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestKeyIsOrgScoped(t *testing.T) {
	assert.NotEqual(t, Key("org-1", "pool hours"), Key("org-2", "pool hours"))
	assert.NotEqual(t, Key("org-1", "pool hours"), Key("org-1", "gym hours"))
	assert.Equal(t, Key("org-1", "pool hours"), Key("org-1", "pool hours"))
}

func TestKeyAmbiguityResistance(t *testing.T) {
	// The separator keeps (org, query) pairs with identical
	// concatenations apart.
	assert.NotEqual(t, Key("org", "1query"), Key("org1", "query"))
}
