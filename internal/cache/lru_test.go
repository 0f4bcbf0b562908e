package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestLRU_BasicGetPut(t *testing.T) {
	c := NewLRU[string](3, 0, nil)

	c.Put("a", "A")
	c.Put("b", "B")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](2, 0, nil)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_AccessPromotesEntry(t *testing.T) {
	c := NewLRU[int](2, 0, nil)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3) // evicts "b", the least recently used

	_, ok := c.Get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := NewLRU[string](2, 0, nil)

	c.Put("a", "A1")
	c.Put("a", "A2")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewLRU[string](10, 10*time.Minute, clock)

	c.Put("a", "A")

	clock.Advance(9*time.Minute + 59*time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok, "entry should still be fresh")

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry should expire at the ttl")
	assert.Zero(t, c.Len(), "expired entry should be removed on read")
}

func TestLRU_PutRestartsTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewLRU[string](10, time.Minute, clock)

	c.Put("a", "A1")
	clock.Advance(50 * time.Second)
	c.Put("a", "A2")
	clock.Advance(50 * time.Second)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
}
