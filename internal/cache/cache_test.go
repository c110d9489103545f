package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	c := New[string, int](0)
	defer c.Close()
	c.now = func() time.Time { return now }

	c.Set(ctx, "gas", 30, time.Minute)
	c.Set(ctx, "decimals", 18, 0)

	v, ok := c.Get(ctx, "gas")
	assert.True(t, ok)
	assert.Equal(t, 30, v)

	now = now.Add(2 * time.Minute)

	_, ok = c.Get(ctx, "gas")
	assert.False(t, ok, "entry past its ttl must miss")

	v, ok = c.Get(ctx, "decimals")
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, 18, v)

	c.deleteExpired()
	assert.Equal(t, 1, c.Len())
}

func TestCache_DeleteAndClose(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](time.Millisecond)

	c.Set(ctx, "symbol", "TKA", time.Hour)
	c.Delete(ctx, "symbol")
	_, ok := c.Get(ctx, "symbol")
	assert.False(t, ok)

	c.Close()
	c.Close() // idempotent
}
