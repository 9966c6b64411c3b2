package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSharedClientSingleton(t *testing.T) {
	assert.Same(t, GetSharedClient(), GetSharedClient())
	assert.Same(t, GetProxyClient(), GetProxyClient())
	assert.NotSame(t, GetSharedClient(), GetProxyClient())
}

func TestProxyClientHasNoOverallTimeout(t *testing.T) {
	assert.Zero(t, GetProxyClient().Timeout)
	assert.NotZero(t, GetSharedClient().Timeout)
}

func TestResponseCacheRoundTrip(t *testing.T) {
	cache := NewResponseCache(time.Minute, 4)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("key", []byte("value"))
	data, ok := cache.Get("key")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), data)
}

func TestResponseCacheExpiry(t *testing.T) {
	cache := NewResponseCache(10*time.Millisecond, 4)
	cache.Set("key", []byte("value"))

	time.Sleep(25 * time.Millisecond)
	_, ok := cache.Get("key")
	assert.False(t, ok)
}

func TestResponseCacheEvictsOldest(t *testing.T) {
	cache := NewResponseCache(time.Minute, 2)

	cache.Set("first", []byte("1"))
	time.Sleep(2 * time.Millisecond)
	cache.Set("second", []byte("2"))
	time.Sleep(2 * time.Millisecond)
	cache.Set("third", []byte("3"))

	_, ok := cache.Get("first")
	assert.False(t, ok)
	_, ok = cache.Get("second")
	assert.True(t, ok)
	_, ok = cache.Get("third")
	assert.True(t, ok)
}
