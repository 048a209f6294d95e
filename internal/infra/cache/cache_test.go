package cache_test

import (
	"testing"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Touch(t *testing.T) {
	c := cache.New[string](100 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(60 * time.Millisecond)
	if !c.Touch("key1") {
		t.Fatal("expected touch to succeed on live entry")
	}
	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected touched entry to survive past original TTL")
	}
	if c.Touch("nonexistent") {
		t.Error("expected touch to fail for missing key")
	}
}

func TestCache_DeleteCallsEvictHook(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	var evictedKey, evictedVal string
	c.OnEvict(func(k, v string) {
		evictedKey, evictedVal = k, v
	})

	c.Set("key1", "value1")
	c.Delete("key1")

	if _, ok := c.Get("key1"); ok {
		t.Fatal("expected key to be deleted")
	}
	if evictedKey != "key1" || evictedVal != "value1" {
		t.Errorf("eviction hook not called: key=%q val=%q", evictedKey, evictedVal)
	}
}

func TestCache_ExpiryCallsEvictHook(t *testing.T) {
	c := cache.New[string](30 * time.Millisecond)

	evicted := make(chan string, 1)
	c.OnEvict(func(k, _ string) { evicted <- k })

	c.Set("key1", "value1")

	select {
	case k := <-evicted:
		if k != "key1" {
			t.Errorf("expected eviction of 'key1', got %q", k)
		}
	case <-time.After(time.Second):
		t.Fatal("eviction hook never fired for expired entry")
	}
}
