package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := New(0)

	c.Set("k", "v", 0)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %v, %v", v, ok)
	}

	c.Set("k", "v2", 0)
	if v, _ := c.Get("k"); v != "v2" {
		t.Errorf("overwrite: got %v", v)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("key still present after Delete")
	}
}

func TestExpiry(t *testing.T) {
	c := New(0)
	c.Set("short", "v", time.Nanosecond)
	c.Set("forever", "v", 0)

	time.Sleep(1100 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry still served")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("entry without ttl was dropped")
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Get("a") // a becomes most recently used
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Error("lru entry b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry a was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry c missing")
	}
}

func TestConcurrentGetSet(t *testing.T) {
	c := New(8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Set("shared", fmt.Sprintf("v%d-%d", n, j), time.Minute)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if v, ok := c.Get("shared"); ok {
					if _, isString := v.(string); !isString {
						t.Error("torn read: non-string value")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	c.Set("k", "v", 0)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("nil cache returned a value")
	}
}

func TestKeyFromStringsStable(t *testing.T) {
	a := KeyFromStrings("user:1", "gemini", "halo")
	b := KeyFromStrings("user:1", "gemini", "halo")
	if a != b {
		t.Error("same parts must hash to the same key")
	}
	if a == KeyFromStrings("user:1", "gemini", "halo!") {
		t.Error("different parts collided")
	}
	// separator keeps part boundaries distinct
	if KeyFromStrings("ab", "c") == KeyFromStrings("a", "bc") {
		t.Error("part boundaries must be part of the key")
	}
}
