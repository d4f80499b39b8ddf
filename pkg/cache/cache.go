package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"time"
)

// Cache is an in-memory TTL cache with LRU eviction, safe for
// concurrent use. Construct one in main and pass it where needed.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*entry
	order    *list.List // MRU at front, LRU at back
	maxItems int        // 0 = unlimited
}

type entry struct {
	key  string
	v    any
	exp  int64 // unix seconds; 0 = no expiry
	elem *list.Element
}

// New creates a cache capped at maxItems (0 = unlimited) and starts a
// janitor that sweeps expired entries.
func New(maxItems int) *Cache {
	c := &Cache{items: make(map[string]*entry), order: list.New(), maxItems: maxItems}
	go c.janitor(60 * time.Second)
	return c
}

// Get returns the value if present and not expired. The entry fields
// are only touched under the lock; Set mutates them in place.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	now := time.Now().Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if e.exp != 0 && e.exp < now {
		c.removeNoLock(key)
		return nil, false
	}
	if e.elem != nil {
		c.order.MoveToFront(e.elem)
	}
	return e.v, true
}

// Set stores a value with TTL. ttl<=0 means no expiry.
func (c *Cache) Set(key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).Unix()
	}
	c.mu.Lock()
	if e, ok := c.items[key]; ok {
		e.v = v
		e.exp = exp
		if e.elem != nil {
			c.order.MoveToFront(e.elem)
		}
	} else {
		e := &entry{key: key, v: v, exp: exp}
		e.elem = c.order.PushFront(e)
		c.items[key] = e
		if c.maxItems > 0 && c.order.Len() > c.maxItems {
			c.evictLRUNoLock()
		}
	}
	c.mu.Unlock()
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.removeNoLock(key)
	c.mu.Unlock()
}

func (c *Cache) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		now := time.Now().Unix()
		c.mu.Lock()
		for k, e := range c.items {
			if e.exp != 0 && e.exp < now {
				c.removeNoLock(k)
			}
		}
		c.mu.Unlock()
	}
}

// KeyFromStrings creates a compact stable key from parts.
func KeyFromStrings(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p))
	}
	return string(h.Sum(nil))
}

// removeNoLock removes key from map/list; caller must hold c.mu.
func (c *Cache) removeNoLock(key string) {
	if e, ok := c.items[key]; ok {
		if e.elem != nil {
			c.order.Remove(e.elem)
		}
		delete(c.items, key)
	}
}

// evictLRUNoLock removes one LRU entry; caller must hold c.mu.
func (c *Cache) evictLRUNoLock() {
	back := c.order.Back()
	if back == nil {
		return
	}
	if e, ok := back.Value.(*entry); ok {
		c.order.Remove(back)
		delete(c.items, e.key)
	} else {
		c.order.Remove(back)
	}
}
