// Package cache provides a thread-safe LRU cache.
//
// mst uses it to keep parsed trees keyed by their source text, so that
// compiling the same text repeatedly skips the parser.
//
// # Example
//
//	c := cache.New[string, mst.Tree](1024)
//	t, err := c.GetOrCompute(src, func() (mst.Tree, error) { return mst.ParseString(src) })
package cache

import (
	"container/list"
	"sync"
)

// entry is a cache entry stored in the doubly-linked list.
type entry[K comparable, V any] struct {
	key K
	val V
}

// Cache is a thread-safe LRU (Least Recently Used) cache. Once the capacity is
// reached, the least recently accessed entry is evicted.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[K]*list.Element
}

// New creates a new LRU cache with the given capacity.
// If capacity <= 0, a default of 256 is used.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	el, ok := c.items[key]
	// Skip the write lock when the element is already at the front.
	alreadyFront := ok && c.ll.Front() == el
	var val V
	if ok {
		// Copy under the lock; Set replaces values in place.
		val = el.Value.(*entry[K, V]).val
	}
	c.mu.RUnlock()
	if !ok || alreadyFront {
		return val, ok
	}

	// Promote under the write lock; re-check in case of concurrent eviction.
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok = c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry[K, V]).val, true
}

// Set inserts or replaces a value. If at capacity, the least recently used
// entry is evicted first.
func (c *Cache[K, V]) Set(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).val = val
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	el := c.ll.PushFront(&entry[K, V]{key: key, val: val})
	c.items[key] = el
}

// GetOrCompute returns the value for key, or calls compute to create it,
// caches the result, and returns it. Errors are not cached.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Invalidate removes a single entry from the cache.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held for writing.
func (c *Cache[K, V]) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
