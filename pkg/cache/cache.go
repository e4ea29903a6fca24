// Package cache keeps the highlight sets of recently scanned documents.
package cache

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"example.com/regexhighlight/pkg/highlight"
)

// Event is reported to an observer for every lookup and eviction.
type Event int

const (
	Hit Event = iota
	Miss
	Evict
)

func (e Event) String() string {
	switch e {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return "evict"
	}
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver calls fn on every hit, miss and capacity eviction.
func WithObserver(fn func(Event)) Option {
	return func(c *Cache) { c.observe = fn }
}

// Cache maps document keys to highlight sets in insertion order. When a new
// key pushes it past capacity the oldest entries are dropped. Lookups never
// change the order. A capacity <= 0 stores nothing.
//
// Cache is not safe for concurrent use.
type Cache struct {
	capacity int
	entries  *orderedmap.OrderedMap[string, *highlight.Set]
	observe  func(Event)
}

// New returns an empty cache holding at most capacity entries.
func New(capacity int, opts ...Option) *Cache {
	c := &Cache{
		capacity: capacity,
		entries:  orderedmap.New[string, *highlight.Set](),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) event(e Event) {
	if c.observe != nil {
		c.observe(e)
	}
}

// Capacity returns the configured capacity.
func (c *Cache) Capacity() int { return c.capacity }

// Len returns the number of stored entries.
func (c *Cache) Len() int { return c.entries.Len() }

// Get returns the set stored for key.
func (c *Cache) Get(key string) (*highlight.Set, bool) {
	set, ok := c.entries.Get(key)
	if ok {
		c.event(Hit)
	} else {
		c.event(Miss)
	}
	return set, ok
}

// Put stores set under key. An existing key keeps its position.
func (c *Cache) Put(key string, set *highlight.Set) {
	if c.capacity <= 0 {
		return
	}
	c.entries.Set(key, set)
	for c.entries.Len() > c.capacity {
		oldest := c.entries.Oldest()
		if oldest == nil {
			break
		}
		c.entries.Delete(oldest.Key)
		c.event(Evict)
	}
}

// Evict removes key and reports whether it was present.
func (c *Cache) Evict(key string) bool {
	_, ok := c.entries.Delete(key)
	return ok
}

// Keys returns the stored keys, oldest first.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.entries.Len())
	for p := c.entries.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries = orderedmap.New[string, *highlight.Set]()
}
