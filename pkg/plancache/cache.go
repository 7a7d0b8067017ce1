// Package plancache memoizes compiled Plans by their cache key (§4.4.3).
// It is an LRU of configurable capacity; a lookup that misses does not
// block on the loader slot for any other key, but two lookups racing on
// the same key share one compilation via a per-key exclusive loader, in
// the spirit of this: https://pkg.go.dev/container/list — the standard
// library already has the doubly linked list an LRU needs, nothing in
// the example pack brought a dedicated LRU dependency so this is built
// on container/list directly.
package plancache

import (
	"container/list"
	"sync"

	"github.com/pygraphkit/graphtik/pkg/plan"
)

// Loader compiles the Plan for key when it is not already cached. It is
// invoked at most once per key even under concurrent Get calls for that
// key (the "exclusive loader" design note, §9).
type Loader func() (*plan.Plan, error)

type entry struct {
	key  string
	once sync.Mutex

	populated bool
	value     *plan.Plan
	err       error

	elem *list.Element
}

// Cache is a size-bounded LRU of compiled plans, safe for concurrent
// use. The zero value is not usable; construct with New.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	order    *list.List // front = most recently used
}

// New returns an empty cache holding at most capacity plans. A
// non-positive capacity means unbounded.
func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*entry),
		order:    list.New(),
	}
}

// Get returns the cached plan for key, compiling it via load if absent.
// Concurrent Get calls for the same key block on the same compilation;
// Get calls for distinct keys never contend with each other.
func (c *Cache) Get(key string, load Loader) (*plan.Plan, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key}
		c.entries[key] = e
		e.elem = c.order.PushFront(key)
	} else {
		c.order.MoveToFront(e.elem)
	}
	c.mu.Unlock()

	e.once.Lock()
	defer e.once.Unlock()
	if !e.populated {
		e.value, e.err = load()
		e.populated = true
	}

	if e.err == nil {
		c.evictIfOverCapacity()
	}
	return e.value, e.err
}

// Invalidate drops key from the cache, forcing the next Get to recompile.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.order.Remove(e.elem)
	delete(c.entries, key)
}

// Len reports how many plans are currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictIfOverCapacity() {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		key := oldest.Value.(string)
		c.order.Remove(oldest)
		delete(c.entries, key)
	}
}
