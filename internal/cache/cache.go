// Package cache holds per-owner list results between mutations. It is a
// read-through convenience only: targeted lookups and every authorization
// decision go to the store, never to the cache.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxOwners bounds the number of cached lists; least recently used owners
// are evicted first.
const maxOwners = 1024

// Lists caches one collection's list results keyed by owner ID. Each owner
// carries a generation counter bumped on Invalidate, so a refill that read
// the store before a concurrent mutation cannot store its stale result.
type Lists[T any] struct {
	entries *lru.Cache[string, []T]

	mu   sync.Mutex
	gens map[string]uint64
}

// NewLists creates an empty cache.
func NewLists[T any]() *Lists[T] {
	entries, err := lru.New[string, []T](maxOwners)
	if err != nil {
		panic(err)
	}
	return &Lists[T]{entries: entries, gens: make(map[string]uint64)}
}

// Get returns the cached list for the owner, if present.
func (c *Lists[T]) Get(ownerID string) ([]T, bool) {
	return c.entries.Get(ownerID)
}

// Generation returns the owner's current generation. Take it before reading
// the store and pass it to Set.
func (c *Lists[T]) Generation(ownerID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[ownerID]
}

// Set stores the owner's list, unless the owner was invalidated after gen
// was taken. In that case the list read an older state and is dropped.
func (c *Lists[T]) Set(ownerID string, gen uint64, items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[ownerID] != gen {
		return
	}
	c.entries.Add(ownerID, items)
}

// Invalidate drops the owner's cached list and bumps its generation. Must be
// called after every successful mutation of the collection.
func (c *Lists[T]) Invalidate(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[ownerID]++
	c.entries.Remove(ownerID)
}
