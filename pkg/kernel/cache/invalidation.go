// Package cache provides the record-invalidation side channel the
// write-transaction engine dispatches to whenever a staged node or
// relationship record moves to !InUse or is otherwise mutated.
//
// The engine never reads through this cache — it is a notification
// sink for whatever higher layer (pkg/storage, Cypher planning, …)
// keeps its own materialized copies warm. NornicDB already leans on
// ristretto (pulled in transitively via badger) for its hot-path
// caches, so the invalidation cache reuses it rather than hand-rolling
// another LRU.
package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// EntityKind distinguishes the two primitive kinds the kernel
// invalidates records for.
type EntityKind uint8

const (
	KindNode EntityKind = iota
	KindRelationship
)

func (k EntityKind) String() string {
	if k == KindNode {
		return "node"
	}
	return "relationship"
}

// InvalidationCache tracks cached record keys so the write-transaction
// engine can evict them on mutation without knowing anything about
// what higher layer populated the cache.
type InvalidationCache struct {
	store *ristretto.Cache[string, struct{}]
}

// New builds an InvalidationCache sized for up to maxEntries hot keys.
func New(maxEntries int64) (*InvalidationCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("kernel/cache: %w", err)
	}
	return &InvalidationCache{store: c}, nil
}

func key(kind EntityKind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// Touch records that an entity's record is cached by some higher
// layer. Called by callers that materialize a node/relationship, not
// by the engine itself.
func (c *InvalidationCache) Touch(kind EntityKind, id int64) {
	c.store.Set(key(kind, id), struct{}{}, 1)
}

// Invalidate evicts an entity's cached record. The write-transaction
// engine calls this for every node and relationship whose staged
// record moved to !InUse during prepare, and for both endpoints of a
// deleted relationship during commit/recovery.
func (c *InvalidationCache) Invalidate(kind EntityKind, id int64) {
	c.store.Del(key(kind, id))
}

// Cached reports whether an entity is currently tracked as cached.
// Exposed mainly for tests asserting invalidation actually happened.
func (c *InvalidationCache) Cached(kind EntityKind, id int64) bool {
	_, ok := c.store.Get(key(kind, id))
	return ok
}

// Close releases the underlying ristretto cache's background goroutines.
func (c *InvalidationCache) Close() {
	c.store.Close()
}

// Invalidator is the minimal interface pkg/kernel/txn depends on, so
// tests can substitute a trivial recording fake instead of standing up
// a full ristretto cache.
type Invalidator interface {
	Invalidate(kind EntityKind, id int64)
}
