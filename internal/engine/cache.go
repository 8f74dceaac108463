package engine

import "github.com/mesh-intelligence/rowset/pkg/types"

type cacheKey struct {
	entity string
	depth  int
}

// cacheEntry remembers the depth a snapshot was populated at, which under
// CacheShared can differ from its key.
type cacheEntry struct {
	depth int
	recs  []types.Record
}

// Cache holds complete record snapshots per entity. An entry is either
// absent or a full snapshot of the entity as of the last read; writes drop
// every entry of the written entity.
type Cache struct {
	policy  types.CachePolicy
	entries map[cacheKey]cacheEntry
}

// NewCache returns an empty cache keyed according to policy.
func NewCache(policy types.CachePolicy) *Cache {
	return &Cache{policy: policy, entries: make(map[cacheKey]cacheEntry)}
}

func (c *Cache) key(entity string, depth int) cacheKey {
	if c.policy == types.CacheShared {
		depth = 0
	}
	return cacheKey{entity: entity, depth: depth}
}

// Get returns the snapshot cached for entity at depth.
func (c *Cache) Get(entity string, depth int) ([]types.Record, bool) {
	e, ok := c.entries[c.key(entity, depth)]
	return e.recs, ok
}

// Put stores a snapshot.
func (c *Cache) Put(entity string, depth int, recs []types.Record) {
	c.entries[c.key(entity, depth)] = cacheEntry{depth: depth, recs: recs}
}

// Invalidate drops every snapshot of entity.
func (c *Cache) Invalidate(entity string) {
	for k := range c.entries {
		if k.entity == entity {
			delete(c.entries, k)
		}
	}
}

// InvalidatePopulated drops the snapshots of entity that carry relation
// attachments. Depth-0 snapshots hold only the entity's own rows and stay.
func (c *Cache) InvalidatePopulated(entity string) {
	for k, e := range c.entries {
		if k.entity == entity && e.depth > 0 {
			delete(c.entries, k)
		}
	}
}

// Clear drops every snapshot.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Len returns the number of cached snapshots.
func (c *Cache) Len() int {
	return len(c.entries)
}
