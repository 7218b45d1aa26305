// Package cache holds recently read table contents so repeated reads inside
// the freshness window skip the store.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/roach88/docsql/internal/row"
)

// Defaults used when a TTLCache is built with zero values.
const (
	DefaultTTL  = 60 * time.Second
	DefaultSize = 256
)

// RowCache caches the full row set of a table, keyed by (project, table id).
//
// Cached rows are shared between readers and must be treated as read-only.
type RowCache interface {
	Get(project, tableID string) ([]*row.Row, bool)
	Put(project, tableID string, rows []*row.Row)
	Invalidate(project, tableID string)
}

// TTLCache is a size-bounded RowCache whose entries expire after a fixed TTL.
// Safe for concurrent use.
type TTLCache struct {
	lru *expirable.LRU[string, []*row.Row]
}

var _ RowCache = (*TTLCache)(nil)

// NewTTL returns a cache holding at most size tables for ttl each.
// Non-positive arguments fall back to DefaultSize and DefaultTTL.
func NewTTL(size int, ttl time.Duration) *TTLCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache{lru: expirable.NewLRU[string, []*row.Row](size, nil, ttl)}
}

// Get returns the cached rows of a table if they are still fresh.
// The returned slice is a copy; the rows themselves are shared.
func (c *TTLCache) Get(project, tableID string) ([]*row.Row, bool) {
	rows, ok := c.lru.Get(key(project, tableID))
	if !ok {
		return nil, false
	}
	out := make([]*row.Row, len(rows))
	copy(out, rows)
	return out, true
}

// Put stores the rows of a table, restarting its freshness window.
func (c *TTLCache) Put(project, tableID string, rows []*row.Row) {
	stored := make([]*row.Row, len(rows))
	copy(stored, rows)
	c.lru.Add(key(project, tableID), stored)
}

// Invalidate drops a table's entry.
func (c *TTLCache) Invalidate(project, tableID string) {
	c.lru.Remove(key(project, tableID))
}

// Len returns the number of cached tables, expired entries included until
// they are swept.
func (c *TTLCache) Len() int {
	return c.lru.Len()
}

// Nop is a RowCache that never holds anything.
type Nop struct{}

var _ RowCache = Nop{}

func (Nop) Get(string, string) ([]*row.Row, bool) { return nil, false }
func (Nop) Put(string, string, []*row.Row)        {}
func (Nop) Invalidate(string, string)             {}

func key(project, tableID string) string {
	return project + "\x00" + tableID
}
