// Package cache provides in-process lookaside caches for secondary ports.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/feecc/internal/ports/secondary"
)

// EmployeeCache is a size-bounded, TTL-expiring employee cache.
// It is safe for concurrent use.
type EmployeeCache struct {
	lru *expirable.LRU[string, secondary.EmployeeRecord]
}

// NewEmployeeCache creates a cache holding at most size entries for ttl each.
func NewEmployeeCache(size int, ttl time.Duration) *EmployeeCache {
	return &EmployeeCache{lru: expirable.NewLRU[string, secondary.EmployeeRecord](size, nil, ttl)}
}

// Get returns a copy of the cached employee.
func (c *EmployeeCache) Get(namespace, hash string) (*secondary.EmployeeRecord, bool) {
	e, ok := c.lru.Get(key(namespace, hash))
	if !ok {
		return nil, false
	}
	return &e, true
}

// Put stores a copy of employee.
func (c *EmployeeCache) Put(namespace, hash string, employee *secondary.EmployeeRecord) {
	if employee == nil {
		return
	}
	c.lru.Add(key(namespace, hash), *employee)
}

// Remove evicts an entry. Removing an absent entry is a no-op.
func (c *EmployeeCache) Remove(namespace, hash string) {
	c.lru.Remove(key(namespace, hash))
}

// Len returns the number of live entries.
func (c *EmployeeCache) Len() int {
	return c.lru.Len()
}

func key(namespace, hash string) string {
	return namespace + "\x00" + hash
}

var _ secondary.EmployeeCache = (*EmployeeCache)(nil)
