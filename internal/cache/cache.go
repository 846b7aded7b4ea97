// Package cache keeps recently computed allocations so repeated requests for
// the same election skip the quotient table.
package cache

import (
	"encoding/binary"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"

	"github.com/eugenenazirov/seat-allocator/internal/apportion"
)

// Cache is a bounded LRU of allocation results. A nil *Cache is valid and
// never stores anything.
type Cache struct {
	entries *lru.Cache[uint64, entry]
}

type entry struct {
	method apportion.Method
	seats  int
	votes  []int
	result apportion.Result
}

// New creates a cache holding up to size results. A size <= 0 disables
// caching and returns nil.
func New(size int) (*Cache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[uint64, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns a copy of the cached result for the request, if any.
// Quotients in the returned winners are shared and must not be modified.
func (c *Cache) Get(method apportion.Method, seats int, votes []int) (apportion.Result, bool) {
	if c == nil {
		return apportion.Result{}, false
	}
	e, ok := c.entries.Get(key(method, seats, votes))
	if !ok || e.method != method || e.seats != seats || !slices.Equal(e.votes, votes) {
		return apportion.Result{}, false
	}
	return cloneResult(e.result), true
}

// Add stores the result of a request.
func (c *Cache) Add(method apportion.Method, seats int, votes []int, result apportion.Result) {
	if c == nil {
		return
	}
	c.entries.Add(key(method, seats, votes), entry{
		method: method,
		seats:  seats,
		votes:  slices.Clone(votes),
		result: cloneResult(result),
	})
}

// Len reports the number of cached results.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func key(method apportion.Method, seats int, votes []int) uint64 {
	buf := make([]byte, 0, 8*(len(votes)+2))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(method))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(seats))
	for _, v := range votes {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
	}
	return xxh3.Hash(buf)
}

func cloneResult(r apportion.Result) apportion.Result {
	return apportion.Result{
		Method:  r.Method,
		Seats:   slices.Clone(r.Seats),
		Winners: slices.Clone(r.Winners),
	}
}
