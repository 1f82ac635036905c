/*
 * Copyright 2026 The Backlogkit Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrInvalidMaxSize is returned for a cache size below one.
var ErrInvalidMaxSize = errors.New("max size must be > 0")

// entry remembers when a value expires so the removal callback can tell
// expirations, capacity evictions and explicit removals apart.
type entry[V any] struct {
	value     V
	expiresAt time.Time
	removed   atomic.Bool
}

// TTLCache is a size bounded LRU whose entries also expire after a TTL. It
// records hits, misses, evictions and expirations in Stats; explicit
// removals are not counted.
type TTLCache[K comparable, V any] struct {
	name  string
	ttl   time.Duration
	lru   *expirable.LRU[K, *entry[V]]
	stats *Stats
	now   func() time.Time
}

// NewTTLCache creates a TTLCache holding at most size entries for ttl each.
// onRemove, if not nil, is called for every entry that leaves the cache for
// any reason.
func NewTTLCache[K comparable, V any](
	name string,
	size int,
	ttl time.Duration,
	onRemove func(K, V),
) (*TTLCache[K, V], error) {
	if size <= 0 {
		return nil, ErrInvalidMaxSize
	}

	c := &TTLCache[K, V]{
		name:  name,
		ttl:   ttl,
		stats: &Stats{},
		now:   time.Now,
	}
	c.lru = expirable.NewLRU[K, *entry[V]](size, func(key K, e *entry[V]) {
		switch {
		case e.removed.Load():
		case c.ttl > 0 && !c.now().Before(e.expiresAt):
			c.stats.RecordExpiration()
		default:
			c.stats.RecordEviction()
		}
		if onRemove != nil {
			onRemove(key, e.value)
		}
	}, ttl)
	return c, nil
}

// Get returns the value for key and records a hit or a miss.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		c.stats.RecordMiss()
		var zero V
		return zero, false
	}
	c.stats.RecordHit()
	return e.value, true
}

// Add stores value under key, restarting its TTL. It reports whether an
// older entry was evicted to make room.
func (c *TTLCache[K, V]) Add(key K, value V) bool {
	if old, ok := c.lru.Peek(key); ok {
		old.removed.Store(true)
	}
	return c.lru.Add(key, &entry[V]{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Remove drops key. It reports whether the key was present.
func (c *TTLCache[K, V]) Remove(key K) bool {
	if e, ok := c.lru.Peek(key); ok {
		e.removed.Store(true)
	}
	return c.lru.Remove(key)
}

// Purge drops every entry.
func (c *TTLCache[K, V]) Purge() {
	for _, e := range c.lru.Values() {
		e.removed.Store(true)
	}
	c.lru.Purge()
}

// Len returns the number of entries, including expired ones not yet
// collected.
func (c *TTLCache[K, V]) Len() int {
	return c.lru.Len()
}

// Stats returns the live statistics.
func (c *TTLCache[K, V]) Stats() *Stats {
	return c.stats
}

// Name returns the name used in cache reports.
func (c *TTLCache[K, V]) Name() string {
	return c.name
}
