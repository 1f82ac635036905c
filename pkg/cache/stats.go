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

// Package cache provides cache statistics, an expirable LRU wrapper and a
// manager that periodically logs the statistics of registered caches.
package cache

import (
	"sync/atomic"
)

// Stats holds cache statistics. The zero value is ready to use.
type Stats struct {
	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// RecordHit records a cache hit.
func (s *Stats) RecordHit() {
	s.hits.Add(1)
}

// RecordMiss records a cache miss.
func (s *Stats) RecordMiss() {
	s.misses.Add(1)
}

// RecordEviction records an entry removed to make room for another.
func (s *Stats) RecordEviction() {
	s.evictions.Add(1)
}

// RecordExpiration records an entry removed because its TTL passed.
func (s *Stats) RecordExpiration() {
	s.expirations.Add(1)
}

// Hits returns the number of cache hits.
func (s *Stats) Hits() int64 {
	return s.hits.Load()
}

// Misses returns the number of cache misses.
func (s *Stats) Misses() int64 {
	return s.misses.Load()
}

// Evictions returns the number of evicted entries.
func (s *Stats) Evictions() int64 {
	return s.evictions.Load()
}

// Expirations returns the number of expired entries.
func (s *Stats) Expirations() int64 {
	return s.expirations.Load()
}

// Total returns the total number of lookups.
func (s *Stats) Total() int64 {
	return s.Hits() + s.Misses()
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (s *Stats) HitRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits()) / float64(total) * 100.0
}

// Reset resets all statistics to zero.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.evictions.Store(0)
	s.expirations.Store(0)
}

// Snapshot is a point-in-time copy of Stats, suitable for JSON output.
type Snapshot struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	HitRate     float64 `json:"hit_rate"`
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Hits:        s.Hits(),
		Misses:      s.Misses(),
		Evictions:   s.Evictions(),
		Expirations: s.Expirations(),
		HitRate:     s.HitRate(),
	}
}
