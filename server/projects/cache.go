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

package projects

import (
	"container/list"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/pkg/cache"
	"github.com/backlogkit/backlog/server/logging"
)

// DefaultCacheName is the name the cache reports to the stats manager.
const DefaultCacheName = "project"

// Config bounds the project cache. Zero values mean "absent": entries never
// expire and the cache is unbounded.
type Config struct {
	TTL     time.Duration
	MaxSize int
}

// cacheEntry is never mutated after creation; a refresh replaces it.
type cacheEntry struct {
	project  *types.Project
	cachedAt time.Time
}

// CacheManager caches project metadata indexed by both ID and key.
//
// The two indexes and the recency list are guarded by separate locks so that
// readers of different keys do not contend. As a consequence an insert,
// eviction or expiry updates the indexes one after another, and a concurrent
// reader may briefly find an entry through one index but not the other. Such
// a reader sees a miss and falls back to fetching, which is harmless.
//
// Projects handed out by the cache are shared snapshots and must not be
// modified.
type CacheManager struct {
	name    string
	logger  logging.Logger
	metrics Metrics
	stats   *cache.Stats

	configMu sync.Mutex
	config   Config

	byIDMu sync.RWMutex
	byID   map[int64]*cacheEntry

	byKeyMu sync.RWMutex
	byKey   map[string]*cacheEntry

	// orderMu guards accessOrder and orderIndex. accessOrder holds project
	// IDs oldest first.
	orderMu     sync.Mutex
	accessOrder *list.List
	orderIndex  map[int64]*list.Element

	fetches singleflight.Group
}

// Option configures a CacheManager.
type Option func(*CacheManager)

// WithLogger sets the logger of the cache.
func WithLogger(logger logging.Logger) Option {
	return func(m *CacheManager) {
		m.logger = logger
	}
}

// WithName sets the name reported to the stats manager.
func WithName(name string) Option {
	return func(m *CacheManager) {
		m.name = name
	}
}

// WithMetrics sets the metrics the cache reports to.
func WithMetrics(metrics Metrics) Option {
	return func(m *CacheManager) {
		m.metrics = metrics
	}
}

// New creates a cache whose entries never expire and whose size is
// unbounded.
func New(opts ...Option) *CacheManager {
	return NewWithConfig(Config{}, opts...)
}

// NewWithConfig creates a cache bounded by the given config.
func NewWithConfig(config Config, opts ...Option) *CacheManager {
	m := &CacheManager{
		config:      config,
		name:        DefaultCacheName,
		stats:       &cache.Stats{},
		byID:        make(map[int64]*cacheEntry),
		byKey:       make(map[string]*cacheEntry),
		accessOrder: list.New(),
		orderIndex:  make(map[int64]*list.Element),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logging.New("project-cache")
	}
	if m.metrics == nil {
		m.metrics = nopMetrics{}
	}

	return m
}

// Config returns the configuration of the cache.
func (m *CacheManager) Config() Config {
	m.configMu.Lock()
	defer m.configMu.Unlock()

	return m.config
}

// CacheProject inserts or replaces the entry of the given project under both
// its ID and key. When the cache is full and the project is not cached yet,
// the least recently used entry is evicted first.
func (m *CacheManager) CacheProject(project *types.Project) {
	if project == nil {
		return
	}

	entry := &cacheEntry{
		project:  project.DeepCopy(),
		cachedAt: time.Now(),
	}
	id, key := entry.project.ID, entry.project.ProjectKey

	if maxSize := m.Config().MaxSize; maxSize > 0 && !m.containsID(id) && m.Size() >= maxSize {
		m.evictOldest()
	}

	m.byIDMu.Lock()
	prev := m.byID[id]
	m.byID[id] = entry
	m.byIDMu.Unlock()

	m.byKeyMu.Lock()
	if prev != nil && prev.project.ProjectKey != key && m.byKey[prev.project.ProjectKey] == prev {
		delete(m.byKey, prev.project.ProjectKey)
	}
	m.byKey[key] = entry
	m.byKeyMu.Unlock()

	m.pushOrder(id)
}

// GetFromCacheByID returns the cached project with the given ID. It never
// fetches. Expired entries are purged and reported as absent.
func (m *CacheManager) GetFromCacheByID(id int64) (*types.Project, bool) {
	m.byIDMu.RLock()
	entry, ok := m.byID[id]
	m.byIDMu.RUnlock()

	return m.hit(entry, ok)
}

// GetFromCacheByKey returns the cached project with the given key. It never
// fetches. Expired entries are purged and reported as absent.
func (m *CacheManager) GetFromCacheByKey(key string) (*types.Project, bool) {
	m.byKeyMu.RLock()
	entry, ok := m.byKey[key]
	m.byKeyMu.RUnlock()

	return m.hit(entry, ok)
}

// GetByID returns the project with the given ID from the cache, fetching and
// caching it on a miss. Fetch errors are returned unchanged.
func (m *CacheManager) GetByID(ctx context.Context, id int64, fetcher Fetcher) (*types.Project, error) {
	if project, ok := m.GetFromCacheByID(id); ok {
		return project, nil
	}

	return m.fetch(ctx, "id:"+strconv.FormatInt(id, 10), types.NewID(id), fetcher)
}

// GetByKey returns the project with the given key from the cache, fetching
// and caching it on a miss. Fetch errors are returned unchanged.
func (m *CacheManager) GetByKey(ctx context.Context, key string, fetcher Fetcher) (*types.Project, error) {
	if project, ok := m.GetFromCacheByKey(key); ok {
		return project, nil
	}

	return m.fetch(ctx, "key:"+key, types.NewKey(key), fetcher)
}

// Resolve returns the referenced project. A reference carrying both an ID
// and a key is resolved by ID.
func (m *CacheManager) Resolve(ctx context.Context, ref types.IDOrKey, fetcher Fetcher) (*types.Project, error) {
	if id, ok := ref.ID(); ok {
		return m.GetByID(ctx, id, fetcher)
	}
	if key, ok := ref.Key(); ok {
		return m.GetByKey(ctx, key, fetcher)
	}

	return nil, fmt.Errorf("resolve project: %w", types.ErrInvalidIDOrKey)
}

// Clear drops all entries.
func (m *CacheManager) Clear() {
	m.byIDMu.Lock()
	m.byID = make(map[int64]*cacheEntry)
	m.byIDMu.Unlock()

	m.byKeyMu.Lock()
	m.byKey = make(map[string]*cacheEntry)
	m.byKeyMu.Unlock()

	m.orderMu.Lock()
	m.accessOrder.Init()
	m.orderIndex = make(map[int64]*list.Element)
	m.orderMu.Unlock()
}

// Size returns the number of cached projects.
func (m *CacheManager) Size() int {
	m.byIDMu.RLock()
	defer m.byIDMu.RUnlock()

	return len(m.byID)
}

// Len is an alias of Size for the stats manager.
func (m *CacheManager) Len() int {
	return m.Size()
}

// Name returns the cache name.
func (m *CacheManager) Name() string {
	return m.name
}

// Stats returns the cache statistics.
func (m *CacheManager) Stats() *cache.Stats {
	return m.stats
}

// fetch collapses concurrent misses of the same reference into one call.
// The context of the first caller is used for the shared call.
func (m *CacheManager) fetch(
	ctx context.Context,
	flightKey string,
	ref types.IDOrKey,
	fetcher Fetcher,
) (*types.Project, error) {
	v, err, _ := m.fetches.Do(flightKey, func() (any, error) {
		project, err := fetcher.GetProject(ctx, ref)
		if err != nil {
			m.logger.Warnf("fetch project %s: %v", ref, err)
			return nil, err
		}

		m.CacheProject(project)
		return project, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*types.Project), nil
}

func (m *CacheManager) hit(entry *cacheEntry, ok bool) (*types.Project, bool) {
	if !ok {
		m.recordMiss()
		return nil, false
	}

	if m.isExpired(entry) {
		m.expire(entry)
		m.recordMiss()
		return nil, false
	}

	m.touchOrder(entry.project.ID)
	m.stats.RecordHit()
	m.metrics.AddProjectCacheHit()
	return entry.project, true
}

func (m *CacheManager) recordMiss() {
	m.stats.RecordMiss()
	m.metrics.AddProjectCacheMiss()
}

func (m *CacheManager) isExpired(entry *cacheEntry) bool {
	ttl := m.Config().TTL
	return ttl > 0 && time.Since(entry.cachedAt) > ttl
}

func (m *CacheManager) containsID(id int64) bool {
	m.byIDMu.RLock()
	defer m.byIDMu.RUnlock()

	_, ok := m.byID[id]
	return ok
}

// expire purges the given entry unless it was already replaced.
func (m *CacheManager) expire(entry *cacheEntry) {
	id := entry.project.ID

	m.byIDMu.Lock()
	current := m.byID[id] == entry
	if current {
		delete(m.byID, id)
	}
	m.byIDMu.Unlock()

	m.byKeyMu.Lock()
	if m.byKey[entry.project.ProjectKey] == entry {
		delete(m.byKey, entry.project.ProjectKey)
	}
	m.byKeyMu.Unlock()

	if !current {
		return
	}

	m.removeOrder(id)
	m.stats.RecordExpiration()
	m.metrics.AddProjectCacheExpiration()
	m.logger.Debugf("expire project %d(%s)", id, entry.project.ProjectKey)
}

// evictOldest evicts the head of the recency list.
func (m *CacheManager) evictOldest() {
	m.orderMu.Lock()
	front := m.accessOrder.Front()
	if front == nil {
		m.orderMu.Unlock()
		return
	}
	id := m.accessOrder.Remove(front).(int64)
	delete(m.orderIndex, id)
	m.orderMu.Unlock()

	m.byIDMu.Lock()
	entry := m.byID[id]
	delete(m.byID, id)
	m.byIDMu.Unlock()

	if entry == nil {
		return
	}

	m.byKeyMu.Lock()
	if m.byKey[entry.project.ProjectKey] == entry {
		delete(m.byKey, entry.project.ProjectKey)
	}
	m.byKeyMu.Unlock()

	m.stats.RecordEviction()
	m.metrics.AddProjectCacheEviction()
	m.logger.Debugf("evict project %d(%s)", id, entry.project.ProjectKey)
}

// pushOrder moves id to the tail of the recency list, appending it if absent.
func (m *CacheManager) pushOrder(id int64) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if el, ok := m.orderIndex[id]; ok {
		m.accessOrder.MoveToBack(el)
		return
	}
	m.orderIndex[id] = m.accessOrder.PushBack(id)
}

// touchOrder moves id to the tail of the recency list if it is present.
func (m *CacheManager) touchOrder(id int64) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if el, ok := m.orderIndex[id]; ok {
		m.accessOrder.MoveToBack(el)
	}
}

func (m *CacheManager) removeOrder(id int64) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if el, ok := m.orderIndex[id]; ok {
		m.accessOrder.Remove(el)
		delete(m.orderIndex, id)
	}
}
