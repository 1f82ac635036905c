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

package projects_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/server/projects"
)

type fakeFetcher struct {
	projects []*types.Project
	err      error
	gate     chan struct{}
	calls    atomic.Int32
}

func (f *fakeFetcher) GetProject(_ context.Context, ref types.IDOrKey) (*types.Project, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}

	for _, p := range f.projects {
		if id, ok := ref.ID(); ok && p.ID == id {
			return p, nil
		}
		if key, ok := ref.Key(); ok && p.ProjectKey == key {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project %s: not found", ref)
}

type countingMetrics struct {
	hits, misses, evictions, expirations atomic.Int32
}

func (m *countingMetrics) AddProjectCacheHit()        { m.hits.Add(1) }
func (m *countingMetrics) AddProjectCacheMiss()       { m.misses.Add(1) }
func (m *countingMetrics) AddProjectCacheEviction()   { m.evictions.Add(1) }
func (m *countingMetrics) AddProjectCacheExpiration() { m.expirations.Add(1) }

func project(id int64, key string) *types.Project {
	return &types.Project{ID: id, ProjectKey: key, Name: key + " project"}
}

func TestCacheManager(t *testing.T) {
	t.Run("bidirectional consistency test", func(t *testing.T) {
		cache := projects.New()
		cache.CacheProject(project(123, "TEST_PROJECT"))

		byID, ok := cache.GetFromCacheByID(123)
		require.True(t, ok)
		assert.Equal(t, "TEST_PROJECT", byID.ProjectKey)

		byKey, ok := cache.GetFromCacheByKey("TEST_PROJECT")
		require.True(t, ok)
		assert.Equal(t, int64(123), byKey.ID)
		assert.Same(t, byID, byKey)
		assert.Equal(t, 1, cache.Size())
	})

	t.Run("cached project is a snapshot test", func(t *testing.T) {
		cache := projects.New()
		p := project(1, "A")
		cache.CacheProject(p)
		p.Name = "changed"

		cached, ok := cache.GetFromCacheByID(1)
		require.True(t, ok)
		assert.Equal(t, "A project", cached.Name)
	})

	t.Run("nil project is ignored test", func(t *testing.T) {
		cache := projects.New()
		cache.CacheProject(nil)
		assert.Equal(t, 0, cache.Size())
	})

	t.Run("ttl expiry test", func(t *testing.T) {
		metrics := &countingMetrics{}
		cache := projects.NewWithConfig(
			projects.Config{TTL: 100 * time.Millisecond},
			projects.WithMetrics(metrics),
		)
		cache.CacheProject(project(1, "TTL"))

		_, ok := cache.GetFromCacheByID(1)
		assert.True(t, ok)

		time.Sleep(150 * time.Millisecond)

		_, ok = cache.GetFromCacheByID(1)
		assert.False(t, ok)
		_, ok = cache.GetFromCacheByKey("TTL")
		assert.False(t, ok)
		assert.Equal(t, 0, cache.Size())
		assert.Equal(t, int64(1), cache.Stats().Expirations())
		assert.Equal(t, int32(1), metrics.expirations.Load())
	})

	t.Run("lru evicts the oldest insert test", func(t *testing.T) {
		cache := projects.NewWithConfig(projects.Config{MaxSize: 3})
		for id := int64(0); id < 4; id++ {
			cache.CacheProject(project(id, fmt.Sprintf("P%d", id)))
		}
		assert.Equal(t, 3, cache.Size())

		_, ok := cache.GetFromCacheByID(0)
		assert.False(t, ok)
		_, ok = cache.GetFromCacheByKey("P0")
		assert.False(t, ok)
		for _, id := range []int64{1, 2, 3} {
			p, ok := cache.GetFromCacheByID(id)
			require.True(t, ok, "project %d", id)
			assert.Equal(t, fmt.Sprintf("P%d", id), p.ProjectKey)
		}
		assert.Equal(t, int64(1), cache.Stats().Evictions())
	})

	t.Run("lru eviction test", func(t *testing.T) {
		metrics := &countingMetrics{}
		cache := projects.NewWithConfig(projects.Config{MaxSize: 3}, projects.WithMetrics(metrics))
		cache.CacheProject(project(0, "P0"))
		cache.CacheProject(project(1, "P1"))
		cache.CacheProject(project(2, "P2"))
		assert.Equal(t, 3, cache.Size())

		// P0 becomes the most recently used, so P1 is the oldest.
		_, ok := cache.GetFromCacheByID(0)
		require.True(t, ok)

		cache.CacheProject(project(3, "P3"))
		assert.Equal(t, 3, cache.Size())

		_, ok = cache.GetFromCacheByID(1)
		assert.False(t, ok)
		_, ok = cache.GetFromCacheByKey("P1")
		assert.False(t, ok)
		for _, id := range []int64{0, 2, 3} {
			_, ok := cache.GetFromCacheByID(id)
			assert.True(t, ok, "project %d", id)
		}
		assert.Equal(t, int64(1), cache.Stats().Evictions())
		assert.Equal(t, int32(1), metrics.evictions.Load())
	})

	t.Run("lru eviction follows access order test", func(t *testing.T) {
		cache := projects.NewWithConfig(projects.Config{MaxSize: 3})
		cache.CacheProject(project(0, "P0"))
		cache.CacheProject(project(1, "P1"))
		cache.CacheProject(project(2, "P2"))

		_, ok := cache.GetFromCacheByKey("P0")
		require.True(t, ok)
		_, ok = cache.GetFromCacheByID(1)
		require.True(t, ok)

		cache.CacheProject(project(3, "P3"))

		_, ok = cache.GetFromCacheByID(2)
		assert.False(t, ok)
		assert.Equal(t, 3, cache.Size())
	})

	t.Run("replacing a cached project does not evict test", func(t *testing.T) {
		cache := projects.NewWithConfig(projects.Config{MaxSize: 2})
		cache.CacheProject(project(1, "P1"))
		cache.CacheProject(project(2, "P2"))
		cache.CacheProject(project(1, "P1"))

		assert.Equal(t, 2, cache.Size())
		assert.Equal(t, int64(0), cache.Stats().Evictions())
	})

	t.Run("key change drops stale key test", func(t *testing.T) {
		cache := projects.New()
		cache.CacheProject(project(1, "OLD"))
		cache.CacheProject(project(1, "NEW"))

		_, ok := cache.GetFromCacheByKey("OLD")
		assert.False(t, ok)
		p, ok := cache.GetFromCacheByKey("NEW")
		require.True(t, ok)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, 1, cache.Size())
	})

	t.Run("concurrent inserts test", func(t *testing.T) {
		cache := projects.New()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int64) {
				defer wg.Done()
				cache.CacheProject(project(i, fmt.Sprintf("PROJECT_%d", i)))
			}(int64(i))
		}
		wg.Wait()

		assert.Equal(t, 10, cache.Size())
		for i := int64(0); i < 10; i++ {
			byID, ok := cache.GetFromCacheByID(i)
			require.True(t, ok)
			byKey, ok := cache.GetFromCacheByKey(fmt.Sprintf("PROJECT_%d", i))
			require.True(t, ok)
			assert.Equal(t, byID.ID, byKey.ID)
		}
	})

	t.Run("clear test", func(t *testing.T) {
		cache := projects.New()
		cache.CacheProject(project(1, "A"))
		cache.CacheProject(project(2, "B"))
		cache.Clear()

		assert.Equal(t, 0, cache.Size())
		_, ok := cache.GetFromCacheByKey("A")
		assert.False(t, ok)

		cache.CacheProject(project(3, "C"))
		assert.Equal(t, 1, cache.Size())
	})

	t.Run("stats test", func(t *testing.T) {
		cache := projects.New(projects.WithName("projects"))
		cache.CacheProject(project(1, "A"))
		cache.GetFromCacheByID(1)
		cache.GetFromCacheByID(2)

		assert.Equal(t, "projects", cache.Name())
		assert.Equal(t, 1, cache.Len())
		assert.Equal(t, int64(1), cache.Stats().Hits())
		assert.Equal(t, int64(1), cache.Stats().Misses())
	})
}

func TestCacheManagerFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch on miss and cache result test", func(t *testing.T) {
		cache := projects.New()
		fetcher := &fakeFetcher{projects: []*types.Project{project(42, "FETCHED")}}

		p, err := cache.GetByID(ctx, 42, fetcher)
		require.NoError(t, err)
		assert.Equal(t, "FETCHED", p.ProjectKey)

		p, err = cache.GetByKey(ctx, "FETCHED", fetcher)
		require.NoError(t, err)
		assert.Equal(t, int64(42), p.ID)
		assert.Equal(t, int32(1), fetcher.calls.Load())
	})

	t.Run("fetch error is propagated and nothing cached test", func(t *testing.T) {
		cache := projects.New()
		errFetch := errors.New("boom")
		fetcher := &fakeFetcher{err: errFetch}

		_, err := cache.GetByKey(ctx, "MISSING", fetcher)
		assert.ErrorIs(t, err, errFetch)
		assert.Equal(t, 0, cache.Size())
	})

	t.Run("concurrent misses are collapsed test", func(t *testing.T) {
		cache := projects.New()
		fetcher := &fakeFetcher{
			projects: []*types.Project{project(7, "SHARED")},
			gate:     make(chan struct{}),
		}

		var wg sync.WaitGroup
		results := make([]*types.Project, 5)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := cache.GetByID(ctx, 7, fetcher)
				assert.NoError(t, err)
				results[i] = p
			}(i)
		}

		time.Sleep(50 * time.Millisecond)
		close(fetcher.gate)
		wg.Wait()

		assert.Equal(t, int32(1), fetcher.calls.Load())
		for _, p := range results {
			require.NotNil(t, p)
			assert.Equal(t, "SHARED", p.ProjectKey)
		}
	})

	t.Run("resolve dispatch test", func(t *testing.T) {
		cache := projects.New()
		fetcher := &fakeFetcher{projects: []*types.Project{project(1, "ONE"), project(2, "TWO")}}

		p, err := cache.Resolve(ctx, types.NewKey("TWO"), fetcher)
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.ID)

		// A reference carrying both is resolved by ID.
		p, err = cache.Resolve(ctx, types.NewIDAndKey(1, "TWO"), fetcher)
		require.NoError(t, err)
		assert.Equal(t, "ONE", p.ProjectKey)

		_, err = cache.Resolve(ctx, types.IDOrKey{}, fetcher)
		assert.ErrorIs(t, err, types.ErrInvalidIDOrKey)
	})
}

type fakeLister struct {
	projects []*types.Project
}

func (l *fakeLister) ListProjects(context.Context) ([]*types.Project, error) {
	return l.projects, nil
}

func TestProjects(t *testing.T) {
	ctx := context.Background()

	t.Run("list projects warms the cache test", func(t *testing.T) {
		cache := projects.New()
		lister := &fakeLister{projects: []*types.Project{project(1, "A"), project(2, "B")}}

		list, err := projects.ListProjects(ctx, cache, lister)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		assert.Equal(t, 2, cache.Size())

		fetcher := &fakeFetcher{}
		p, err := projects.GetProject(ctx, cache, fetcher, types.NewKey("B"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.ID)
		assert.Equal(t, int32(0), fetcher.calls.Load())
	})

	t.Run("filter projects test", func(t *testing.T) {
		list := []*types.Project{project(1, "A"), project(2, "B"), project(3, "C")}
		filtered := projects.FilterProjects(list, func(key string) bool { return key != "B" })
		require.Len(t, filtered, 2)
		assert.Equal(t, "A", filtered[0].ProjectKey)
		assert.Equal(t, "C", filtered[1].ProjectKey)
	})

	t.Run("project context test", func(t *testing.T) {
		_, ok := projects.From(ctx)
		assert.False(t, ok)

		p := project(1, "A")
		got, ok := projects.From(projects.With(ctx, p))
		require.True(t, ok)
		assert.Same(t, p, got)
	})
}
