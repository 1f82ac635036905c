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

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/pkg/cache"
)

func TestStats(t *testing.T) {
	stats := &cache.Stats{}
	assert.Equal(t, 0.0, stats.HitRate())

	stats.RecordHit()
	stats.RecordHit()
	stats.RecordHit()
	stats.RecordMiss()
	stats.RecordEviction()
	stats.RecordExpiration()

	assert.Equal(t, int64(4), stats.Total())
	assert.Equal(t, 75.0, stats.HitRate())
	assert.Equal(t, cache.Snapshot{
		Hits:        3,
		Misses:      1,
		Evictions:   1,
		Expirations: 1,
		HitRate:     75.0,
	}, stats.Snapshot())

	stats.Reset()
	assert.Equal(t, int64(0), stats.Total())
	assert.Equal(t, int64(0), stats.Evictions())
}

func TestTTLCache(t *testing.T) {
	t.Run("create test", func(t *testing.T) {
		c, err := cache.NewTTLCache[int64, string]("test", 1, time.Minute, nil)
		assert.NoError(t, err)
		assert.Equal(t, "test", c.Name())

		c, err = cache.NewTTLCache[int64, string]("test", 0, time.Minute, nil)
		assert.ErrorIs(t, err, cache.ErrInvalidMaxSize)
		assert.Nil(t, c)
	})

	t.Run("capacity eviction test", func(t *testing.T) {
		var removed []int64
		c, err := cache.NewTTLCache[int64, string]("test", 1, time.Minute, func(k int64, _ string) {
			removed = append(removed, k)
		})
		require.NoError(t, err)

		assert.False(t, c.Add(1, "one"))
		v, ok := c.Get(1)
		assert.True(t, ok)
		assert.Equal(t, "one", v)

		assert.True(t, c.Add(2, "two"))
		_, ok = c.Get(1)
		assert.False(t, ok)
		assert.Equal(t, []int64{1}, removed)

		assert.Equal(t, int64(1), c.Stats().Hits())
		assert.Equal(t, int64(1), c.Stats().Misses())
		assert.Equal(t, int64(1), c.Stats().Evictions())
		assert.Equal(t, 1, c.Len())
	})

	t.Run("explicit removal is not an eviction test", func(t *testing.T) {
		c, err := cache.NewTTLCache[string, string]("test", 4, time.Minute, nil)
		require.NoError(t, err)

		c.Add("a", "1")
		c.Add("a", "2")
		c.Add("b", "3")
		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))
		c.Purge()

		assert.Equal(t, 0, c.Len())
		assert.Equal(t, int64(0), c.Stats().Evictions())
		assert.Equal(t, int64(0), c.Stats().Expirations())
	})

	t.Run("expire test", func(t *testing.T) {
		c, err := cache.NewTTLCache[string, string]("test", 10, 10*time.Millisecond, nil)
		require.NoError(t, err)

		c.Add("key", "value")
		time.Sleep(30 * time.Millisecond)
		_, ok := c.Get("key")
		assert.False(t, ok)
	})
}

type fakeProvider struct {
	stats cache.Stats
}

func (p *fakeProvider) Name() string        { return "fake" }
func (p *fakeProvider) Stats() *cache.Stats { return &p.stats }
func (p *fakeProvider) Len() int            { return 0 }

func TestManager(t *testing.T) {
	m := cache.NewManager(5 * time.Millisecond)
	p := &fakeProvider{}
	p.stats.RecordHit()
	p.stats.RecordMiss()
	m.RegisterCache(p)

	reports := m.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, "fake", reports[0].Name)
	assert.Equal(t, int64(1), reports[0].Hits)
	assert.Equal(t, int64(1), reports[0].Misses)
	assert.Equal(t, 50.0, reports[0].HitRate)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.StartPeriodicLogging(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	m.Stop()
	m.Stop()
	<-done
	cancel()
}
