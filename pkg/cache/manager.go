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
	"context"
	"sync"
	"time"

	"github.com/backlogkit/backlog/server/logging"
)

// StatsProvider is implemented by caches that expose statistics.
type StatsProvider interface {
	Name() string
	Stats() *Stats
	Len() int
}

// Report is the state of one registered cache at a point in time.
type Report struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
	Snapshot
}

// Manager keeps the project and custom field caches of a server together so
// their statistics can be logged on an interval and served on demand.
type Manager struct {
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	caches []StatsProvider

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager creates a Manager. A non-positive interval disables the
// periodic log.
func NewManager(interval time.Duration) *Manager {
	return &Manager{
		interval: interval,
		logger:   logging.New("cache"),
		stopCh:   make(chan struct{}),
	}
}

// RegisterCache adds a cache to the reports.
func (m *Manager) RegisterCache(cache StatsProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.caches = append(m.caches, cache)
}

// Reports returns the current state of every registered cache in
// registration order.
func (m *Manager) Reports() []Report {
	m.mu.Lock()
	caches := append([]StatsProvider(nil), m.caches...)
	m.mu.Unlock()

	reports := make([]Report, 0, len(caches))
	for _, c := range caches {
		reports = append(reports, Report{
			Name:     c.Name(),
			Len:      c.Len(),
			Snapshot: c.Stats().Snapshot(),
		})
	}
	return reports
}

// StartPeriodicLogging logs the reports every interval until ctx is done or
// Stop is called. It blocks.
func (m *Manager) StartPeriodicLogging(ctx context.Context) {
	if m.interval <= 0 {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.LogCacheStats()
		}
	}
}

// LogCacheStats logs the reports once.
func (m *Manager) LogCacheStats() {
	for _, r := range m.Reports() {
		m.logger.Infow("cache stats",
			"cache", r.Name,
			"len", r.Len,
			"hits", r.Hits,
			"misses", r.Misses,
			"evictions", r.Evictions,
			"expirations", r.Expirations,
			"hit_rate", r.HitRate,
		)
	}
}

// Stop ends StartPeriodicLogging. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}
