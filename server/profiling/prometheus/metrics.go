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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/backlogkit/backlog/internal/version"
)

const (
	namespace      = "backlog"
	projectLabel   = "project"
	toolLabel      = "tool"
	resultLabel    = "result"
	operationLabel = "operation"

	// ResultSuccess labels a tool call that succeeded.
	ResultSuccess = "success"

	// ResultError labels a tool call that failed.
	ResultError = "error"
)

// Metrics manages the metric information of the cache, access control, MCP
// tools and API client.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	projectCacheHits        prometheus.Counter
	projectCacheMisses      prometheus.Counter
	projectCacheEvictions   prometheus.Counter
	projectCacheExpirations prometheus.Counter

	accessDeniedTotal *prometheus.CounterVec
	toolCallsTotal    *prometheus.CounterVec
	apiRequestSeconds *prometheus.HistogramVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		projectCacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "project_cache",
			Name:      "hits_total",
			Help:      "The total number of project cache hits.",
		}),
		projectCacheMisses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "project_cache",
			Name:      "misses_total",
			Help:      "The total number of project cache misses, expired entries included.",
		}),
		projectCacheEvictions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "project_cache",
			Name:      "evictions_total",
			Help:      "The total number of projects evicted to make room.",
		}),
		projectCacheExpirations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "project_cache",
			Name:      "expirations_total",
			Help:      "The total number of projects purged after their TTL.",
		}),
		accessDeniedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "denied_total",
			Help:      "The total number of access checks denied by the allow-list.",
		}, []string{projectLabel}),
		toolCallsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "The total number of MCP tool calls.",
		}, []string{toolLabel, resultLabel}),
		apiRequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_seconds",
			Help:      "The response time of Backlog API requests.",
		}, []string{operationLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddProjectCacheHit adds a project cache hit.
func (m *Metrics) AddProjectCacheHit() {
	m.projectCacheHits.Inc()
}

// AddProjectCacheMiss adds a project cache miss.
func (m *Metrics) AddProjectCacheMiss() {
	m.projectCacheMisses.Inc()
}

// AddProjectCacheEviction adds a project cache eviction.
func (m *Metrics) AddProjectCacheEviction() {
	m.projectCacheEvictions.Inc()
}

// AddProjectCacheExpiration adds a project cache expiration.
func (m *Metrics) AddProjectCacheExpiration() {
	m.projectCacheExpirations.Inc()
}

// AddAccessDenied adds a denied access check for the given project.
func (m *Metrics) AddAccessDenied(project string) {
	m.accessDeniedTotal.With(prometheus.Labels{
		projectLabel: project,
	}).Inc()
}

// AddToolCall adds an MCP tool call with its result.
func (m *Metrics) AddToolCall(tool, result string) {
	m.toolCallsTotal.With(prometheus.Labels{
		toolLabel:   tool,
		resultLabel: result,
	}).Inc()
}

// ObserveAPIRequest observes the duration of a Backlog API request.
func (m *Metrics) ObserveAPIRequest(operation string, duration time.Duration) {
	m.apiRequestSeconds.With(prometheus.Labels{
		operationLabel: operation,
	}).Observe(duration.Seconds())
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
