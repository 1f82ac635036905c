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

// Package access provides the project allow-list that restricts which
// projects the tools may operate on.
package access

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/pkg/errors"
	"github.com/backlogkit/backlog/server/logging"
	"github.com/backlogkit/backlog/server/projects"
)

// EnvAllowedProjects is the environment variable holding the comma separated
// allow-list of project keys.
const EnvAllowedProjects = "BACKLOG_ALLOWED_PROJECTS"

var (
	// ErrAccessDenied is returned when a project is not in the allow-list.
	ErrAccessDenied = errors.PermissionDenied("access denied").WithCode("ErrAccessDenied")
)

// DeniedError describes a denied project together with the allow-list.
type DeniedError struct {
	// Project is the key, or the ID when the key could not be resolved.
	Project string

	// AllowedProjects is the allow-list in configured order.
	AllowedProjects []string
}

// Error returns the error message.
func (e *DeniedError) Error() string {
	return fmt.Sprintf(
		"access denied to project %q, allowed projects: %s",
		e.Project,
		strings.Join(e.AllowedProjects, ", "),
	)
}

// Unwrap returns ErrAccessDenied.
func (e *DeniedError) Unwrap() error {
	return ErrAccessDenied
}

// Control checks projects against an optional allow-list. A Control without
// an allow-list is disabled and allows every project. It never changes after
// construction.
type Control struct {
	allowed []string
	index   map[string]struct{}
	cache   *projects.CacheManager
	logger  logging.Logger
	metrics Metrics
}

// Metrics receives access denials.
type Metrics interface {
	AddAccessDenied(project string)
}

// Option configures a Control.
type Option func(*Control)

// WithMetrics sets the metrics denials are reported to.
func WithMetrics(metrics Metrics) Option {
	return func(c *Control) {
		c.metrics = metrics
	}
}

// WithLogger sets the logger of the control.
func WithLogger(logger logging.Logger) Option {
	return func(c *Control) {
		c.logger = logger
	}
}

// New creates a Control from a comma separated list of project keys. Keys are
// trimmed and blank keys dropped; if nothing remains the control is disabled.
func New(raw string, cache *projects.CacheManager, opts ...Option) *Control {
	c := &Control{
		cache:  cache,
		logger: logging.New("access"),
	}

	for _, key := range ParseAllowList(raw) {
		if c.index == nil {
			c.index = make(map[string]struct{})
		}
		if _, ok := c.index[key]; ok {
			continue
		}
		c.index[key] = struct{}{}
		c.allowed = append(c.allowed, key)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromEnv creates a Control from EnvAllowedProjects.
func NewFromEnv(cache *projects.CacheManager, opts ...Option) *Control {
	return New(os.Getenv(EnvAllowedProjects), cache, opts...)
}

// ParseAllowList splits a comma separated list of project keys, trimming
// each key and dropping blank ones.
func ParseAllowList(raw string) []string {
	var keys []string
	for _, token := range strings.Split(raw, ",") {
		if key := strings.TrimSpace(token); key != "" {
			keys = append(keys, key)
		}
	}

	return keys
}

// IsEnabled returns whether an allow-list is configured.
func (c *Control) IsEnabled() bool {
	return len(c.allowed) > 0
}

// AllowedProjects returns a copy of the allow-list in configured order.
func (c *Control) AllowedProjects() []string {
	return slices.Clone(c.allowed)
}

// IsAllowed returns whether the given project key passes the allow-list.
func (c *Control) IsAllowed(key string) bool {
	if !c.IsEnabled() {
		return true
	}

	_, ok := c.index[key]
	return ok
}

// CheckProjectAccessByKey checks the project with the given key.
func (c *Control) CheckProjectAccessByKey(key string) error {
	if c.IsAllowed(key) {
		return nil
	}

	return c.deny(key)
}

// CheckProjectAccessByID checks the project with the given ID, resolving its
// key through the cache and then the fetcher. A project whose key cannot be
// resolved is denied.
func (c *Control) CheckProjectAccessByID(ctx context.Context, id int64, fetcher projects.Fetcher) error {
	if !c.IsEnabled() {
		return nil
	}

	// 1. Check the cached key.
	if project, ok := c.cache.GetFromCacheByID(id); ok {
		return c.CheckProjectAccessByKey(project.ProjectKey)
	}

	// 2. Fetch the project and check again.
	project, err := c.cache.GetByID(ctx, id, fetcher)
	if err != nil {
		c.logger.Infof("deny project %d: resolve key: %v", id, err)
		return c.deny(fmt.Sprintf("%d", id))
	}

	return c.CheckProjectAccessByKey(project.ProjectKey)
}

// CheckProjectAccess checks the referenced project. A reference carrying both
// an ID and a key is checked by ID.
func (c *Control) CheckProjectAccess(ctx context.Context, ref types.IDOrKey, fetcher projects.Fetcher) error {
	if !c.IsEnabled() {
		return nil
	}

	if id, ok := ref.ID(); ok {
		return c.CheckProjectAccessByID(ctx, id, fetcher)
	}
	if key, ok := ref.Key(); ok {
		return c.CheckProjectAccessByKey(key)
	}

	return c.deny(ref.String())
}

func (c *Control) deny(project string) error {
	c.logger.Infof("deny project %q", project)
	if c.metrics != nil {
		c.metrics.AddAccessDenied(project)
	}

	return &DeniedError{
		Project:         project,
		AllowedProjects: c.AllowedProjects(),
	}
}
