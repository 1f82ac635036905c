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

// Package projects provides the project metadata cache and the project
// related business logic built on it.
package projects

import (
	"context"
	"fmt"

	"github.com/backlogkit/backlog/api/types"
)

// Fetcher fetches a project from the Backlog API.
type Fetcher interface {
	GetProject(ctx context.Context, idOrKey types.IDOrKey) (*types.Project, error)
}

// Lister lists the projects visible to the API key.
type Lister interface {
	ListProjects(ctx context.Context) ([]*types.Project, error)
}

// Metrics receives the cache events.
type Metrics interface {
	AddProjectCacheHit()
	AddProjectCacheMiss()
	AddProjectCacheEviction()
	AddProjectCacheExpiration()
}

type nopMetrics struct{}

func (nopMetrics) AddProjectCacheHit()        {}
func (nopMetrics) AddProjectCacheMiss()       {}
func (nopMetrics) AddProjectCacheEviction()   {}
func (nopMetrics) AddProjectCacheExpiration() {}

// GetProject returns the referenced project, reading through the cache.
func GetProject(
	ctx context.Context,
	cache *CacheManager,
	fetcher Fetcher,
	ref types.IDOrKey,
) (*types.Project, error) {
	project, err := cache.Resolve(ctx, ref, fetcher)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", ref, err)
	}

	return project, nil
}

// ListProjects lists all projects and refreshes their cache entries.
func ListProjects(
	ctx context.Context,
	cache *CacheManager,
	lister Lister,
) ([]*types.Project, error) {
	projects, err := lister.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	for _, project := range projects {
		cache.CacheProject(project)
	}

	return projects, nil
}

// FilterProjects returns the projects that pass the given check, keeping
// their order.
func FilterProjects(projects []*types.Project, allowed func(key string) bool) []*types.Project {
	var filtered []*types.Project
	for _, project := range projects {
		if allowed(project.ProjectKey) {
			filtered = append(filtered, project)
		}
	}

	return filtered
}
