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

package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/client"
	"github.com/backlogkit/backlog/internal/validation"
	"github.com/backlogkit/backlog/server/access"
	"github.com/backlogkit/backlog/server/issues"
	"github.com/backlogkit/backlog/server/projects"
)

// Services are the components a CLI command runs against. They enforce the
// same allow-list as the MCP server, read from BACKLOG_ALLOWED_PROJECTS.
type Services struct {
	Client *client.Client
	Cache  *projects.CacheManager
	Access *access.Control
	Issues *issues.Service
}

// NewServices creates the services from the loaded credentials.
func NewServices() (*Services, error) {
	creds, err := Load()
	if err != nil {
		return nil, err
	}

	cli, err := client.New(
		creds.SpaceURL,
		creds.APIKey,
		client.WithRequestTimeout(viper.GetDuration(KeyTimeout)),
	)
	if err != nil {
		return nil, err
	}

	cache := projects.New()
	control := access.NewFromEnv(cache)
	return &Services{
		Client: cli,
		Cache:  cache,
		Access: control,
		Issues: issues.New(cli, control, cache),
	}, nil
}

// ParseProject parses a project argument, rejecting malformed keys before
// any request is sent.
func ParseProject(arg string) (types.IDOrKey, error) {
	ref, err := types.ParseIDOrKey(arg)
	if err != nil {
		return types.IDOrKey{}, err
	}

	if key, ok := ref.Key(); ok {
		if err := validation.ValidateValue(key, "project_key"); err != nil {
			return types.IDOrKey{}, fmt.Errorf("project %q: %w", key, err)
		}
	}
	return ref, nil
}
