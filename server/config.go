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

package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/backlogkit/backlog/internal/validation"
	"github.com/backlogkit/backlog/server/access"
	"github.com/backlogkit/backlog/server/profiling"
	"github.com/backlogkit/backlog/server/projects"
	"github.com/backlogkit/backlog/server/rpc"
)

// Below are the values of the default values of Backlog config.
const (
	DefaultMCPPort       = 8080
	DefaultProfilingPort = 8081

	DefaultRequestTimeout       = 30 * time.Second
	DefaultCustomFieldCacheSize = 64
	DefaultCustomFieldCacheTTL  = 5 * time.Minute

	DefaultProjectCacheSize          = 100
	DefaultProjectCacheTTL           = 5 * time.Minute
	DefaultProjectCacheStatsInterval = 10 * time.Minute

	DefaultTokenDuration = 24 * time.Hour
)

var (
	// ErrMissingSpaceURL occurs when the Backlog space URL is not configured.
	ErrMissingSpaceURL = errors.New("missing space URL for Backlog")
	// ErrMissingAPIKey occurs when the Backlog API key is not configured.
	ErrMissingAPIKey = errors.New("missing API key for Backlog")
	// ErrInvalidBacklogConfig occurs when the Backlog section is invalid.
	ErrInvalidBacklogConfig = errors.New("invalid Backlog config")
	// ErrInvalidProjectCacheConfig occurs when the project cache section is invalid.
	ErrInvalidProjectCacheConfig = errors.New("invalid project cache config")
)

// BacklogConfig is the configuration of the Backlog API connection.
type BacklogConfig struct {
	// SpaceURL is the base URL of the space, e.g. https://example.backlog.com.
	SpaceURL string `yaml:"SpaceURL" validate:"url|emptystring"`

	// APIKey is the API key of the user the server acts as.
	APIKey string `yaml:"APIKey"`

	// AllowedProjects is a comma separated list of project keys. When empty
	// the value of BACKLOG_ALLOWED_PROJECTS is used.
	AllowedProjects string `yaml:"AllowedProjects"`

	// RequestTimeout is the timeout of a single API request.
	RequestTimeout string `yaml:"RequestTimeout" validate:"required,duration"`

	// RateLimit is the number of requests per second sent to Backlog. Zero
	// disables the limit.
	RateLimit float64 `yaml:"RateLimit" validate:"gte=0"`

	// RateBurst is the burst size of RateLimit.
	RateBurst int `yaml:"RateBurst" validate:"gte=0"`

	// MaxInFlight bounds the number of concurrent requests. Zero disables it.
	MaxInFlight int `yaml:"MaxInFlight" validate:"gte=0"`

	CustomFieldCacheSize int    `yaml:"CustomFieldCacheSize" validate:"gte=0"`
	CustomFieldCacheTTL  string `yaml:"CustomFieldCacheTTL" validate:"required,duration"`
}

// Validate validates the Backlog section.
func (c *BacklogConfig) Validate() error {
	if c.SpaceURL == "" {
		return ErrMissingSpaceURL
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidBacklogConfig)
	}
	return nil
}

// ResolveAllowedProjects returns the configured allow-list, falling back to
// the environment.
func (c *BacklogConfig) ResolveAllowedProjects() string {
	if strings.TrimSpace(c.AllowedProjects) != "" {
		return c.AllowedProjects
	}
	return os.Getenv(access.EnvAllowedProjects)
}

// ProjectCacheConfig is the configuration of the project cache.
type ProjectCacheConfig struct {
	TTL           string `yaml:"TTL" validate:"required,duration"`
	MaxSize       int    `yaml:"MaxSize" validate:"gte=1"`
	StatsInterval string `yaml:"StatsInterval" validate:"required,duration"`
}

// Validate validates the project cache section.
func (c *ProjectCacheConfig) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidProjectCacheConfig)
	}
	return nil
}

// ToCacheConfig converts the section into the cache manager configuration.
func (c *ProjectCacheConfig) ToCacheConfig() (projects.Config, error) {
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return projects.Config{}, fmt.Errorf("parse project cache TTL %s: %w", c.TTL, err)
	}
	return projects.Config{TTL: ttl, MaxSize: c.MaxSize}, nil
}

// Config is the configuration for creating a Backlog server instance.
type Config struct {
	Backlog      *BacklogConfig      `yaml:"Backlog"`
	ProjectCache *ProjectCacheConfig `yaml:"ProjectCache"`
	MCP          *rpc.Config         `yaml:"MCP"`
	Profiling    *profiling.Config   `yaml:"Profiling"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultMCPPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()

	return conf, nil
}

// MCPAddr returns the MCP address.
func (c *Config) MCPAddr() string {
	return fmt.Sprintf("localhost:%d", c.MCP.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.Backlog.Validate(); err != nil {
		return err
	}

	if err := c.ProjectCache.Validate(); err != nil {
		return err
	}

	if err := c.MCP.Validate(); err != nil {
		return err
	}

	if c.Profiling != nil {
		if err := c.Profiling.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.Backlog == nil {
		c.Backlog = &BacklogConfig{}
	}
	if c.Backlog.RequestTimeout == "" {
		c.Backlog.RequestTimeout = DefaultRequestTimeout.String()
	}
	if c.Backlog.CustomFieldCacheSize == 0 {
		c.Backlog.CustomFieldCacheSize = DefaultCustomFieldCacheSize
	}
	if c.Backlog.CustomFieldCacheTTL == "" {
		c.Backlog.CustomFieldCacheTTL = DefaultCustomFieldCacheTTL.String()
	}

	if c.ProjectCache == nil {
		c.ProjectCache = &ProjectCacheConfig{}
	}
	if c.ProjectCache.TTL == "" {
		c.ProjectCache.TTL = DefaultProjectCacheTTL.String()
	}
	if c.ProjectCache.MaxSize == 0 {
		c.ProjectCache.MaxSize = DefaultProjectCacheSize
	}
	if c.ProjectCache.StatsInterval == "" {
		c.ProjectCache.StatsInterval = DefaultProjectCacheStatsInterval.String()
	}

	if c.MCP == nil {
		c.MCP = &rpc.Config{}
	}
	if c.MCP.Port == 0 {
		c.MCP.Port = DefaultMCPPort
	}
	if c.MCP.TokenDuration == "" {
		c.MCP.TokenDuration = DefaultTokenDuration.String()
	}

	if c.Profiling != nil && c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		Backlog: &BacklogConfig{
			RequestTimeout:       DefaultRequestTimeout.String(),
			CustomFieldCacheSize: DefaultCustomFieldCacheSize,
			CustomFieldCacheTTL:  DefaultCustomFieldCacheTTL.String(),
		},
		ProjectCache: &ProjectCacheConfig{
			TTL:           DefaultProjectCacheTTL.String(),
			MaxSize:       DefaultProjectCacheSize,
			StatsInterval: DefaultProjectCacheStatsInterval.String(),
		},
		MCP: &rpc.Config{
			Port:          port,
			TokenDuration: DefaultTokenDuration.String(),
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
	}
}
