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

// Package server provides the Backlog server which is the main entry point of
// the MCP endpoint. It wires the Backlog API client, the project cache and
// the access control, and serves them over MCP and the profiling port.
package server

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/backlogkit/backlog/client"
	"github.com/backlogkit/backlog/pkg/cache"
	"github.com/backlogkit/backlog/pkg/errors"
	"github.com/backlogkit/backlog/server/access"
	"github.com/backlogkit/backlog/server/issues"
	"github.com/backlogkit/backlog/server/logging"
	"github.com/backlogkit/backlog/server/profiling"
	"github.com/backlogkit/backlog/server/profiling/prometheus"
	"github.com/backlogkit/backlog/server/projects"
	"github.com/backlogkit/backlog/server/rpc"
	"github.com/backlogkit/backlog/server/rpc/auth"
	"github.com/backlogkit/backlog/server/rpc/httphealth"
	"github.com/backlogkit/backlog/server/rpc/mcp"
)

// ErrTokensDisabled is returned when tokens are requested without a secret.
var ErrTokensDisabled = errors.FailedPrecond("MCP token secret is not configured").WithCode("ErrTokensDisabled")

// Backlog is a server that exposes one Backlog space over MCP. Every project
// scoped request goes through the shared project cache and access control.
type Backlog struct {
	lock gosync.Mutex

	conf            *Config
	client          *client.Client
	cache           *projects.CacheManager
	access          *access.Control
	issues          *issues.Service
	tokens          *auth.TokenManager
	cacheManager    *cache.Manager
	rpcServer       *rpc.Server
	profilingServer *profiling.Server

	cancel     context.CancelFunc
	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Backlog.
func New(conf *Config) (*Backlog, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	cli, err := newClient(conf.Backlog, metrics)
	if err != nil {
		return nil, err
	}

	cacheConf, err := conf.ProjectCache.ToCacheConfig()
	if err != nil {
		return nil, err
	}
	statsInterval, err := time.ParseDuration(conf.ProjectCache.StatsInterval)
	if err != nil {
		return nil, fmt.Errorf("parse stats interval %s: %w", conf.ProjectCache.StatsInterval, err)
	}

	projectCache := projects.NewWithConfig(cacheConf, projects.WithMetrics(metrics))
	control := access.New(conf.Backlog.ResolveAllowedProjects(), projectCache, access.WithMetrics(metrics))
	issueService := issues.New(cli, control, projectCache)

	cacheManager := cache.NewManager(statsInterval)
	cacheManager.RegisterCache(projectCache)
	if fieldCache := cli.CustomFieldCache(); fieldCache != nil {
		cacheManager.RegisterCache(fieldCache)
	}

	var tokens *auth.TokenManager
	if conf.MCP.TokenSecret != "" {
		duration, err := conf.MCP.ParseTokenDuration()
		if err != nil {
			return nil, err
		}
		tokens = auth.NewTokenManager(conf.MCP.TokenSecret, duration)
	}

	rpcServer := rpc.NewServer(conf.MCP)
	rpcServer.Handle(mcp.NewHandler(
		cli,
		projectCache,
		control,
		issueService,
		mcp.WithAuthenticator(auth.NewAuthenticator(conf.MCP.Token, tokens)),
		mcp.WithMetrics(metrics),
		mcp.WithMaxRequestBytes(conf.MCP.MaxRequestBytes),
	))
	rpcServer.Handle(httphealth.NewHandler(func(ctx context.Context) error {
		_, err := cli.GetSpace(ctx)
		return err
	}))

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics, cacheManager)
	}

	if control.IsEnabled() {
		logging.DefaultLogger().Infof("access control enabled for projects %v", control.AllowedProjects())
	}

	return &Backlog{
		conf:            conf,
		client:          cli,
		cache:           projectCache,
		access:          control,
		issues:          issueService,
		tokens:          tokens,
		cacheManager:    cacheManager,
		rpcServer:       rpcServer,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// newClient creates the Backlog API client from the Backlog section.
func newClient(conf *BacklogConfig, metrics *prometheus.Metrics) (*client.Client, error) {
	timeout, err := time.ParseDuration(conf.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse request timeout %s: %w", conf.RequestTimeout, err)
	}
	fieldCacheTTL, err := time.ParseDuration(conf.CustomFieldCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("parse custom field cache TTL %s: %w", conf.CustomFieldCacheTTL, err)
	}

	return client.New(
		conf.SpaceURL,
		conf.APIKey,
		client.WithRequestTimeout(timeout),
		client.WithRateLimit(conf.RateLimit, conf.RateBurst),
		client.WithMaxInFlight(conf.MaxInFlight),
		client.WithCustomFieldCache(conf.CustomFieldCacheSize, fieldCacheTTL),
		client.WithMetrics(metrics),
	)
}

// Start starts the server by opening the MCP port.
func (r *Backlog) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.cacheManager.StartPeriodicLogging(ctx)

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	return r.rpcServer.Start()
}

// Shutdown shuts down this Backlog server.
func (r *Backlog) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	r.rpcServer.Shutdown(graceful)
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if r.cancel != nil {
		r.cancel()
	}
	r.cacheManager.Stop()
	r.cacheManager.LogCacheStats()

	close(r.shutdownCh)
	r.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *Backlog) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// MCPAddr returns the address the MCP server listens on.
func (r *Backlog) MCPAddr() string {
	return r.rpcServer.Addr()
}

// ProjectCache returns the shared project cache.
func (r *Backlog) ProjectCache() *projects.CacheManager {
	return r.cache
}

// AccessControl returns the access control.
func (r *Backlog) AccessControl() *access.Control {
	return r.access
}

// Issues returns the issue service.
func (r *Backlog) Issues() *issues.Service {
	return r.issues
}

// GenerateToken issues an MCP token for the given subject.
func (r *Backlog) GenerateToken(subject string) (string, error) {
	if r.tokens == nil {
		return "", ErrTokensDisabled
	}
	return r.tokens.Generate(subject)
}
