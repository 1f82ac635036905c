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

package profiling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/backlogkit/backlog/pkg/cache"
	"github.com/backlogkit/backlog/server/logging"
	"github.com/backlogkit/backlog/server/profiling/prometheus"
)

const (
	pathMetrics = "/metrics"
	pathCaches  = "/debug/caches"
	pathPProf   = "/debug/pprof/"
)

// runtimeProfiles are served by pprof.Handler under pathPProf.
var runtimeProfiles = []string{"heap", "goroutine", "threadcreate", "block", "mutex", "allocs"}

// Server serves metrics, cache reports and pprof on the profiling port.
type Server struct {
	conf   *Config
	mux    *http.ServeMux
	logger logging.Logger

	mu  sync.Mutex
	srv *http.Server
}

// NewServer creates a Server. metrics and caches may be nil, in which case
// their endpoints are not mounted.
func NewServer(conf *Config, metrics *prometheus.Metrics, caches *cache.Manager) *Server {
	mux := http.NewServeMux()

	if metrics != nil {
		mux.Handle(pathMetrics, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	}
	if caches != nil {
		mux.HandleFunc(pathCaches, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(caches.Reports()); err != nil {
				logging.DefaultLogger().Warnf("write cache reports: %v", err)
			}
		})
	}
	if conf.EnablePprof {
		mux.HandleFunc(pathPProf, pprof.Index)
		mux.HandleFunc(pathPProf+"cmdline", pprof.Cmdline)
		mux.HandleFunc(pathPProf+"profile", pprof.Profile)
		mux.HandleFunc(pathPProf+"symbol", pprof.Symbol)
		mux.HandleFunc(pathPProf+"trace", pprof.Trace)
		for _, name := range runtimeProfiles {
			mux.Handle(pathPProf+name, pprof.Handler(name))
		}
	}

	return &Server{
		conf:   conf,
		mux:    mux,
		logger: logging.New("profiling"),
	}
}

// Start listens on the configured port in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.srv = &http.Server{Addr: s.conf.Addr(), Handler: s.mux}
	srv := s.srv
	go func() {
		s.logger.Infof("serving profiling on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("profiling server: %v", err)
		}
	}()
	return nil
}

// Shutdown stops the server. A graceful shutdown waits for open requests.
func (s *Server) Shutdown(graceful bool) {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return
	}

	var err error
	if graceful {
		err = srv.Shutdown(context.Background())
	} else {
		err = srv.Close()
	}
	if err != nil {
		s.logger.Errorf("shutdown profiling server: %v", err)
	}
}
