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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/pkg/cache"
	"github.com/backlogkit/backlog/server/profiling/prometheus"
)

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	metrics.AddProjectCacheHit()

	projects, err := cache.NewTTLCache[string, int64]("projects", 4, time.Minute, nil)
	require.NoError(t, err)
	projects.Add("PROJECT_A", 1)
	_, _ = projects.Get("PROJECT_A")
	caches := cache.NewManager(0)
	caches.RegisterCache(projects)

	t.Run("metrics and caches test", func(t *testing.T) {
		srv := httptest.NewServer(NewServer(&Config{Port: 8081}, metrics, caches).mux)
		defer srv.Close()

		status, body := get(t, srv.URL+pathMetrics)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "backlog_project_cache_hits_total 1")

		status, body = get(t, srv.URL+pathCaches)
		assert.Equal(t, http.StatusOK, status)
		var reports []cache.Report
		require.NoError(t, json.Unmarshal([]byte(body), &reports))
		require.Len(t, reports, 1)
		assert.Equal(t, "projects", reports[0].Name)
		assert.Equal(t, 1, reports[0].Len)
		assert.Equal(t, int64(1), reports[0].Hits)

		status, _ = get(t, srv.URL+pathPProf)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("pprof enabled test", func(t *testing.T) {
		srv := httptest.NewServer(NewServer(&Config{Port: 8081, EnablePprof: true}, nil, nil).mux)
		defer srv.Close()

		status, _ := get(t, srv.URL+pathPProf)
		assert.Equal(t, http.StatusOK, status)

		status, _ = get(t, srv.URL+pathMetrics)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("shutdown before start test", func(t *testing.T) {
		NewServer(&Config{Port: 8081}, nil, nil).Shutdown(true)
	})
}
