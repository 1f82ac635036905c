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

package httphealth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/server/rpc/httphealth"
)

func TestHealthHandler(t *testing.T) {
	get := func(t *testing.T, h http.Handler, target string) (int, httphealth.CheckResponse) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		var resp httphealth.CheckResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		return w.Code, resp
	}

	t.Run("liveness skips checker test", func(t *testing.T) {
		calls := 0
		path, h := httphealth.NewHandler(func(context.Context) error {
			calls++
			return errors.New("down")
		})
		assert.Equal(t, httphealth.Path, path)

		code, resp := get(t, h, path)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, httphealth.StatusServing, resp.Status)
		assert.Zero(t, calls)
	})

	t.Run("deep check test", func(t *testing.T) {
		_, h := httphealth.NewHandler(func(context.Context) error { return errors.New("down") })
		code, resp := get(t, h, httphealth.Path+"?deep")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, httphealth.StatusNotServing, resp.Status)
		assert.Equal(t, "down", resp.Error)

		_, h = httphealth.NewHandler(func(context.Context) error { return nil })
		code, _ = get(t, h, httphealth.Path+"?deep")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("method not allowed test", func(t *testing.T) {
		_, h := httphealth.NewHandler(nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, httphealth.Path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
