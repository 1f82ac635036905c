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

package rpc_test

import (
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/server/rpc"
	"github.com/backlogkit/backlog/server/rpc/httphealth"
)

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = lis.Close() }()
	return lis.Addr().(*net.TCPAddr).Port
}

func TestServer(t *testing.T) {
	t.Run("serve and shutdown test", func(t *testing.T) {
		conf := &rpc.Config{Port: freePort(t), TokenDuration: "1h"}
		require.NoError(t, conf.Validate())

		s := rpc.NewServer(conf)
		s.Handle(httphealth.NewHandler(nil))
		require.NoError(t, s.Start())
		defer s.Shutdown(true)

		addr := s.Addr()
		port := addr[strings.LastIndex(addr, ":"):]
		resp, err := http.Get("http://localhost" + port + httphealth.Path)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("port in use test", func(t *testing.T) {
		lis, err := net.Listen("tcp", ":0")
		require.NoError(t, err)
		defer func() { _ = lis.Close() }()

		s := rpc.NewServer(&rpc.Config{Port: lis.Addr().(*net.TCPAddr).Port})
		assert.Error(t, s.Start())
	})
}

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		conf := &rpc.Config{Port: 8080, TokenDuration: "24h"}
		assert.NoError(t, conf.Validate())
		assert.False(t, conf.AuthEnabled())

		conf.Token = "t"
		assert.True(t, conf.AuthEnabled())

		conf.Port = 0
		assert.ErrorIs(t, conf.Validate(), rpc.ErrInvalidRPCPort)
	})

	t.Run("token duration test", func(t *testing.T) {
		conf := &rpc.Config{Port: 8080, TokenDuration: "tomorrow"}
		assert.Error(t, conf.Validate())
		_, err := conf.ParseTokenDuration()
		assert.ErrorIs(t, err, rpc.ErrInvalidTokenDuration)
	})

	t.Run("missing cert file test", func(t *testing.T) {
		conf := &rpc.Config{Port: 8080, TokenDuration: "1h", CertFile: "nowhere.pem"}
		assert.ErrorIs(t, conf.Validate(), rpc.ErrInvalidCertFile)
	})
}
