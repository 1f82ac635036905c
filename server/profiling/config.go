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

// Package profiling serves the operational endpoints of the MCP server on a
// port separate from the MCP endpoint: Prometheus metrics, cache statistics
// and, when enabled, pprof.
package profiling

import (
	"errors"
	"fmt"
)

// ErrInvalidProfilingPort is returned when the profiling port is out of range.
var ErrInvalidProfilingPort = errors.New("invalid port number for profiling server")

// Config configures the profiling Server.
type Config struct {
	// Port is the TCP port the profiling endpoints listen on.
	Port int `yaml:"Port"`

	// EnablePprof mounts the runtime profiles under /debug/pprof.
	EnablePprof bool `yaml:"EnablePprof"`
}

// Validate checks that the port is usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("profiling port %d out of range [1, 65535]: %w", c.Port, ErrInvalidProfilingPort)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
