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

package profiling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backlogkit/backlog/server/profiling"
)

func TestConfigValidate(t *testing.T) {
	for _, port := range []int{-1, 0, 65536} {
		conf := &profiling.Config{Port: port}
		assert.ErrorIs(t, conf.Validate(), profiling.ErrInvalidProfilingPort, "port %d", port)
	}

	conf := &profiling.Config{Port: 8081, EnablePprof: true}
	assert.NoError(t, conf.Validate())
	assert.Equal(t, ":8081", conf.Addr())
}
