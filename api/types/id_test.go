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

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backlogkit/backlog/api/types"
)

func TestIDOrKey(t *testing.T) {
	t.Run("parse id or key test", func(t *testing.T) {
		r, err := types.ParseIDOrKey("12345")
		assert.NoError(t, err)
		id, ok := r.ID()
		assert.True(t, ok)
		assert.Equal(t, int64(12345), id)
		_, ok = r.Key()
		assert.False(t, ok)

		r, err = types.ParseIDOrKey(" PROJECT_A ")
		assert.NoError(t, err)
		key, ok := r.Key()
		assert.True(t, ok)
		assert.Equal(t, "PROJECT_A", key)
		_, ok = r.ID()
		assert.False(t, ok)

		_, err = types.ParseIDOrKey("")
		assert.ErrorIs(t, err, types.ErrInvalidIDOrKey)
		_, err = types.ParseIDOrKey("-1")
		assert.ErrorIs(t, err, types.ErrInvalidIDOrKey)
	})

	t.Run("string prefers id test", func(t *testing.T) {
		assert.Equal(t, "10", types.NewIDAndKey(10, "FOO").String())
		assert.Equal(t, "FOO", types.NewKey("FOO").String())
		assert.True(t, types.NewIDAndKey(10, "FOO").IsBoth())
		assert.False(t, types.NewID(10).IsBoth())
		assert.True(t, types.IDOrKey{}.IsZero())
	})

	t.Run("flag value test", func(t *testing.T) {
		var r types.IDOrKey
		assert.NoError(t, r.Set("BAR"))
		assert.Equal(t, "BAR", r.String())
		assert.Equal(t, "IDOrKey", r.Type())
	})
}
