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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backlogkit/backlog/api/types"
)

func TestProject(t *testing.T) {
	t.Run("decode project test", func(t *testing.T) {
		raw := `{
			"id": 1,
			"projectKey": "TEST",
			"name": "test",
			"chartEnabled": false,
			"subtaskingEnabled": true,
			"projectLeaderCanEditProjectLeader": false,
			"textFormattingRule": "markdown",
			"archived": false,
			"displayOrder": 2147483646,
			"useDevAttributes": true
		}`

		var project types.Project
		assert.NoError(t, json.Unmarshal([]byte(raw), &project))
		assert.Equal(t, int64(1), project.ID)
		assert.Equal(t, "TEST", project.ProjectKey)
		assert.True(t, project.SubtaskingEnabled)
		assert.Equal(t, "markdown", project.TextFormattingRule)

		ref := project.IDOrKey()
		assert.True(t, ref.IsBoth())
	})

	t.Run("deep copy test", func(t *testing.T) {
		project := &types.Project{ID: 1, ProjectKey: "TEST"}
		copied := project.DeepCopy()
		copied.ProjectKey = "OTHER"
		assert.Equal(t, "TEST", project.ProjectKey)

		var nilProject *types.Project
		assert.Nil(t, nilProject.DeepCopy())
	})
}
