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

package access_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/api/types"
	pkgerrors "github.com/backlogkit/backlog/pkg/errors"
	"github.com/backlogkit/backlog/server/access"
	"github.com/backlogkit/backlog/server/projects"
)

type fakeFetcher struct {
	projects map[int64]*types.Project
	calls    atomic.Int32
}

func (f *fakeFetcher) GetProject(_ context.Context, ref types.IDOrKey) (*types.Project, error) {
	f.calls.Add(1)
	if id, ok := ref.ID(); ok {
		if p, ok := f.projects[id]; ok {
			return p, nil
		}
	}
	return nil, errors.New("project not found")
}

type deniedCounter struct {
	denied []string
}

func (m *deniedCounter) AddAccessDenied(project string) {
	m.denied = append(m.denied, project)
}

func TestControlDisabled(t *testing.T) {
	ctx := context.Background()

	for _, raw := range []string{"", "   ", " , ,"} {
		t.Run("allow-list "+raw+" test", func(t *testing.T) {
			cache := projects.New()
			fetcher := &fakeFetcher{}
			control := access.New(raw, cache)

			assert.False(t, control.IsEnabled())
			assert.Empty(t, control.AllowedProjects())
			assert.NoError(t, control.CheckProjectAccessByKey("ANY_PROJECT"))
			assert.NoError(t, control.CheckProjectAccessByID(ctx, 999999, fetcher))
			assert.NoError(t, control.CheckProjectAccess(ctx, types.NewKey("NOPE"), fetcher))
			assert.NoError(t, control.CheckProjectAccess(ctx, types.NewID(424242), fetcher))
			assert.NoError(t, control.CheckProjectAccess(ctx, types.NewIDAndKey(1, "X"), fetcher))

			assert.Equal(t, int32(0), fetcher.calls.Load())
			assert.Equal(t, 0, cache.Size())
		})
	}
}

func TestControlEnabled(t *testing.T) {
	ctx := context.Background()

	t.Run("allow and deny by key test", func(t *testing.T) {
		control := access.New("PROJECT_A,PROJECT_B", projects.New())
		require.True(t, control.IsEnabled())

		assert.NoError(t, control.CheckProjectAccessByKey("PROJECT_A"))

		err := control.CheckProjectAccessByKey("PROJECT_C")
		require.Error(t, err)
		assert.ErrorIs(t, err, access.ErrAccessDenied)
		assert.Equal(t, pkgerrors.ErrCodePermissionDenied, pkgerrors.StatusOf(err))

		var denied *access.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "PROJECT_C", denied.Project)
		assert.Equal(t, []string{"PROJECT_A", "PROJECT_B"}, denied.AllowedProjects)
		assert.Contains(t, err.Error(), "PROJECT_A, PROJECT_B")
	})

	t.Run("allow-list parsing test", func(t *testing.T) {
		control := access.New(" PROJECT_B , ,PROJECT_A,PROJECT_B ", projects.New())
		assert.Equal(t, []string{"PROJECT_B", "PROJECT_A"}, control.AllowedProjects())

		allowed := control.AllowedProjects()
		allowed[0] = "MUTATED"
		assert.Equal(t, "PROJECT_B", control.AllowedProjects()[0])
	})

	t.Run("from env test", func(t *testing.T) {
		t.Setenv(access.EnvAllowedProjects, "PROJECT_A, PROJECT_B")
		control := access.NewFromEnv(projects.New())
		assert.True(t, control.IsEnabled())
		assert.Equal(t, []string{"PROJECT_A", "PROJECT_B"}, control.AllowedProjects())

		t.Setenv(access.EnvAllowedProjects, "")
		assert.False(t, access.NewFromEnv(projects.New()).IsEnabled())
	})

	t.Run("check by id uses cache first test", func(t *testing.T) {
		cache := projects.New()
		cache.CacheProject(&types.Project{ID: 1, ProjectKey: "PROJECT_A"})
		cache.CacheProject(&types.Project{ID: 3, ProjectKey: "PROJECT_C"})
		fetcher := &fakeFetcher{}
		control := access.New("PROJECT_A", cache)

		assert.NoError(t, control.CheckProjectAccessByID(ctx, 1, fetcher))
		assert.ErrorIs(t, control.CheckProjectAccessByID(ctx, 3, fetcher), access.ErrAccessDenied)
		assert.Equal(t, int32(0), fetcher.calls.Load())
	})

	t.Run("check by id fetches on miss test", func(t *testing.T) {
		cache := projects.New()
		fetcher := &fakeFetcher{projects: map[int64]*types.Project{
			2: {ID: 2, ProjectKey: "PROJECT_B"},
		}}
		control := access.New("PROJECT_A,PROJECT_B", cache)

		assert.NoError(t, control.CheckProjectAccessByID(ctx, 2, fetcher))
		assert.Equal(t, int32(1), fetcher.calls.Load())

		assert.NoError(t, control.CheckProjectAccessByID(ctx, 2, fetcher))
		assert.Equal(t, int32(1), fetcher.calls.Load())
	})

	t.Run("unresolvable id fails closed test", func(t *testing.T) {
		metrics := &deniedCounter{}
		control := access.New("PROJECT_A", projects.New(), access.WithMetrics(metrics))

		err := control.CheckProjectAccessByID(ctx, 77, &fakeFetcher{})
		var denied *access.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "77", denied.Project)
		assert.Equal(t, []string{"77"}, metrics.denied)
	})

	t.Run("both is checked by id test", func(t *testing.T) {
		cache := projects.New()
		cache.CacheProject(&types.Project{ID: 3, ProjectKey: "PROJECT_C"})
		control := access.New("PROJECT_A", cache)

		// The embedded key is allowed but the ID resolves to a denied project.
		err := control.CheckProjectAccess(ctx, types.NewIDAndKey(3, "PROJECT_A"), &fakeFetcher{})
		assert.ErrorIs(t, err, access.ErrAccessDenied)

		assert.NoError(t, control.CheckProjectAccess(ctx, types.NewKey("PROJECT_A"), &fakeFetcher{}))
		assert.ErrorIs(t, control.CheckProjectAccess(ctx, types.IDOrKey{}, &fakeFetcher{}), access.ErrAccessDenied)
	})

	t.Run("is allowed test", func(t *testing.T) {
		control := access.New("PROJECT_A", projects.New())
		assert.True(t, control.IsAllowed("PROJECT_A"))
		assert.False(t, control.IsAllowed("PROJECT_B"))
	})
}
