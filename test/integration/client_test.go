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

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/client"
	"github.com/backlogkit/backlog/pkg/errors"
	"github.com/backlogkit/backlog/server/rpc/httphealth"
	"github.com/backlogkit/backlog/test/helper"
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	cli, err := client.New(defaultBacklog.URL(), helper.BacklogAPIKey, client.WithCustomFieldCache(4, helper.CustomFieldCacheTTL))
	require.NoError(t, err)

	t.Run("rejected api key test", func(t *testing.T) {
		bad, err := client.New(defaultBacklog.URL(), "wrong")
		require.NoError(t, err)

		_, err = bad.GetSpace(ctx)
		assert.ErrorIs(t, err, client.ErrUnauthenticated)
		assert.Equal(t, errors.ErrCodeUnauthenticated, errors.StatusOf(err))
	})

	t.Run("custom field definitions test", func(t *testing.T) {
		defs, err := cli.GetCustomFieldList(ctx, types.NewKey("PROJECT_A"))
		require.NoError(t, err)
		require.Len(t, defs, 5)
		assert.Equal(t, types.FieldTypeSingleList, defs[0].TypeID)

		settings, ok := types.ListSettingsOf(defs[0].Settings)
		require.True(t, ok)
		assert.Equal(t, []string{"High", "Low"}, settings.ItemNames())

		path := "/api/v2/projects/PROJECT_A/customFields"
		before := defaultBacklog.Requests(path)
		_, err = cli.GetCustomFieldList(ctx, types.NewKey("PROJECT_A"))
		require.NoError(t, err)
		assert.Equal(t, before, defaultBacklog.Requests(path))

		cli.InvalidateCustomFieldList(types.NewKey("PROJECT_A"))
		_, err = cli.GetCustomFieldList(ctx, types.NewKey("PROJECT_A"))
		require.NoError(t, err)
		assert.Equal(t, before+1, defaultBacklog.Requests(path))
	})

	t.Run("issue custom field values test", func(t *testing.T) {
		issue, err := cli.GetIssue(ctx, "PROJECT_A-1")
		require.NoError(t, err)

		severity, ok := issue.CustomField("Severity")
		require.True(t, ok)
		value, ok := severity.Value.(*types.SingleListValue)
		require.True(t, ok)
		assert.Equal(t, "Low", value.Item.Name)

		tags, ok := issue.CustomField("Tags")
		require.True(t, ok)
		assert.Nil(t, tags.Value)
	})

	t.Run("create issue with every list shape test", func(t *testing.T) {
		other := "blocker"
		issue, err := cli.CreateIssue(ctx, &types.CreateIssueFields{
			ProjectID:   helper.ProjectA.ID,
			Summary:     "client issue",
			IssueTypeID: helper.BugType.ID,
			PriorityID:  helper.PriorityHigh.ID,
			CustomFields: map[int64]types.CustomFieldInput{
				helper.SeverityField.ID: &types.SingleListInput{ID: 1001, Other: &other},
				helper.TagsField.ID:     &types.MultipleListInput{IDs: []int64{1101, 1102}},
				helper.EstimateField.ID: &types.NumericInput{Value: 2.5},
			},
		})
		require.NoError(t, err)

		severity, ok := issue.CustomField("Severity")
		require.True(t, ok)
		assert.Equal(t, "High (blocker)", types.FormatCustomFieldValue(severity.Value))
		tags, ok := issue.CustomField("Tags")
		require.True(t, ok)
		assert.Len(t, tags.Value.(*types.MultipleListValue).Items, 2)
		estimate, ok := issue.CustomField("Estimate")
		require.True(t, ok)
		assert.Equal(t, 2.5, estimate.Value.(*types.NumericValue).Value)
	})

	t.Run("unknown list item is rejected test", func(t *testing.T) {
		_, err := cli.CreateIssue(ctx, &types.CreateIssueFields{
			ProjectID:   helper.ProjectA.ID,
			Summary:     "bad item",
			IssueTypeID: helper.BugType.ID,
			PriorityID:  helper.PriorityHigh.ID,
			CustomFields: map[int64]types.CustomFieldInput{
				helper.SeverityField.ID: &types.SingleListInput{ID: 9999},
			},
		})
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestHealthCheck(t *testing.T) {
	url := fmt.Sprintf("http://%s%s", defaultServer.MCPAddr(), httphealth.Path)

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	before := defaultBacklog.Requests("/api/v2/space")
	resp, err = http.Get(url + "?deep")
	require.NoError(t, err)
	assert.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, before+1, defaultBacklog.Requests("/api/v2/space"))
}
