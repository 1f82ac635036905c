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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/server/rpc/mcp"
	"github.com/backlogkit/backlog/test/helper"
)

// mcpRequest makes a JSON-RPC request to the MCP endpoint.
func mcpRequest(t *testing.T, token, method string, params any) *mcp.Response {
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		reqBody["params"] = params
	}

	body, err := json.Marshal(reqBody)
	require.NoError(t, err)

	url := fmt.Sprintf("http://%s%s", defaultServer.MCPAddr(), mcp.Path)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.NotEmpty(t, resp.Header.Get(mcp.RequestIDHeader))

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	result := &mcp.Response{}
	require.NoError(t, json.Unmarshal(respBody, result))
	return result
}

// callTool calls the tool and returns the text of its single content block.
func callTool(t *testing.T, name string, args any) (string, bool) {
	resp := mcpRequest(t, helper.MCPToken, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
	require.Nil(t, resp.Error)

	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result mcp.ToolCallResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Content, 1)
	return result.Content[0].Text, result.IsError
}

func TestMCP(t *testing.T) {
	t.Run("unauthenticated request test", func(t *testing.T) {
		resp := mcpRequest(t, "", "initialize", nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, mcp.ErrCodeUnauthorized, resp.Error.Code)

		resp = mcpRequest(t, "wrong-token", "initialize", nil)
		require.NotNil(t, resp.Error)
	})

	t.Run("initialize test", func(t *testing.T) {
		resp := mcpRequest(t, helper.MCPToken, "initialize", nil)
		require.Nil(t, resp.Error)

		result := resp.Result.(map[string]any)
		assert.Equal(t, mcp.MCPProtocolVersion, result["protocolVersion"])
		assert.NotEmpty(t, result["serverInfo"])
		assert.NotEmpty(t, result["capabilities"])
	})

	t.Run("tools/list test", func(t *testing.T) {
		resp := mcpRequest(t, helper.MCPToken, "tools/list", nil)
		require.Nil(t, resp.Error)

		result := resp.Result.(map[string]any)
		toolNames := make([]string, 0)
		for _, tool := range result["tools"].([]any) {
			toolNames = append(toolNames, tool.(map[string]any)["name"].(string))
		}
		assert.Contains(t, toolNames, "get_project")
		assert.Contains(t, toolNames, "list_projects")
		assert.Contains(t, toolNames, "resolve_custom_fields")
		assert.Contains(t, toolNames, "create_issue")
		assert.Contains(t, toolNames, "update_issue")
	})

	t.Run("list_projects filters by allow-list test", func(t *testing.T) {
		text, isError := callTool(t, "list_projects", map[string]any{})
		require.False(t, isError, text)

		var list []*types.Project
		require.NoError(t, json.Unmarshal([]byte(text), &list))
		keys := make([]string, 0, len(list))
		for _, p := range list {
			keys = append(keys, p.ProjectKey)
		}
		assert.ElementsMatch(t, []string{"PROJECT_A", "PROJECT_B"}, keys)
	})

	t.Run("get_project denied test", func(t *testing.T) {
		text, isError := callTool(t, "get_project", map[string]any{"project": "SECRET"})
		assert.True(t, isError)
		assert.Contains(t, text, `access denied to project "SECRET"`)

		text, isError = callTool(t, "get_project", map[string]any{"project": "3"})
		assert.True(t, isError)
		assert.Contains(t, text, "SECRET")
	})

	t.Run("resolve_custom_fields test", func(t *testing.T) {
		text, isError := callTool(t, "resolve_custom_fields", map[string]any{
			"project": "PROJECT_A",
			"custom_fields": map[string]any{
				"Severity": "High",
				"Tags":     []string{"backend", "frontend"},
				"Estimate": 3.5,
			},
		})
		require.False(t, isError, text)

		var fields []mcp.ResolvedField
		require.NoError(t, json.Unmarshal([]byte(text), &fields))
		require.Len(t, fields, 3)
		assert.Equal(t, helper.SeverityField.ID, fields[0].ID)
		assert.Equal(t, "1001", fields[0].Value)
		assert.Equal(t, helper.TagsField.ID, fields[1].ID)
		assert.Equal(t, "1101,1102", fields[1].Value)
		assert.Equal(t, helper.EstimateField.ID, fields[2].ID)

		text, isError = callTool(t, "resolve_custom_fields", map[string]any{
			"project":       "PROJECT_A",
			"custom_fields": map[string]any{"Severity": "Critical"},
		})
		assert.True(t, isError)
		assert.Contains(t, text, "Critical")
	})

	t.Run("create, get and update issue test", func(t *testing.T) {
		text, isError := callTool(t, "create_issue", map[string]any{
			"project":    "PROJECT_A",
			"summary":    "Created through MCP",
			"issue_type": "Task",
			"priority":   "High",
			"custom_fields": map[string]any{
				"Severity": "High",
				"Tags":     []string{"frontend"},
				"Release":  "2026-12-01",
			},
		})
		require.False(t, isError, text)

		created := &types.Issue{}
		require.NoError(t, json.Unmarshal([]byte(text), created))
		assert.Equal(t, helper.ProjectA.ID, created.ProjectID)
		assert.Equal(t, "Task", created.IssueType.Name)

		stored, ok := defaultBacklog.Issue(created.IssueKey)
		require.True(t, ok)
		severity, ok := stored.CustomField("Severity")
		require.True(t, ok)
		assert.Equal(t, "High", types.FormatCustomFieldValue(severity.Value))
		release, ok := stored.CustomField("Release")
		require.True(t, ok)
		assert.Equal(t, "2026-12-01", types.FormatCustomFieldValue(release.Value))

		text, isError = callTool(t, "update_issue", map[string]any{
			"issue":         created.IssueKey,
			"status":        "Closed",
			"custom_fields": map[string]any{"Note": "done"},
		})
		require.False(t, isError, text)

		text, isError = callTool(t, "get_issue", map[string]any{"issue": created.IssueKey})
		require.False(t, isError, text)
		fetched := &types.Issue{}
		require.NoError(t, json.Unmarshal([]byte(text), fetched))
		assert.Equal(t, "Closed", fetched.Status.Name)
		note, ok := fetched.CustomField("Note")
		require.True(t, ok)
		assert.Equal(t, "done", types.FormatCustomFieldValue(note.Value))
		severity, ok = fetched.CustomField("Severity")
		require.True(t, ok)
		assert.Equal(t, "High", types.FormatCustomFieldValue(severity.Value))
	})

	t.Run("issue of denied project test", func(t *testing.T) {
		text, isError := callTool(t, "get_issue", map[string]any{"issue": "SECRET-1"})
		assert.True(t, isError)
		assert.Contains(t, text, "SECRET")
		assert.Equal(t, 0, defaultBacklog.Requests("/api/v2/issues/SECRET-1"))

		text, isError = callTool(t, "create_issue", map[string]any{
			"project":    "SECRET",
			"summary":    "must not be created",
			"issue_type": "Task",
			"priority":   "High",
		})
		assert.True(t, isError)
		assert.Contains(t, text, "SECRET")
	})
}
