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

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/server/customfields"
	"github.com/backlogkit/backlog/server/issues"
	"github.com/backlogkit/backlog/server/projects"
)

// Tools returns the registered tools ordered by name.
func (h *Handler) Tools() []Tool {
	tools := make([]Tool, 0, len(h.tools))
	for _, def := range h.tools {
		tools = append(tools, def.Tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

var projectProperty = Property{
	Type:        "string",
	Description: "Project ID or project key, e.g. 12345 or PROJECT_A",
}

var customFieldsProperty = Property{
	Type: "object",
	Description: "Custom field values keyed by field name. Lists take an item name, " +
		"multiple lists an array of names; {name, other} and {items, other} set the other text.",
}

// registerTools registers all available MCP tools.
func (h *Handler) registerTools() {
	// Project tools
	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "get_project",
			Description: "Get a project by ID or key. Only allowed projects can be read.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{"project": projectProperty},
				Required:   []string{"project"},
			},
		},
		Handler: h.getProject,
	})

	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "list_projects",
			Description: "List the projects the server may access.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{},
			},
		},
		Handler: h.listProjects,
	})

	// Custom field tools
	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "list_custom_fields",
			Description: "List the custom field definitions of a project, including list items.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{"project": projectProperty},
				Required:   []string{"project"},
			},
		},
		Handler: h.listCustomFields,
	})

	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "resolve_custom_fields",
			Description: "Resolve custom field values given by name into the form values sent to Backlog, without writing anything.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"project":       projectProperty,
					"custom_fields": customFieldsProperty,
				},
				Required: []string{"project", "custom_fields"},
			},
		},
		Handler: h.resolveCustomFields,
	})

	// Issue tools
	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "get_issue",
			Description: "Get an issue by ID or issue key, e.g. PROJECT_A-12.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"issue": {Type: "string", Description: "Issue ID or issue key"},
				},
				Required: []string{"issue"},
			},
		},
		Handler: h.getIssue,
	})

	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "create_issue",
			Description: "Create an issue. Issue type and priority accept a name or an ID.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"project":       projectProperty,
					"summary":       {Type: "string", Description: "Issue summary"},
					"issue_type":    {Type: "string", Description: "Issue type name or ID"},
					"priority":      {Type: "string", Description: "Priority name or ID"},
					"description":   {Type: "string", Description: "Issue description"},
					"start_date":    {Type: "string", Description: "Start date (yyyy-MM-dd)"},
					"due_date":      {Type: "string", Description: "Due date (yyyy-MM-dd)"},
					"custom_fields": customFieldsProperty,
				},
				Required: []string{"project", "summary", "issue_type", "priority"},
			},
		},
		Handler: h.createIssue,
	})

	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "update_issue",
			Description: "Update an issue. Omitted fields are left unchanged.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"issue":         {Type: "string", Description: "Issue ID or issue key"},
					"summary":       {Type: "string", Description: "Issue summary"},
					"issue_type":    {Type: "string", Description: "Issue type name or ID"},
					"priority":      {Type: "string", Description: "Priority name or ID"},
					"status":        {Type: "string", Description: "Status name or ID"},
					"description":   {Type: "string", Description: "Issue description"},
					"start_date":    {Type: "string", Description: "Start date (yyyy-MM-dd)"},
					"due_date":      {Type: "string", Description: "Due date (yyyy-MM-dd)"},
					"comment":       {Type: "string", Description: "Comment added with the update"},
					"custom_fields": customFieldsProperty,
				},
				Required: []string{"issue"},
			},
		},
		Handler: h.updateIssue,
	})

	// Diagnostics
	h.registerTool(&ToolDefinition{
		Tool: Tool{
			Name:        "get_cache_stats",
			Description: "Get the statistics of the project cache.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{},
			},
		},
		Handler: h.getCacheStats,
	})
}

// registerTool registers a tool definition.
func (h *Handler) registerTool(def *ToolDefinition) {
	h.tools[def.Tool.Name] = def
}

type projectParams struct {
	Project string `json:"project"`
}

type resolveParams struct {
	Project      string                     `json:"project"`
	CustomFields map[string]json.RawMessage `json:"custom_fields"`
}

type issueParams struct {
	Issue string `json:"issue"`
}

type createIssueParams struct {
	Project      string                     `json:"project"`
	Summary      string                     `json:"summary"`
	IssueType    string                     `json:"issue_type"`
	Priority     string                     `json:"priority"`
	Description  string                     `json:"description"`
	StartDate    *string                    `json:"start_date"`
	DueDate      *string                    `json:"due_date"`
	CustomFields map[string]json.RawMessage `json:"custom_fields"`
}

type updateIssueParams struct {
	Issue        string                     `json:"issue"`
	Summary      *string                    `json:"summary"`
	IssueType    *string                    `json:"issue_type"`
	Priority     *string                    `json:"priority"`
	Status       *string                    `json:"status"`
	Description  *string                    `json:"description"`
	StartDate    *string                    `json:"start_date"`
	DueDate      *string                    `json:"due_date"`
	Comment      *string                    `json:"comment"`
	CustomFields map[string]json.RawMessage `json:"custom_fields"`
}

// ResolvedField is a custom field value as it is sent to Backlog.
type ResolvedField struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Value string  `json:"value"`
	Other *string `json:"other,omitempty"`
}

// CacheStats is the result of get_cache_stats.
type CacheStats struct {
	Name        string  `json:"name"`
	Size        int     `json:"size"`
	MaxSize     int     `json:"maxSize"`
	TTL         string  `json:"ttl"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	HitRate     float64 `json:"hitRate"`
}

// getProject returns a project after checking access to it.
func (h *Handler) getProject(ctx context.Context, params json.RawMessage) (any, error) {
	var p projectParams
	if err := parseParams(params, &p); err != nil {
		return nil, err
	}

	ref, err := h.checkProject(ctx, p.Project)
	if err != nil {
		return nil, err
	}

	return projects.GetProject(ctx, h.cache, h.backlog, ref)
}

// listProjects returns the projects filtered by the allow-list.
func (h *Handler) listProjects(ctx context.Context, _ json.RawMessage) (any, error) {
	list, err := projects.ListProjects(ctx, h.cache, h.backlog)
	if err != nil {
		return nil, err
	}

	if h.access.IsEnabled() {
		list = projects.FilterProjects(list, h.access.IsAllowed)
	}
	return list, nil
}

// listCustomFields returns the custom field definitions of a project.
func (h *Handler) listCustomFields(ctx context.Context, params json.RawMessage) (any, error) {
	var p projectParams
	if err := parseParams(params, &p); err != nil {
		return nil, err
	}

	ref, err := h.checkProject(ctx, p.Project)
	if err != nil {
		return nil, err
	}

	return h.backlog.GetCustomFieldList(ctx, ref)
}

// resolveCustomFields resolves custom field values by name without writing.
func (h *Handler) resolveCustomFields(ctx context.Context, params json.RawMessage) (any, error) {
	var p resolveParams
	if err := parseParams(params, &p); err != nil {
		return nil, err
	}

	ref, err := h.checkProject(ctx, p.Project)
	if err != nil {
		return nil, err
	}

	project, err := h.cache.Resolve(ctx, ref, h.backlog)
	if err != nil {
		return nil, err
	}

	defs, err := h.backlog.GetCustomFieldList(ctx, project.IDOrKey())
	if err != nil {
		return nil, err
	}

	inputs, err := customfields.Resolve(ctx, definitions(defs), project.IDOrKey(), p.CustomFields)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]string, len(defs))
	for _, def := range defs {
		byID[def.ID] = def.Name
	}

	resolved := make([]ResolvedField, 0, len(inputs))
	for id, input := range inputs {
		value, other := types.ToFormValue(input)
		resolved = append(resolved, ResolvedField{
			ID:    id,
			Name:  byID[id],
			Type:  input.FieldType().String(),
			Value: value,
			Other: other,
		})
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].ID < resolved[j].ID })

	return resolved, nil
}

// getIssue returns an issue of an allowed project.
func (h *Handler) getIssue(ctx context.Context, params json.RawMessage) (any, error) {
	var p issueParams
	if err := parseParams(params, &p); err != nil {
		return nil, err
	}
	if p.Issue == "" {
		return nil, fmt.Errorf("issue is required: %w", types.ErrInvalidIDOrKey)
	}

	return h.issues.GetIssue(ctx, p.Issue)
}

// createIssue creates an issue in an allowed project.
func (h *Handler) createIssue(ctx context.Context, params json.RawMessage) (any, error) {
	var p createIssueParams
	if err := parseParams(params, &p); err != nil {
		return nil, err
	}

	ref, err := types.ParseIDOrKey(p.Project)
	if err != nil {
		return nil, err
	}

	return h.issues.CreateIssue(ctx, &issues.CreateRequest{
		Project:      ref,
		Summary:      p.Summary,
		IssueType:    p.IssueType,
		Priority:     p.Priority,
		Description:  p.Description,
		StartDate:    p.StartDate,
		DueDate:      p.DueDate,
		CustomFields: p.CustomFields,
	})
}

// updateIssue updates an issue of an allowed project.
func (h *Handler) updateIssue(ctx context.Context, params json.RawMessage) (any, error) {
	var p updateIssueParams
	if err := parseParams(params, &p); err != nil {
		return nil, err
	}
	if p.Issue == "" {
		return nil, fmt.Errorf("issue is required: %w", types.ErrInvalidIDOrKey)
	}

	return h.issues.UpdateIssue(ctx, p.Issue, &issues.UpdateRequest{
		Summary:      p.Summary,
		Description:  p.Description,
		IssueType:    p.IssueType,
		Priority:     p.Priority,
		Status:       p.Status,
		StartDate:    p.StartDate,
		DueDate:      p.DueDate,
		Comment:      p.Comment,
		CustomFields: p.CustomFields,
	})
}

// getCacheStats returns the statistics of the project cache.
func (h *Handler) getCacheStats(_ context.Context, _ json.RawMessage) (any, error) {
	conf := h.cache.Config()
	stats := h.cache.Stats()
	return &CacheStats{
		Name:        h.cache.Name(),
		Size:        h.cache.Size(),
		MaxSize:     conf.MaxSize,
		TTL:         conf.TTL.String(),
		Hits:        stats.Hits(),
		Misses:      stats.Misses(),
		Evictions:   stats.Evictions(),
		Expirations: stats.Expirations(),
		HitRate:     stats.HitRate(),
	}, nil
}

// definitions serves already fetched definitions to customfields.Resolve.
type definitions []*types.CustomFieldType

func (d definitions) GetCustomFieldList(context.Context, types.IDOrKey) ([]*types.CustomFieldType, error) {
	return d, nil
}

// checkProject parses the project reference and runs the access check.
func (h *Handler) checkProject(ctx context.Context, project string) (types.IDOrKey, error) {
	ref, err := types.ParseIDOrKey(project)
	if err != nil {
		return types.IDOrKey{}, err
	}

	if err := h.access.CheckProjectAccess(ctx, ref, h.backlog); err != nil {
		return types.IDOrKey{}, err
	}

	return ref, nil
}

// parseParams decodes tool arguments. Missing arguments decode to the zero
// value.
func parseParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
