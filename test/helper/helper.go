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

// Package helper provides helper functions for testing.
package helper

import (
	"fmt"
	"net"
	gotime "time"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/server"
	"github.com/backlogkit/backlog/server/profiling"
	"github.com/backlogkit/backlog/server/rpc"
)

// Below are the values of the server config used in the test.
var (
	MCPPort = 11101

	ProfilingPort = 11102

	MCPToken            = "test-mcp-token"
	ProjectCacheSize    = 16
	ProjectCacheTTL     = 5 * gotime.Second
	CustomFieldCacheTTL = 5 * gotime.Second
	RequestTimeout      = 5 * gotime.Second
)

// Below are the fixtures of NewSeededBacklogServer.
var (
	ProjectA = &types.Project{ID: 1, ProjectKey: "PROJECT_A", Name: "Project A", TextFormattingRule: "markdown"}
	ProjectB = &types.Project{ID: 2, ProjectKey: "PROJECT_B", Name: "Project B", TextFormattingRule: "markdown"}
	Secret   = &types.Project{ID: 3, ProjectKey: "SECRET", Name: "Secret", TextFormattingRule: "markdown"}

	BugType    = &types.IssueType{ID: 10, ProjectID: ProjectA.ID, Name: "Bug"}
	TaskType   = &types.IssueType{ID: 11, ProjectID: ProjectA.ID, Name: "Task"}
	SecretType = &types.IssueType{ID: 12, ProjectID: Secret.ID, Name: "Task"}

	StatusOpen   = &types.Status{ID: 1, ProjectID: ProjectA.ID, Name: "Open", DisplayOrder: 1}
	StatusClosed = &types.Status{ID: 4, ProjectID: ProjectA.ID, Name: "Closed", DisplayOrder: 4}

	PriorityHigh   = &types.Priority{ID: 2, Name: "High"}
	PriorityNormal = &types.Priority{ID: 3, Name: "Normal"}

	SeverityField = &types.CustomFieldType{
		ID:           100,
		ProjectID:    ProjectA.ID,
		TypeID:       types.FieldTypeSingleList,
		Name:         "Severity",
		DisplayOrder: 1,
		Settings: &types.SingleListSettings{ListSettings: types.ListSettings{
			Items: []types.ListItem{
				{ID: 1001, Name: "High", DisplayOrder: 1},
				{ID: 1002, Name: "Low", DisplayOrder: 2},
			},
			AllowInput: true,
		}},
	}
	TagsField = &types.CustomFieldType{
		ID:           101,
		ProjectID:    ProjectA.ID,
		TypeID:       types.FieldTypeMultipleList,
		Name:         "Tags",
		DisplayOrder: 2,
		Settings: &types.MultipleListSettings{ListSettings: types.ListSettings{
			Items: []types.ListItem{
				{ID: 1101, Name: "backend", DisplayOrder: 1},
				{ID: 1102, Name: "frontend", DisplayOrder: 2},
			},
		}},
	}
	EstimateField = &types.CustomFieldType{
		ID:           102,
		ProjectID:    ProjectA.ID,
		TypeID:       types.FieldTypeNumeric,
		Name:         "Estimate",
		DisplayOrder: 3,
		Settings:     &types.NumericSettings{},
	}
	ReleaseField = &types.CustomFieldType{
		ID:           103,
		ProjectID:    ProjectA.ID,
		TypeID:       types.FieldTypeDate,
		Name:         "Release",
		DisplayOrder: 4,
		Settings:     &types.DateSettings{},
	}
	NoteField = &types.CustomFieldType{
		ID:           104,
		ProjectID:    ProjectA.ID,
		TypeID:       types.FieldTypeText,
		Name:         "Note",
		DisplayOrder: 5,
		Settings:     &types.TextSettings{},
	}
)

// NewSeededBacklogServer starts a fake Backlog holding the fixtures above and
// one issue, PROJECT_A-1.
func NewSeededBacklogServer() (*BacklogServer, error) {
	s, err := NewBacklogServer()
	if err != nil {
		return nil, err
	}

	for _, p := range []*types.Project{ProjectA, ProjectB, Secret} {
		if err := s.AddProject(p); err != nil {
			return nil, err
		}
	}
	for _, it := range []*types.IssueType{BugType, TaskType, SecretType} {
		if err := s.AddIssueType(it); err != nil {
			return nil, err
		}
	}
	for _, st := range []*types.Status{StatusOpen, StatusClosed} {
		if err := s.AddStatus(st); err != nil {
			return nil, err
		}
	}
	for _, p := range []*types.Priority{PriorityHigh, PriorityNormal} {
		if err := s.AddPriority(p); err != nil {
			return nil, err
		}
	}
	for _, def := range []*types.CustomFieldType{SeverityField, TagsField, EstimateField, ReleaseField, NoteField} {
		if err := s.AddCustomField(def); err != nil {
			return nil, err
		}
	}

	low := SeverityField.Settings.(*types.SingleListSettings).Items[1]
	if err := s.AddIssue(&types.Issue{
		ID:        1,
		ProjectID: ProjectA.ID,
		IssueKey:  "PROJECT_A-1",
		KeyID:     1,
		IssueType: BugType,
		Summary:   "First issue",
		Priority:  PriorityNormal,
		Status:    StatusOpen,
		CustomFields: []types.CustomField{
			{ID: SeverityField.ID, FieldTypeID: SeverityField.TypeID, Name: SeverityField.Name,
				Value: &types.SingleListValue{Item: &low}},
			{ID: TagsField.ID, FieldTypeID: TagsField.TypeID, Name: TagsField.Name},
			{ID: EstimateField.ID, FieldTypeID: EstimateField.TypeID, Name: EstimateField.Name},
			{ID: ReleaseField.ID, FieldTypeID: ReleaseField.TypeID, Name: ReleaseField.Name},
			{ID: NoteField.ID, FieldTypeID: NoteField.TypeID, Name: NoteField.Name,
				Value: &types.TextValue{Value: "seeded"}},
		},
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// TestConfig returns config for creating a server instance that talks to the
// given space.
func TestConfig(spaceURL string) *server.Config {
	return &server.Config{
		Backlog: &server.BacklogConfig{
			SpaceURL:             spaceURL,
			APIKey:               BacklogAPIKey,
			RequestTimeout:       RequestTimeout.String(),
			CustomFieldCacheSize: 8,
			CustomFieldCacheTTL:  CustomFieldCacheTTL.String(),
		},
		ProjectCache: &server.ProjectCacheConfig{
			TTL:           ProjectCacheTTL.String(),
			MaxSize:       ProjectCacheSize,
			StatsInterval: gotime.Minute.String(),
		},
		MCP: &rpc.Config{
			Port:          MCPPort,
			Token:         MCPToken,
			TokenDuration: gotime.Hour.String(),
		},
		Profiling: &profiling.Config{
			Port: ProfilingPort,
		},
	}
}

// TestServer returns a new server for testing.
func TestServer(spaceURL string) (*server.Backlog, error) {
	return server.New(TestConfig(spaceURL))
}

// WaitForServerToStart waits for the server to start.
func WaitForServerToStart(addr string) error {
	maxRetries := 10
	initialDelay := 100 * gotime.Millisecond
	maxDelay := 5 * gotime.Second

	for attempt := range maxRetries {
		// Exponential backoff calculation
		delay := initialDelay * gotime.Duration(1<<uint(attempt))
		delay = min(delay, maxDelay)

		conn, err := net.DialTimeout("tcp", addr, 1*gotime.Second)
		if err != nil {
			gotime.Sleep(delay)
			continue
		}

		err = conn.Close()
		if err != nil {
			return fmt.Errorf("close connection: %w", err)
		}

		return nil
	}

	return fmt.Errorf("timeout for server to start: %s", addr)
}
