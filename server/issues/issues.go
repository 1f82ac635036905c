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

// Package issues provides the issue read and write paths: every operation
// checks project access first, resolves custom fields given by name and
// then calls the Backlog API.
package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/pkg/errors"
	"github.com/backlogkit/backlog/server/access"
	"github.com/backlogkit/backlog/server/customfields"
	"github.com/backlogkit/backlog/server/logging"
	"github.com/backlogkit/backlog/server/projects"
)

var (
	// ErrIssueTypeNotFound is returned when a project has no issue type with
	// the given name.
	ErrIssueTypeNotFound = errors.InvalidArgument("issue type not found").WithCode("ErrIssueTypeNotFound")

	// ErrPriorityNotFound is returned when no priority has the given name.
	ErrPriorityNotFound = errors.InvalidArgument("priority not found").WithCode("ErrPriorityNotFound")

	// ErrStatusNotFound is returned when a project has no status with the
	// given name.
	ErrStatusNotFound = errors.InvalidArgument("status not found").WithCode("ErrStatusNotFound")
)

// Client is the part of the Backlog API the issue paths use.
type Client interface {
	projects.Fetcher
	customfields.DefinitionLister

	GetIssueTypes(ctx context.Context, project types.IDOrKey) ([]*types.IssueType, error)
	GetStatuses(ctx context.Context, project types.IDOrKey) ([]*types.Status, error)
	GetPriorities(ctx context.Context) ([]*types.Priority, error)
	GetIssue(ctx context.Context, issueIDOrKey string) (*types.Issue, error)
	CreateIssue(ctx context.Context, fields *types.CreateIssueFields) (*types.Issue, error)
	UpdateIssue(ctx context.Context, issueIDOrKey string, fields *types.UpdateIssueFields) (*types.Issue, error)
}

// CreateRequest describes an issue to create. IssueType, Priority and
// Status accept either a name or a numeric ID.
type CreateRequest struct {
	Project      types.IDOrKey
	Summary      string
	IssueType    string
	Priority     string
	Description  string
	StartDate    *string
	DueDate      *string
	CustomFields map[string]json.RawMessage
}

// UpdateRequest describes the changes to an issue. Nil fields are left
// unchanged.
type UpdateRequest struct {
	Summary      *string
	Description  *string
	IssueType    *string
	Priority     *string
	Status       *string
	StartDate    *string
	DueDate      *string
	Comment      *string
	CustomFields map[string]json.RawMessage
}

// Service runs the issue paths against one Backlog space.
type Service struct {
	client Client
	access *access.Control
	cache  *projects.CacheManager
	logger logging.Logger
}

// New creates an instance of Service.
func New(client Client, control *access.Control, cache *projects.CacheManager) *Service {
	return &Service{
		client: client,
		access: control,
		cache:  cache,
		logger: logging.New("issues"),
	}
}

// GetIssue returns the issue after checking access to its project.
func (s *Service) GetIssue(ctx context.Context, issueIDOrKey string) (*types.Issue, error) {
	if err := s.checkIssueKey(issueIDOrKey); err != nil {
		return nil, err
	}

	issue, err := s.client.GetIssue(ctx, issueIDOrKey)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", issueIDOrKey, err)
	}

	if err := s.access.CheckProjectAccessByID(ctx, issue.ProjectID, s.client); err != nil {
		return nil, err
	}

	return issue, nil
}

// CreateIssue creates an issue.
func (s *Service) CreateIssue(ctx context.Context, req *CreateRequest) (*types.Issue, error) {
	// 1. Check access to the project.
	if err := s.access.CheckProjectAccess(ctx, req.Project, s.client); err != nil {
		return nil, err
	}

	// 2. Resolve the project, its ID is required by the API.
	project, err := s.cache.Resolve(ctx, req.Project, s.client)
	if err != nil {
		return nil, fmt.Errorf("resolve project %s: %w", req.Project, err)
	}
	ctx = projects.With(ctx, project)

	// 3. Resolve names into IDs.
	issueTypeID, err := s.resolveIssueType(ctx, req.IssueType)
	if err != nil {
		return nil, err
	}
	priorityID, err := s.resolvePriority(ctx, req.Priority)
	if err != nil {
		return nil, err
	}
	inputs, err := customfields.Resolve(ctx, s.client, project.IDOrKey(), req.CustomFields)
	if err != nil {
		return nil, err
	}

	// 4. Create the issue.
	fields := &types.CreateIssueFields{
		ProjectID:    project.ID,
		Summary:      req.Summary,
		IssueTypeID:  issueTypeID,
		PriorityID:   priorityID,
		Description:  req.Description,
		StartDate:    req.StartDate,
		DueDate:      req.DueDate,
		CustomFields: inputs,
	}
	if err := fields.Validate(); err != nil {
		return nil, fmt.Errorf("create issue: %v: %w", err, types.ErrInvalidIssueFields)
	}

	issue, err := s.client.CreateIssue(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("create issue in %s: %w", project.ProjectKey, err)
	}

	s.logger.Infof("created issue %s", issue.IssueKey)
	return issue, nil
}

// UpdateIssue updates an issue.
func (s *Service) UpdateIssue(ctx context.Context, issueIDOrKey string, req *UpdateRequest) (*types.Issue, error) {
	// 1. Fetch the issue to learn its project and check access.
	current, err := s.GetIssue(ctx, issueIDOrKey)
	if err != nil {
		return nil, err
	}

	project, err := s.cache.GetByID(ctx, current.ProjectID, s.client)
	if err != nil {
		return nil, fmt.Errorf("resolve project %d: %w", current.ProjectID, err)
	}
	ctx = projects.With(ctx, project)

	// 2. Resolve names into IDs.
	fields := &types.UpdateIssueFields{
		Summary:     req.Summary,
		Description: req.Description,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		Comment:     req.Comment,
	}
	if req.IssueType != nil {
		id, err := s.resolveIssueType(ctx, *req.IssueType)
		if err != nil {
			return nil, err
		}
		fields.IssueTypeID = &id
	}
	if req.Priority != nil {
		id, err := s.resolvePriority(ctx, *req.Priority)
		if err != nil {
			return nil, err
		}
		fields.PriorityID = &id
	}
	if req.Status != nil {
		id, err := s.resolveStatus(ctx, *req.Status)
		if err != nil {
			return nil, err
		}
		fields.StatusID = &id
	}
	if len(req.CustomFields) > 0 {
		if fields.CustomFields, err = customfields.Resolve(ctx, s.client, project.IDOrKey(), req.CustomFields); err != nil {
			return nil, err
		}
	}

	// 3. Update the issue.
	if err := fields.Validate(); err != nil {
		if errors.Is(err, types.ErrEmptyIssueFields) {
			return nil, err
		}
		return nil, fmt.Errorf("update issue: %v: %w", err, types.ErrInvalidIssueFields)
	}

	issue, err := s.client.UpdateIssue(ctx, issueIDOrKey, fields)
	if err != nil {
		return nil, fmt.Errorf("update issue %s: %w", issueIDOrKey, err)
	}

	s.logger.Infof("updated issue %s", issue.IssueKey)
	return issue, nil
}

// checkIssueKey rejects issue keys whose project prefix is denied, before
// any request is sent. Numeric issue IDs are checked after the fetch.
func (s *Service) checkIssueKey(issueIDOrKey string) error {
	idx := strings.LastIndex(issueIDOrKey, "-")
	if idx <= 0 {
		return nil
	}

	return s.access.CheckProjectAccessByKey(issueIDOrKey[:idx])
}

// resolveIssueType resolves an issue type of the project stored in ctx.
func (s *Service) resolveIssueType(ctx context.Context, nameOrID string) (int64, error) {
	if id, ok := parseID(nameOrID); ok {
		return id, nil
	}

	project := mustProject(ctx)
	issueTypes, err := s.client.GetIssueTypes(ctx, project.IDOrKey())
	if err != nil {
		return 0, fmt.Errorf("list issue types of %s: %w", project.ProjectKey, err)
	}

	names := make([]string, 0, len(issueTypes))
	for _, it := range issueTypes {
		if it.Name == nameOrID {
			return it.ID, nil
		}
		names = append(names, strconv.Quote(it.Name))
	}

	return 0, fmt.Errorf("issue type %q in %s, valid issue types: %s: %w",
		nameOrID, project.ProjectKey, strings.Join(names, ", "), ErrIssueTypeNotFound)
}

func (s *Service) resolvePriority(ctx context.Context, nameOrID string) (int64, error) {
	if id, ok := parseID(nameOrID); ok {
		return id, nil
	}

	priorities, err := s.client.GetPriorities(ctx)
	if err != nil {
		return 0, fmt.Errorf("list priorities: %w", err)
	}

	names := make([]string, 0, len(priorities))
	for _, p := range priorities {
		if p.Name == nameOrID {
			return p.ID, nil
		}
		names = append(names, strconv.Quote(p.Name))
	}

	return 0, fmt.Errorf("priority %q, valid priorities: %s: %w",
		nameOrID, strings.Join(names, ", "), ErrPriorityNotFound)
}

// resolveStatus resolves a status of the project stored in ctx.
func (s *Service) resolveStatus(ctx context.Context, nameOrID string) (int64, error) {
	if id, ok := parseID(nameOrID); ok {
		return id, nil
	}

	project := mustProject(ctx)
	statuses, err := s.client.GetStatuses(ctx, project.IDOrKey())
	if err != nil {
		return 0, fmt.Errorf("list statuses of %s: %w", project.ProjectKey, err)
	}

	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		if st.Name == nameOrID {
			return st.ID, nil
		}
		names = append(names, strconv.Quote(st.Name))
	}

	return 0, fmt.Errorf("status %q in %s, valid statuses: %s: %w",
		nameOrID, project.ProjectKey, strings.Join(names, ", "), ErrStatusNotFound)
}

// mustProject returns the project the service stored in ctx. Resolution
// helpers are only called after the project is known.
func mustProject(ctx context.Context) *types.Project {
	project, ok := projects.From(ctx)
	if !ok {
		panic("issues: project missing from context")
	}
	return project
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
