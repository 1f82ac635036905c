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

// Package client provides a client of the Backlog REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/pkg/cache"
	"github.com/backlogkit/backlog/pkg/limit"
	"github.com/backlogkit/backlog/server/logging"
)

const (
	// apiPath is the path of the API below the space URL.
	apiPath = "/api/v2/"

	// customFieldCacheName is the name the definition cache reports.
	customFieldCacheName = "custom-field"
)

// Metrics receives the duration of every API request.
type Metrics interface {
	ObserveAPIRequest(operation string, duration time.Duration)
}

// Client is a client of the Backlog REST API of one space. It is safe for
// concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	limiter    *limit.Limiter
	logger     logging.Logger
	metrics    Metrics

	fieldCache *cache.TTLCache[string, []*types.CustomFieldType]
}

// New creates an instance of Client for the given space URL, e.g.
// "https://example.backlog.com".
func New(spaceURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	base, err := url.Parse(strings.TrimRight(spaceURL, "/") + apiPath)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%q: %w", spaceURL, ErrInvalidSpaceURL)
	}

	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	next := httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped := *httpClient
	wrapped.Transport = &authTransport{apiKey: apiKey, next: next}

	logger := options.Logger
	if logger == nil {
		logger = logging.New("client")
	}

	c := &Client{
		baseURL:    base,
		httpClient: &wrapped,
		timeout:    options.RequestTimeout,
		limiter:    limit.New(options.RateLimit, options.RateBurst, options.MaxInFlight),
		logger:     logger,
		metrics:    options.Metrics,
	}

	if options.CustomFieldCacheSize > 0 {
		c.fieldCache, err = cache.NewTTLCache[string, []*types.CustomFieldType](
			customFieldCacheName,
			options.CustomFieldCacheSize,
			options.CustomFieldCacheTTL,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("new custom field cache: %w", err)
		}
	}

	return c, nil
}

// CustomFieldCache returns the custom field definition cache, or nil when it
// is disabled.
func (c *Client) CustomFieldCache() *cache.TTLCache[string, []*types.CustomFieldType] {
	return c.fieldCache
}

// GetSpace returns the space of the API key.
func (c *Client) GetSpace(ctx context.Context) (*types.Space, error) {
	space := &types.Space{}
	if err := c.do(ctx, "GetSpace", http.MethodGet, "space", nil, nil, space); err != nil {
		return nil, err
	}

	return space, nil
}

// GetProject returns the referenced project.
func (c *Client) GetProject(ctx context.Context, project types.IDOrKey) (*types.Project, error) {
	p := &types.Project{}
	if err := c.do(ctx, "GetProject", http.MethodGet, "projects/"+segment(project), nil, nil, p); err != nil {
		return nil, err
	}

	return p, nil
}

// ListProjects lists the projects the API key can access, archived ones
// included.
func (c *Client) ListProjects(ctx context.Context) ([]*types.Project, error) {
	var projects []*types.Project
	if err := c.do(ctx, "ListProjects", http.MethodGet, "projects", nil, nil, &projects); err != nil {
		return nil, err
	}

	return projects, nil
}

// GetCustomFieldList returns the custom field definitions of the project.
// Definitions served from the cache are shared and must not be modified.
func (c *Client) GetCustomFieldList(ctx context.Context, project types.IDOrKey) ([]*types.CustomFieldType, error) {
	cacheKey := segment(project)
	if c.fieldCache != nil {
		if defs, ok := c.fieldCache.Get(cacheKey); ok {
			return defs, nil
		}
	}

	var defs []*types.CustomFieldType
	path := "projects/" + cacheKey + "/customFields"
	if err := c.do(ctx, "GetCustomFieldList", http.MethodGet, path, nil, nil, &defs); err != nil {
		return nil, err
	}

	if c.fieldCache != nil {
		c.fieldCache.Add(cacheKey, defs)
	}

	return defs, nil
}

// InvalidateCustomFieldList drops the cached definitions of the project.
func (c *Client) InvalidateCustomFieldList(project types.IDOrKey) {
	if c.fieldCache != nil {
		c.fieldCache.Remove(segment(project))
	}
}

// GetIssueTypes returns the issue types of the project.
func (c *Client) GetIssueTypes(ctx context.Context, project types.IDOrKey) ([]*types.IssueType, error) {
	var issueTypes []*types.IssueType
	path := "projects/" + segment(project) + "/issueTypes"
	if err := c.do(ctx, "GetIssueTypes", http.MethodGet, path, nil, nil, &issueTypes); err != nil {
		return nil, err
	}

	return issueTypes, nil
}

// GetStatuses returns the statuses of the project.
func (c *Client) GetStatuses(ctx context.Context, project types.IDOrKey) ([]*types.Status, error) {
	var statuses []*types.Status
	path := "projects/" + segment(project) + "/statuses"
	if err := c.do(ctx, "GetStatuses", http.MethodGet, path, nil, nil, &statuses); err != nil {
		return nil, err
	}

	return statuses, nil
}

// GetPriorities returns the priorities of the space.
func (c *Client) GetPriorities(ctx context.Context) ([]*types.Priority, error) {
	var priorities []*types.Priority
	if err := c.do(ctx, "GetPriorities", http.MethodGet, "priorities", nil, nil, &priorities); err != nil {
		return nil, err
	}

	return priorities, nil
}

// GetIssue returns the issue with the given ID or key.
func (c *Client) GetIssue(ctx context.Context, issueIDOrKey string) (*types.Issue, error) {
	issue := &types.Issue{}
	path := "issues/" + url.PathEscape(issueIDOrKey)
	if err := c.do(ctx, "GetIssue", http.MethodGet, path, nil, nil, issue); err != nil {
		return nil, err
	}

	return issue, nil
}

// CreateIssue creates an issue.
func (c *Client) CreateIssue(ctx context.Context, fields *types.CreateIssueFields) (*types.Issue, error) {
	issue := &types.Issue{}
	if err := c.do(ctx, "CreateIssue", http.MethodPost, "issues", nil, fields.Form(), issue); err != nil {
		return nil, err
	}

	return issue, nil
}

// UpdateIssue updates the issue with the given ID or key.
func (c *Client) UpdateIssue(
	ctx context.Context,
	issueIDOrKey string,
	fields *types.UpdateIssueFields,
) (*types.Issue, error) {
	issue := &types.Issue{}
	path := "issues/" + url.PathEscape(issueIDOrKey)
	if err := c.do(ctx, "UpdateIssue", http.MethodPatch, path, nil, fields.Form(), issue); err != nil {
		return nil, err
	}

	return issue, nil
}

// do sends a request and decodes the JSON response into out. A non-nil form
// is sent as the urlencoded body.
func (c *Client) do(
	ctx context.Context,
	operation string,
	method string,
	path string,
	query url.Values,
	form url.Values,
	out any,
) error {
	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer release()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL.JoinPath(path)
	endpoint.RawQuery = query.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.ObserveAPIRequest(operation, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(method, "/"+strings.TrimPrefix(endpoint.Path, "/"), resp.StatusCode, data)
		c.logger.Debugf("%s: %v", operation, apiErr)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}

	return nil
}

// segment renders the reference as an escaped path segment.
func segment(ref types.IDOrKey) string {
	return url.PathEscape(ref.String())
}
