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
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/internal/version"
	"github.com/backlogkit/backlog/server/access"
	"github.com/backlogkit/backlog/server/customfields"
	"github.com/backlogkit/backlog/server/issues"
	"github.com/backlogkit/backlog/server/logging"
	"github.com/backlogkit/backlog/server/projects"
	"github.com/backlogkit/backlog/server/rpc/auth"
)

const (
	// MCPProtocolVersion is the version of the MCP protocol supported.
	MCPProtocolVersion = "2024-11-05"

	// RequestIDHeader is the response header carrying the request id.
	RequestIDHeader = "X-Request-Id"

	// ServerName is the name reported in the initialize result.
	ServerName = "backlog-mcp"

	// Path is the path the handler is mounted on.
	Path = "/mcp/"
)

// Results of tool calls reported to Metrics.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Backlog is the part of the Backlog API the tools read through.
type Backlog interface {
	projects.Fetcher
	projects.Lister
	customfields.DefinitionLister
}

// Metrics records tool calls.
type Metrics interface {
	AddToolCall(tool, result string)
}

type nopMetrics struct{}

func (nopMetrics) AddToolCall(string, string) {}

// Handler handles MCP protocol requests.
type Handler struct {
	backlog         Backlog
	cache           *projects.CacheManager
	access          *access.Control
	issues          *issues.Service
	auth            *auth.Authenticator
	metrics         Metrics
	logger          logging.Logger
	maxRequestBytes int64
	tools           map[string]*ToolDefinition
}

// ToolDefinition defines a tool with its handler function.
type ToolDefinition struct {
	Tool    Tool
	Handler func(ctx context.Context, params json.RawMessage) (any, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithAuthenticator requires callers to present a bearer token.
func WithAuthenticator(a *auth.Authenticator) Option {
	return func(h *Handler) { h.auth = a }
}

// WithMetrics sets the metrics tool calls are recorded to.
func WithMetrics(metrics Metrics) Option {
	return func(h *Handler) {
		if metrics != nil {
			h.metrics = metrics
		}
	}
}

// WithMaxRequestBytes bounds the size of request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(h *Handler) { h.maxRequestBytes = n }
}

// NewHandler creates a new MCP handler and returns it with its path.
func NewHandler(
	backlog Backlog,
	cache *projects.CacheManager,
	control *access.Control,
	issueService *issues.Service,
	opts ...Option,
) (string, *Handler) {
	h := &Handler{
		backlog: backlog,
		cache:   cache,
		access:  control,
		issues:  issueService,
		metrics: nopMetrics{},
		logger:  logging.New("mcp"),
		tools:   make(map[string]*ToolDefinition),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerTools()

	return Path, h
}

// ServeHTTP handles HTTP requests for the MCP endpoint.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := xid.New().String()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(RequestIDHeader, requestID)

	if r.Method != http.MethodPost {
		h.writeError(w, nil, ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	subject, err := h.auth.Authenticate(r.Header.Get(auth.AuthorizationHeader))
	if err != nil {
		h.writeError(w, nil, ErrCodeUnauthorized, "Unauthorized: "+err.Error())
		return
	}

	body := r.Body
	if h.maxRequestBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}

	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, nil, ErrCodeParseError, "Parse error: "+err.Error())
		return
	}

	if req.JSONRPC != "2.0" {
		h.writeError(w, req.ID, ErrCodeInvalidRequest, "Invalid JSON-RPC version")
		return
	}

	logger := h.logger.With("rid", requestID)
	ctx := logging.With(r.Context(), logger)
	ctx = auth.WithCaller(ctx, auth.Caller{Subject: subject, RequestID: requestID})

	switch req.Method {
	case "initialize":
		h.handleInitialize(w, req)
	case "initialized", "notifications/initialized":
		h.handleInitialized(w, req)
	case "tools/list":
		h.handleToolsList(w, req)
	case "tools/call":
		h.handleToolsCall(ctx, w, req)
	case "resources/list":
		h.handleResourcesList(ctx, w, req)
	case "resources/read":
		h.handleResourcesRead(ctx, w, req)
	default:
		h.writeError(w, req.ID, ErrCodeMethodNotFound, "Method not found: "+req.Method)
	}
}

// handleInitialize handles the initialize method.
func (h *Handler) handleInitialize(w http.ResponseWriter, req Request) {
	result := InitializeResult{
		ProtocolVersion: MCPProtocolVersion,
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: version.Version,
		},
		Capabilities: Capabilities{
			Tools: &ToolsCapability{
				ListChanged: false,
			},
			Resources: &ResourcesCapability{
				Subscribe:   false,
				ListChanged: false,
			},
		},
	}

	h.writeResult(w, req.ID, result)
}

// handleInitialized handles the initialized notification.
func (h *Handler) handleInitialized(w http.ResponseWriter, req Request) {
	h.writeResult(w, req.ID, nil)
}

// handleToolsList handles the tools/list method.
func (h *Handler) handleToolsList(w http.ResponseWriter, req Request) {
	h.writeResult(w, req.ID, ToolsListResult{Tools: h.Tools()})
}

// handleToolsCall handles the tools/call method.
func (h *Handler) handleToolsCall(ctx context.Context, w http.ResponseWriter, req Request) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
		return
	}

	toolDef, ok := h.tools[params.Name]
	if !ok {
		h.writeError(w, req.ID, ErrCodeMethodNotFound, "Tool not found: "+params.Name)
		return
	}

	call := params.Name
	if caller, ok := auth.CallerFrom(ctx); ok && caller.Subject != "" {
		call = caller.Subject + ":" + params.Name
	}

	start := time.Now()
	result, err := toolDef.Handler(ctx, params.Arguments)
	if err != nil {
		logging.LogCallError(logging.From(ctx), call, time.Since(start), err)
		h.metrics.AddToolCall(params.Name, ResultError)
		h.writeResult(w, req.ID, ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: "Error: " + err.Error()}},
			IsError: true,
		})
		return
	}
	logging.LogCallSuccess(logging.From(ctx), call, time.Since(start))
	h.metrics.AddToolCall(params.Name, ResultSuccess)

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		h.writeError(w, req.ID, ErrCodeInternalError, "Failed to marshal result")
		return
	}

	h.writeResult(w, req.ID, ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: string(resultJSON)}},
	})
}

// handleResourcesList lists the custom field definitions of every project
// the caller may read as resources.
func (h *Handler) handleResourcesList(ctx context.Context, w http.ResponseWriter, req Request) {
	list, err := h.listProjects(ctx, nil)
	if err != nil {
		h.writeError(w, req.ID, ErrCodeInternalError, "List projects: "+err.Error())
		return
	}

	resources := []Resource{}
	for _, project := range list.([]*types.Project) {
		resources = append(resources, Resource{
			URI:         customFieldsURI(project.ProjectKey),
			Name:        project.ProjectKey + " custom fields",
			Description: "Custom field definitions of " + project.Name,
			MimeType:    mimeTypeJSON,
		})
	}

	h.writeResult(w, req.ID, ResourcesListResult{Resources: resources})
}

// handleResourcesRead returns the custom field definitions of the project
// named by the URI.
func (h *Handler) handleResourcesRead(ctx context.Context, w http.ResponseWriter, req Request) {
	var params ResourceReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.writeError(w, req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
		return
	}

	project, err := parseCustomFieldsURI(params.URI)
	if err != nil {
		h.writeError(w, req.ID, ErrCodeNotFound, "Resource not found: "+params.URI)
		return
	}

	ref, err := h.checkProject(ctx, project)
	if err != nil {
		h.writeError(w, req.ID, ErrCodeNotFound, "Resource not found: "+err.Error())
		return
	}

	defs, err := h.backlog.GetCustomFieldList(ctx, ref)
	if err != nil {
		logging.From(ctx).Warnf("read %s: %v", params.URI, err)
		h.writeError(w, req.ID, ErrCodeNotFound, "Resource not found: "+err.Error())
		return
	}

	text, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		h.writeError(w, req.ID, ErrCodeInternalError, "Failed to marshal resource")
		return
	}

	h.writeResult(w, req.ID, ResourceReadResult{Contents: []ResourceContent{{
		URI:      params.URI,
		MimeType: mimeTypeJSON,
		Text:     string(text),
	}}})
}

// writeResult writes a successful JSON-RPC response.
func (h *Handler) writeResult(w http.ResponseWriter, id any, result any) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Errorf("MCP: failed to write response: %v", err)
	}
}

// writeError writes an error JSON-RPC response.
func (h *Handler) writeError(w http.ResponseWriter, id any, code int, message string) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Errorf("MCP: failed to write error response: %v", err)
	}
}
