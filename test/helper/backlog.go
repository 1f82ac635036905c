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

package helper

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	gotime "time"

	"github.com/hashicorp/go-memdb"

	"github.com/backlogkit/backlog/api/types"
)

var (
	tblProjects     = "projects"
	tblCustomFields = "customfields"
	tblIssueTypes   = "issuetypes"
	tblStatuses     = "statuses"
	tblPriorities   = "priorities"
	tblIssues       = "issues"
)

var backlogSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblProjects: {
			Name: tblProjects,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"key": {
					Name:    "key",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ProjectKey"},
				},
			},
		},
		tblCustomFields: {
			Name: tblCustomFields,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"project_id": {
					Name:    "project_id",
					Indexer: &memdb.IntFieldIndex{Field: "ProjectID"},
				},
			},
		},
		tblIssueTypes: {
			Name: tblIssueTypes,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"project_id": {
					Name:    "project_id",
					Indexer: &memdb.IntFieldIndex{Field: "ProjectID"},
				},
			},
		},
		tblStatuses: {
			Name: tblStatuses,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"project_id": {
					Name:    "project_id",
					Indexer: &memdb.IntFieldIndex{Field: "ProjectID"},
				},
			},
		},
		tblPriorities: {
			Name: tblPriorities,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
			},
		},
		tblIssues: {
			Name: tblIssues,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"key": {
					Name:    "key",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "IssueKey"},
				},
				"project_id": {
					Name:    "project_id",
					Indexer: &memdb.IntFieldIndex{Field: "ProjectID"},
				},
			},
		},
	},
}

// BacklogAPIKey is the API key the fake Backlog accepts.
const BacklogAPIKey = "test-api-key"

// BacklogServer is an in-memory fake of the subset of the Backlog REST API
// the client uses. Records live in a go-memdb database so tests can seed and
// inspect them.
type BacklogServer struct {
	db     *memdb.MemDB
	server *httptest.Server

	mu       sync.Mutex
	requests map[string]int
	nextID   int64
}

// NewBacklogServer starts an empty fake Backlog.
func NewBacklogServer() (*BacklogServer, error) {
	db, err := memdb.NewMemDB(backlogSchema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	s := &BacklogServer{
		db:       db,
		requests: make(map[string]int),
		nextID:   1000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/space", s.getSpace)
	mux.HandleFunc("GET /api/v2/projects", s.listProjects)
	mux.HandleFunc("GET /api/v2/projects/{project}", s.getProject)
	mux.HandleFunc("GET /api/v2/projects/{project}/customFields", s.listCustomFields)
	mux.HandleFunc("GET /api/v2/projects/{project}/issueTypes", s.listIssueTypes)
	mux.HandleFunc("GET /api/v2/projects/{project}/statuses", s.listStatuses)
	mux.HandleFunc("GET /api/v2/priorities", s.listPriorities)
	mux.HandleFunc("GET /api/v2/issues/{issue}", s.getIssue)
	mux.HandleFunc("POST /api/v2/issues", s.createIssue)
	mux.HandleFunc("PATCH /api/v2/issues/{issue}", s.updateIssue)
	s.server = httptest.NewServer(s.authenticate(mux))

	return s, nil
}

// URL returns the space URL of the fake.
func (s *BacklogServer) URL() string {
	return s.server.URL
}

// Close shuts the fake down.
func (s *BacklogServer) Close() {
	s.server.Close()
}

// Requests returns how many requests were sent to the given path, e.g.
// "/api/v2/projects/PROJECT_A".
func (s *BacklogServer) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// ResetRequests clears the request counters.
func (s *BacklogServer) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string]int)
}

// AddProject stores a project.
func (s *BacklogServer) AddProject(p *types.Project) error {
	return s.insert(tblProjects, p)
}

// AddCustomField stores a custom field definition.
func (s *BacklogServer) AddCustomField(def *types.CustomFieldType) error {
	return s.insert(tblCustomFields, def)
}

// AddIssueType stores an issue type.
func (s *BacklogServer) AddIssueType(issueType *types.IssueType) error {
	return s.insert(tblIssueTypes, issueType)
}

// AddStatus stores a status.
func (s *BacklogServer) AddStatus(status *types.Status) error {
	return s.insert(tblStatuses, status)
}

// AddPriority stores a priority.
func (s *BacklogServer) AddPriority(priority *types.Priority) error {
	return s.insert(tblPriorities, priority)
}

// AddIssue stores an issue as is.
func (s *BacklogServer) AddIssue(issue *types.Issue) error {
	return s.insert(tblIssues, issue)
}

// Issue returns the stored issue with the given key.
func (s *BacklogServer) Issue(key string) (*types.Issue, bool) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblIssues, "key", key)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*types.Issue), true
}

func (s *BacklogServer) insert(table string, record any) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(table, record); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	txn.Commit()
	return nil
}

func (s *BacklogServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()

		if r.URL.Query().Get("apiKey") != BacklogAPIKey {
			writeError(w, http.StatusUnauthorized, 11, "Authentication failure.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *BacklogServer) getSpace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &types.Space{
		SpaceKey:           "TEST",
		Name:               "Test Space",
		Lang:               "en",
		Timezone:           "UTC",
		TextFormattingRule: "markdown",
	})
}

func (s *BacklogServer) listProjects(w http.ResponseWriter, _ *http.Request) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	list := []*types.Project{}
	iter, err := txn.Get(tblProjects, "id")
	if err != nil {
		writeError(w, http.StatusInternalServerError, 1, err.Error())
		return
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		list = append(list, raw.(*types.Project))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *BacklogServer) getProject(w http.ResponseWriter, r *http.Request) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	project, ok := findProject(txn, r.PathValue("project"))
	if !ok {
		writeError(w, http.StatusNotFound, 6, "No project.")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *BacklogServer) listCustomFields(w http.ResponseWriter, r *http.Request) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	project, ok := findProject(txn, r.PathValue("project"))
	if !ok {
		writeError(w, http.StatusNotFound, 6, "No project.")
		return
	}
	writeJSON(w, http.StatusOK, customFieldsOf(txn, project.ID))
}

func (s *BacklogServer) listIssueTypes(w http.ResponseWriter, r *http.Request) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	project, ok := findProject(txn, r.PathValue("project"))
	if !ok {
		writeError(w, http.StatusNotFound, 6, "No project.")
		return
	}

	list := []*types.IssueType{}
	iter, err := txn.Get(tblIssueTypes, "project_id", project.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 1, err.Error())
		return
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		list = append(list, raw.(*types.IssueType))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *BacklogServer) listStatuses(w http.ResponseWriter, r *http.Request) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	project, ok := findProject(txn, r.PathValue("project"))
	if !ok {
		writeError(w, http.StatusNotFound, 6, "No project.")
		return
	}

	list := []*types.Status{}
	iter, err := txn.Get(tblStatuses, "project_id", project.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 1, err.Error())
		return
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		list = append(list, raw.(*types.Status))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *BacklogServer) listPriorities(w http.ResponseWriter, _ *http.Request) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	list := []*types.Priority{}
	iter, err := txn.Get(tblPriorities, "id")
	if err != nil {
		writeError(w, http.StatusInternalServerError, 1, err.Error())
		return
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		list = append(list, raw.(*types.Priority))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *BacklogServer) getIssue(w http.ResponseWriter, r *http.Request) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	issue, ok := findIssue(txn, r.PathValue("issue"))
	if !ok {
		writeError(w, http.StatusNotFound, 6, "No issue.")
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *BacklogServer) createIssue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, 7, err.Error())
		return
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	project, ok := findProject(txn, r.PostForm.Get("projectId"))
	if !ok {
		writeError(w, http.StatusBadRequest, 7, "No project.")
		return
	}
	if r.PostForm.Get("summary") == "" {
		writeError(w, http.StatusBadRequest, 7, "Please input summary.")
		return
	}

	issueType, ok := findByID[types.IssueType](txn, tblIssueTypes, r.PostForm.Get("issueTypeId"))
	if !ok || issueType.ProjectID != project.ID {
		writeError(w, http.StatusBadRequest, 7, "No issue type.")
		return
	}
	priority, ok := findByID[types.Priority](txn, tblPriorities, r.PostForm.Get("priorityId"))
	if !ok {
		writeError(w, http.StatusBadRequest, 7, "No priority.")
		return
	}

	defs := customFieldsOf(txn, project.ID)
	fields, err := applyCustomFields(defs, nil, r.PostForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, 7, err.Error())
		return
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	keyID := int64(1)
	iter, err := txn.Get(tblIssues, "project_id", project.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 1, err.Error())
		return
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		if k := raw.(*types.Issue).KeyID; k >= keyID {
			keyID = k + 1
		}
	}

	now := gotime.Now().UTC()
	issue := &types.Issue{
		ID:           id,
		ProjectID:    project.ID,
		IssueKey:     fmt.Sprintf("%s-%d", project.ProjectKey, keyID),
		KeyID:        keyID,
		IssueType:    issueType,
		Summary:      r.PostForm.Get("summary"),
		Description:  r.PostForm.Get("description"),
		Priority:     priority,
		StartDate:    optionalForm(r, "startDate"),
		DueDate:      optionalForm(r, "dueDate"),
		CustomFields: fields,
		Created:      &now,
		Updated:      &now,
	}
	if status, ok := firstStatus(txn, project.ID); ok {
		issue.Status = status
	}

	if err := txn.Insert(tblIssues, issue); err != nil {
		writeError(w, http.StatusInternalServerError, 1, err.Error())
		return
	}
	txn.Commit()

	writeJSON(w, http.StatusCreated, issue)
}

func (s *BacklogServer) updateIssue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, 7, err.Error())
		return
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	stored, ok := findIssue(txn, r.PathValue("issue"))
	if !ok {
		writeError(w, http.StatusNotFound, 6, "No issue.")
		return
	}

	issue := *stored
	form := r.PostForm
	if form.Has("summary") {
		issue.Summary = form.Get("summary")
	}
	if form.Has("description") {
		issue.Description = form.Get("description")
	}
	if form.Has("startDate") {
		issue.StartDate = optionalForm(r, "startDate")
	}
	if form.Has("dueDate") {
		issue.DueDate = optionalForm(r, "dueDate")
	}
	if form.Has("issueTypeId") {
		issueType, ok := findByID[types.IssueType](txn, tblIssueTypes, form.Get("issueTypeId"))
		if !ok || issueType.ProjectID != issue.ProjectID {
			writeError(w, http.StatusBadRequest, 7, "No issue type.")
			return
		}
		issue.IssueType = issueType
	}
	if form.Has("priorityId") {
		priority, ok := findByID[types.Priority](txn, tblPriorities, form.Get("priorityId"))
		if !ok {
			writeError(w, http.StatusBadRequest, 7, "No priority.")
			return
		}
		issue.Priority = priority
	}
	if form.Has("statusId") {
		status, ok := findByID[types.Status](txn, tblStatuses, form.Get("statusId"))
		if !ok || status.ProjectID != issue.ProjectID {
			writeError(w, http.StatusBadRequest, 7, "No status.")
			return
		}
		issue.Status = status
	}

	fields, err := applyCustomFields(customFieldsOf(txn, issue.ProjectID), stored.CustomFields, form)
	if err != nil {
		writeError(w, http.StatusBadRequest, 7, err.Error())
		return
	}
	issue.CustomFields = fields
	now := gotime.Now().UTC()
	issue.Updated = &now

	if err := txn.Insert(tblIssues, &issue); err != nil {
		writeError(w, http.StatusInternalServerError, 1, err.Error())
		return
	}
	txn.Commit()

	writeJSON(w, http.StatusOK, &issue)
}

func findProject(txn *memdb.Txn, idOrKey string) (*types.Project, bool) {
	var raw any
	var err error
	if id, parseErr := strconv.ParseInt(idOrKey, 10, 64); parseErr == nil {
		raw, err = txn.First(tblProjects, "id", id)
	} else {
		raw, err = txn.First(tblProjects, "key", idOrKey)
	}
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*types.Project), true
}

func findIssue(txn *memdb.Txn, idOrKey string) (*types.Issue, bool) {
	var raw any
	var err error
	if id, parseErr := strconv.ParseInt(idOrKey, 10, 64); parseErr == nil {
		raw, err = txn.First(tblIssues, "id", id)
	} else {
		raw, err = txn.First(tblIssues, "key", idOrKey)
	}
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*types.Issue), true
}

func findByID[T any](txn *memdb.Txn, table, value string) (*T, bool) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, false
	}
	raw, err := txn.First(table, "id", id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*T), true
}

func firstStatus(txn *memdb.Txn, projectID int64) (*types.Status, bool) {
	raw, err := txn.First(tblStatuses, "project_id", projectID)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*types.Status), true
}

func customFieldsOf(txn *memdb.Txn, projectID int64) []*types.CustomFieldType {
	defs := []*types.CustomFieldType{}
	iter, err := txn.Get(tblCustomFields, "project_id", projectID)
	if err != nil {
		return defs
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		defs = append(defs, raw.(*types.CustomFieldType))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].DisplayOrder < defs[j].DisplayOrder })
	return defs
}

// applyCustomFields returns the custom fields of an issue after applying the
// customField_{id} entries of the form to current.
func applyCustomFields(
	defs []*types.CustomFieldType,
	current []types.CustomField,
	form map[string][]string,
) ([]types.CustomField, error) {
	byID := make(map[int64]types.CustomField, len(current))
	for _, field := range current {
		byID[field.ID] = field
	}

	fields := make([]types.CustomField, 0, len(defs))
	for _, def := range defs {
		field, ok := byID[def.ID]
		if !ok {
			field = types.CustomField{ID: def.ID, FieldTypeID: def.TypeID, Name: def.Name}
		}

		var other *string
		if o, ok := form[types.CustomFieldOtherFormKey(def.ID)]; ok && len(o) > 0 {
			other = &o[0]
		}
		values, set := form[types.CustomFieldFormKey(def.ID)]
		if set || other != nil {

			input, err := types.ParseFormValue(def.TypeID, strings.Join(values, ","), other)
			if err != nil {
				return nil, err
			}
			value, err := valueOf(def, input)
			if err != nil {
				return nil, err
			}
			field.Value = value
		} else if def.Required && !ok {
			return nil, fmt.Errorf("custom field %q is required", def.Name)
		}

		fields = append(fields, field)
	}
	return fields, nil
}

// valueOf converts an input into the value Backlog would store, resolving
// list item IDs against the definition.
func valueOf(def *types.CustomFieldType, input types.CustomFieldInput) (types.CustomFieldValue, error) {
	items := func(ids []int64) ([]types.ListItem, error) {
		settings, ok := types.ListSettingsOf(def.Settings)
		if !ok {
			return nil, fmt.Errorf("custom field %q has no items", def.Name)
		}
		resolved := make([]types.ListItem, 0, len(ids))
		for _, id := range ids {
			item, ok := settings.FindItemByID(id)
			if !ok {
				return nil, fmt.Errorf("custom field %q has no item %d", def.Name, id)
			}
			resolved = append(resolved, item)
		}
		return resolved, nil
	}

	switch v := input.(type) {
	case *types.TextInput:
		return &types.TextValue{Value: v.Value}, nil
	case *types.TextAreaInput:
		return &types.TextAreaValue{Value: v.Value}, nil
	case *types.NumericInput:
		return &types.NumericValue{Value: v.Value}, nil
	case *types.DateInput:
		return &types.DateValue{Value: v.Value}, nil
	case *types.SingleListInput:
		item, err := optionalItem(v.ID, items)
		if err != nil {
			return nil, err
		}
		return &types.SingleListValue{Item: item, Other: v.Other}, nil
	case *types.RadioInput:
		item, err := optionalItem(v.ID, items)
		if err != nil {
			return nil, err
		}
		return &types.RadioValue{Item: item, Other: v.Other}, nil
	case *types.MultipleListInput:
		resolved, err := items(v.IDs)
		if err != nil {
			return nil, err
		}
		return &types.MultipleListValue{Items: resolved, Other: v.Other}, nil
	case *types.CheckBoxInput:
		resolved, err := items(v.IDs)
		if err != nil {
			return nil, err
		}
		return &types.CheckBoxValue{Items: resolved, Other: v.Other}, nil
	default:
		return nil, fmt.Errorf("custom field %q: unsupported input %T", def.Name, input)
	}
}

// optionalItem resolves a single selection; zero means no item.
func optionalItem(id int64, items func([]int64) ([]types.ListItem, error)) (*types.ListItem, error) {
	if id == 0 {
		return nil, nil
	}
	resolved, err := items([]int64{id})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

func optionalForm(r *http.Request, key string) *string {
	v := r.PostForm.Get(key)
	if v == "" {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code int, message string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]any{{
			"message":  message,
			"code":     code,
			"moreInfo": "",
		}},
	})
}
