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

package types

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/backlogkit/backlog/internal/validation"
	"github.com/backlogkit/backlog/pkg/errors"
)

var (
	// ErrEmptyIssueFields is returned when an update sets nothing.
	ErrEmptyIssueFields = errors.InvalidArgument("no issue fields to update").WithCode("ErrEmptyIssueFields")

	// ErrInvalidIssueFields is returned when issue fields fail validation.
	ErrInvalidIssueFields = errors.InvalidArgument("invalid issue fields").WithCode("ErrInvalidIssueFields")
)

// CreateIssueFields is a set of fields that use to create an issue.
type CreateIssueFields struct {
	ProjectID   int64  `validate:"required,gt=0"`
	Summary     string `validate:"required,max=255"`
	IssueTypeID int64  `validate:"required,gt=0"`
	PriorityID  int64  `validate:"required,gt=0"`
	Description string
	StartDate   *string `validate:"omitempty,datetime=2006-01-02"`
	DueDate     *string `validate:"omitempty,datetime=2006-01-02"`

	// CustomFields holds the custom field inputs keyed by custom field ID.
	CustomFields map[int64]CustomFieldInput
}

// Validate validates the CreateIssueFields.
func (f *CreateIssueFields) Validate() error {
	return validation.ValidateStruct(f)
}

// Form encodes the fields as the form of the create issue request.
func (f *CreateIssueFields) Form() url.Values {
	form := url.Values{}
	form.Set("projectId", strconv.FormatInt(f.ProjectID, 10))
	form.Set("summary", f.Summary)
	form.Set("issueTypeId", strconv.FormatInt(f.IssueTypeID, 10))
	form.Set("priorityId", strconv.FormatInt(f.PriorityID, 10))
	if f.Description != "" {
		form.Set("description", f.Description)
	}
	setOptional(form, "startDate", f.StartDate)
	setOptional(form, "dueDate", f.DueDate)
	appendCustomFields(form, f.CustomFields)

	return form
}

// UpdateIssueFields is a set of fields that use to update an issue. Nil
// fields are left unchanged.
type UpdateIssueFields struct {
	Summary     *string `validate:"omitempty,min=1,max=255"`
	Description *string
	IssueTypeID *int64  `validate:"omitempty,gt=0"`
	PriorityID  *int64  `validate:"omitempty,gt=0"`
	StatusID    *int64  `validate:"omitempty,gt=0"`
	StartDate   *string `validate:"omitempty,datetime=2006-01-02"`
	DueDate     *string `validate:"omitempty,datetime=2006-01-02"`
	Comment     *string

	// CustomFields holds the custom field inputs keyed by custom field ID.
	CustomFields map[int64]CustomFieldInput
}

// IsEmpty returns whether the update sets nothing.
func (f *UpdateIssueFields) IsEmpty() bool {
	return f.Summary == nil && f.Description == nil && f.IssueTypeID == nil &&
		f.PriorityID == nil && f.StatusID == nil && f.StartDate == nil &&
		f.DueDate == nil && f.Comment == nil && len(f.CustomFields) == 0
}

// Validate validates the UpdateIssueFields.
func (f *UpdateIssueFields) Validate() error {
	if f.IsEmpty() {
		return ErrEmptyIssueFields
	}

	return validation.ValidateStruct(f)
}

// Form encodes the fields as the form of the update issue request.
func (f *UpdateIssueFields) Form() url.Values {
	form := url.Values{}
	setOptional(form, "summary", f.Summary)
	setOptional(form, "description", f.Description)
	setOptionalID(form, "issueTypeId", f.IssueTypeID)
	setOptionalID(form, "priorityId", f.PriorityID)
	setOptionalID(form, "statusId", f.StatusID)
	setOptional(form, "startDate", f.StartDate)
	setOptional(form, "dueDate", f.DueDate)
	setOptional(form, "comment", f.Comment)
	appendCustomFields(form, f.CustomFields)

	return form
}

func setOptional(form url.Values, key string, v *string) {
	if v != nil {
		form.Set(key, *v)
	}
}

func setOptionalID(form url.Values, key string, v *int64) {
	if v != nil {
		form.Set(key, strconv.FormatInt(*v, 10))
	}
}

// appendCustomFields appends the inputs in field ID order so the encoded
// form is stable.
func appendCustomFields(form url.Values, inputs map[int64]CustomFieldInput) {
	ids := make([]int64, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		AppendForm(form, id, inputs[id])
	}
}
