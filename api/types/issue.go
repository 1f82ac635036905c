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

import "time"

// IssueType is an issue type of a project, e.g. "Bug" or "Task".
type IssueType struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"projectId"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	DisplayOrder int64  `json:"displayOrder"`
}

// Priority is an issue priority of the space.
type Priority struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Status is a status of an issue.
type Status struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"projectId"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	DisplayOrder int64  `json:"displayOrder"`
}

// Issue is an issue of a project.
type Issue struct {
	ID           int64         `json:"id"`
	ProjectID    int64         `json:"projectId"`
	IssueKey     string        `json:"issueKey"`
	KeyID        int64         `json:"keyId"`
	IssueType    *IssueType    `json:"issueType,omitempty"`
	Summary      string        `json:"summary"`
	Description  string        `json:"description"`
	Priority     *Priority     `json:"priority,omitempty"`
	Status       *Status       `json:"status,omitempty"`
	StartDate    *string       `json:"startDate,omitempty"`
	DueDate      *string       `json:"dueDate,omitempty"`
	CustomFields []CustomField `json:"customFields"`
	Created      *time.Time    `json:"created,omitempty"`
	Updated      *time.Time    `json:"updated,omitempty"`
}

// CustomField returns the custom field of this issue with the given name.
func (i *Issue) CustomField(name string) (*CustomField, bool) {
	for idx := range i.CustomFields {
		if i.CustomFields[idx].Name == name {
			return &i.CustomFields[idx], true
		}
	}
	return nil, false
}

// Space is the Backlog space the API key belongs to.
type Space struct {
	SpaceKey           string `json:"spaceKey"`
	Name               string `json:"name"`
	OwnerID            int64  `json:"ownerId"`
	Lang               string `json:"lang"`
	Timezone           string `json:"timezone"`
	TextFormattingRule string `json:"textFormattingRule"`
}
