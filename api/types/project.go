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

// Project is a Backlog project. A project is identified by both its numeric
// ID and its key, e.g. 12345 and "PROJECT_A".
type Project struct {
	// ID is the numeric ID of the project.
	ID int64 `json:"id"`

	// ProjectKey is the key of the project, used as the prefix of issue keys.
	ProjectKey string `json:"projectKey"`

	// Name is the display name of the project.
	Name string `json:"name"`

	// ChartEnabled is whether the burndown chart is enabled.
	ChartEnabled bool `json:"chartEnabled"`

	// UseResolvedForChart is whether resolved issues count as done in charts.
	UseResolvedForChart bool `json:"useResolvedForChart"`

	// SubtaskingEnabled is whether issues can have subtasks.
	SubtaskingEnabled bool `json:"subtaskingEnabled"`

	// ProjectLeaderCanEditProjectLeader is whether project leaders can change
	// other project leaders.
	ProjectLeaderCanEditProjectLeader bool `json:"projectLeaderCanEditProjectLeader"`

	UseWiki         bool `json:"useWiki"`
	UseFileSharing  bool `json:"useFileSharing"`
	UseWikiTreeView bool `json:"useWikiTreeView"`
	UseSubversion   bool `json:"useSubversion"`
	UseGit          bool `json:"useGit"`

	// TextFormattingRule is either "markdown" or "backlog".
	TextFormattingRule string `json:"textFormattingRule"`

	// Archived is whether the project is archived.
	Archived bool `json:"archived"`

	// DisplayOrder is the order of the project in the project list.
	DisplayOrder int64 `json:"displayOrder"`

	// UseDevAttributes is whether development attributes are enabled.
	UseDevAttributes bool `json:"useDevAttributes"`
}

// IDOrKey returns the reference of this project carrying both its ID and key.
func (p *Project) IDOrKey() IDOrKey {
	return NewIDAndKey(p.ID, p.ProjectKey)
}

// DeepCopy returns a deep copy of this project.
func (p *Project) DeepCopy() *Project {
	if p == nil {
		return nil
	}

	copied := *p
	return &copied
}
