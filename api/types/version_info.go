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

// VersionInfo is printed by `backlog version`.
type VersionInfo struct {
	// ClientVersion describes the running binary.
	ClientVersion *VersionDetail `json:"clientVersion,omitempty" yaml:"clientVersion,omitempty"`

	// Space is the Backlog space the CLI is configured for.
	Space *Space `json:"space,omitempty" yaml:"space,omitempty"`
}

// VersionDetail describes a build.
type VersionDetail struct {
	Version string `json:"version" yaml:"version"`

	GoVersion string `json:"goVersion" yaml:"goVersion"`

	BuildDate string `json:"buildDate" yaml:"buildDate"`
}
