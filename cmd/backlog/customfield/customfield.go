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

// Package customfield provides the custom field commands of the Backlog CLI.
package customfield

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/api/types"
)

var (
	// SubCmd represents the customfield command
	SubCmd = &cobra.Command{
		Use:     "customfield",
		Aliases: []string{"cf"},
		Short:   "Inspect and resolve custom fields",
	}
)

// itemNames returns the option names of a list definition, or "-".
func itemNames(def *types.CustomFieldType) string {
	settings, ok := types.ListSettingsOf(def.Settings)
	if !ok || len(settings.Items) == 0 {
		return "-"
	}
	return strings.Join(settings.ItemNames(), ", ")
}
