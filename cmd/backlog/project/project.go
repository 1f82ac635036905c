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

// Package project provides the project commands of the Backlog CLI.
package project

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/cmd/backlog/config"
)

var (
	// SubCmd represents the project command
	SubCmd = &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
)

func projectsTable(projects ...*types.Project) func() table.Writer {
	return func() table.Writer {
		tw := config.NewTable()
		tw.AppendHeader(table.Row{"ID", "KEY", "NAME", "ARCHIVED", "TEXT FORMAT"})
		for _, project := range projects {
			tw.AppendRow(table.Row{
				project.ID,
				project.ProjectKey,
				project.Name,
				project.Archived,
				project.TextFormattingRule,
			})
		}
		return tw
	}
}
