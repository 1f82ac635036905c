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

// Package issue provides the issue commands of the Backlog CLI.
package issue

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/cmd/backlog/config"
)

var (
	// SubCmd represents the issue command
	SubCmd = &cobra.Command{
		Use:   "issue",
		Short: "Get, create and update issues",
	}
)

func issueTable(issue *types.Issue) func() table.Writer {
	return func() table.Writer {
		tw := config.NewTable()
		tw.AppendHeader(table.Row{"KEY", "SUMMARY", "TYPE", "PRIORITY", "STATUS", "DUE"})

		row := table.Row{issue.IssueKey, issue.Summary, "-", "-", "-", "-"}
		if issue.IssueType != nil {
			row[2] = issue.IssueType.Name
		}
		if issue.Priority != nil {
			row[3] = issue.Priority.Name
		}
		if issue.Status != nil {
			row[4] = issue.Status.Name
		}
		if issue.DueDate != nil {
			row[5] = *issue.DueDate
		}
		tw.AppendRow(row)

		for _, field := range issue.CustomFields {
			tw.AppendRow(table.Row{"", field.Name, types.FormatCustomFieldValue(field.Value)})
		}
		return tw
	}
}
