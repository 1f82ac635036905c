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

package issue

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/cmd/backlog/config"
	"github.com/backlogkit/backlog/server/issues"
)

var (
	updateSummary     string
	updateIssueType   string
	updatePriority    string
	updateStatus      string
	updateDescription string
	updateStartDate   string
	updateDueDate     string
	updateComment     string
	updateFields      []string
)

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "update [issue id or key]",
		Short:   "Update an issue",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("issue is required")
			}
			fields, err := config.ParseFields(updateFields)
			if err != nil {
				return err
			}

			svc, err := config.NewServices()
			if err != nil {
				return err
			}

			issue, err := svc.Issues.UpdateIssue(context.Background(), args[0], &issues.UpdateRequest{
				Summary:      optional(cmd, "summary", updateSummary),
				Description:  optional(cmd, "description", updateDescription),
				IssueType:    optional(cmd, "issue-type", updateIssueType),
				Priority:     optional(cmd, "priority", updatePriority),
				Status:       optional(cmd, "status", updateStatus),
				StartDate:    optional(cmd, "start-date", updateStartDate),
				DueDate:      optional(cmd, "due-date", updateDueDate),
				Comment:      optional(cmd, "comment", updateComment),
				CustomFields: fields,
			})
			if err != nil {
				return err
			}

			return config.Print(cmd, issue, issueTable(issue))
		},
	}
}

func init() {
	cmd := newUpdateCommand()
	cmd.Flags().StringVarP(&updateSummary, "summary", "s", "", "Issue summary")
	cmd.Flags().StringVarP(&updateIssueType, "issue-type", "t", "", "Issue type name or ID")
	cmd.Flags().StringVarP(&updatePriority, "priority", "p", "", "Priority name or ID")
	cmd.Flags().StringVar(&updateStatus, "status", "", "Status name or ID")
	cmd.Flags().StringVarP(&updateDescription, "description", "d", "", "Issue description")
	cmd.Flags().StringVar(&updateStartDate, "start-date", "", "Start date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&updateDueDate, "due-date", "", "Due date (yyyy-MM-dd)")
	cmd.Flags().StringVarP(&updateComment, "comment", "c", "", "Comment added with the update")
	cmd.Flags().StringArrayVarP(
		&updateFields,
		"field",
		"f",
		nil,
		"Custom field value as name=value; JSON values are used as is",
	)
	SubCmd.AddCommand(cmd)
}
