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
	createSummary     string
	createIssueType   string
	createPriority    string
	createDescription string
	createStartDate   string
	createDueDate     string
	createFields      []string
)

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "create [project id or key]",
		Short:   "Create an issue",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("project is required")
			}
			ref, err := config.ParseProject(args[0])
			if err != nil {
				return err
			}
			fields, err := config.ParseFields(createFields)
			if err != nil {
				return err
			}

			svc, err := config.NewServices()
			if err != nil {
				return err
			}

			issue, err := svc.Issues.CreateIssue(context.Background(), &issues.CreateRequest{
				Project:      ref,
				Summary:      createSummary,
				IssueType:    createIssueType,
				Priority:     createPriority,
				Description:  createDescription,
				StartDate:    optional(cmd, "start-date", createStartDate),
				DueDate:      optional(cmd, "due-date", createDueDate),
				CustomFields: fields,
			})
			if err != nil {
				return err
			}

			return config.Print(cmd, issue, issueTable(issue))
		},
	}
}

// optional returns the flag value only when the flag was given.
func optional(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

func init() {
	cmd := newCreateCommand()
	cmd.Flags().StringVarP(&createSummary, "summary", "s", "", "Issue summary")
	cmd.Flags().StringVarP(&createIssueType, "issue-type", "t", "", "Issue type name or ID")
	cmd.Flags().StringVarP(&createPriority, "priority", "p", "", "Priority name or ID")
	cmd.Flags().StringVarP(&createDescription, "description", "d", "", "Issue description")
	cmd.Flags().StringVar(&createStartDate, "start-date", "", "Start date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&createDueDate, "due-date", "", "Due date (yyyy-MM-dd)")
	cmd.Flags().StringArrayVarP(
		&createFields,
		"field",
		"f",
		nil,
		"Custom field value as name=value; JSON values are used as is",
	)
	_ = cmd.MarkFlagRequired("summary")
	_ = cmd.MarkFlagRequired("issue-type")
	_ = cmd.MarkFlagRequired("priority")
	SubCmd.AddCommand(cmd)
}
