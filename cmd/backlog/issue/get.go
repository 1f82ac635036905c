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
)

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get [issue id or key]",
		Short:   "Get an issue",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("issue is required")
			}

			svc, err := config.NewServices()
			if err != nil {
				return err
			}

			issue, err := svc.Issues.GetIssue(context.Background(), args[0])
			if err != nil {
				return err
			}

			return config.Print(cmd, issue, issueTable(issue))
		},
	}
}

func init() {
	SubCmd.AddCommand(newGetCommand())
}
