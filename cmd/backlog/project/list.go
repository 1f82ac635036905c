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

package project

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/cmd/backlog/config"
	"github.com/backlogkit/backlog/server/projects"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Short:   "List all projects",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := config.NewServices()
			if err != nil {
				return err
			}

			ctx := context.Background()
			list, err := projects.ListProjects(ctx, svc.Cache, svc.Client)
			if err != nil {
				return err
			}
			if svc.Access.IsEnabled() {
				list = projects.FilterProjects(list, svc.Access.IsAllowed)
			}

			return config.Print(cmd, list, projectsTable(list...))
		},
	}
}

func init() {
	SubCmd.AddCommand(newListCommand())
}
