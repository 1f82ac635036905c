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
	"errors"

	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/cmd/backlog/config"
	"github.com/backlogkit/backlog/server/projects"
)

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get [project id or key]",
		Short:   "Get a project",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("project is required")
			}
			ref, err := config.ParseProject(args[0])
			if err != nil {
				return err
			}

			svc, err := config.NewServices()
			if err != nil {
				return err
			}

			ctx := context.Background()
			if err := svc.Access.CheckProjectAccess(ctx, ref, svc.Client); err != nil {
				return err
			}

			project, err := projects.GetProject(ctx, svc.Cache, svc.Client, ref)
			if err != nil {
				return err
			}

			return config.Print(cmd, project, projectsTable(project))
		},
	}
}

func init() {
	SubCmd.AddCommand(newGetCommand())
}
