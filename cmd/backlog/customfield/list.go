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

package customfield

import (
	"context"
	"errors"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/cmd/backlog/config"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls [project id or key]",
		Short:   "List the custom fields of a project",
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

			defs, err := svc.Client.GetCustomFieldList(ctx, ref)
			if err != nil {
				return err
			}

			return config.Print(cmd, defs, func() table.Writer {
				tw := config.NewTable()
				tw.AppendHeader(table.Row{"ID", "NAME", "TYPE", "REQUIRED", "OPTIONS"})
				for _, def := range defs {
					tw.AppendRow(table.Row{def.ID, def.Name, def.TypeID, def.Required, itemNames(def)})
				}
				return tw
			})
		},
	}
}

func init() {
	SubCmd.AddCommand(newListCommand())
}
