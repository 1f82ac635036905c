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
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/cmd/backlog/config"
	"github.com/backlogkit/backlog/server/customfields"
)

var fieldFlags []string

// resolvedField is a resolved value as it would be sent to Backlog.
type resolvedField struct {
	ID    int64   `json:"id" yaml:"id"`
	Type  string  `json:"type" yaml:"type"`
	Value string  `json:"value" yaml:"value"`
	Other *string `json:"other,omitempty" yaml:"other,omitempty"`
}

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve [project id or key] --field name=value...",
		Short:   "Resolve custom field values by name without writing them",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("project is required")
			}
			ref, err := config.ParseProject(args[0])
			if err != nil {
				return err
			}
			fields, err := config.ParseFields(fieldFlags)
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

			inputs, err := customfields.Resolve(ctx, svc.Client, ref, fields)
			if err != nil {
				return err
			}

			resolved := make([]resolvedField, 0, len(inputs))
			for id, input := range inputs {
				value, other := types.ToFormValue(input)
				resolved = append(resolved, resolvedField{
					ID:    id,
					Type:  input.FieldType().String(),
					Value: value,
					Other: other,
				})
			}
			sort.Slice(resolved, func(i, j int) bool { return resolved[i].ID < resolved[j].ID })

			return config.Print(cmd, resolved, func() table.Writer {
				tw := config.NewTable()
				tw.AppendHeader(table.Row{"ID", "TYPE", "VALUE", "OTHER"})
				for _, field := range resolved {
					other := ""
					if field.Other != nil {
						other = *field.Other
					}
					tw.AppendRow(table.Row{field.ID, field.Type, field.Value, other})
				}
				return tw
			})
		},
	}
}

func init() {
	cmd := newResolveCommand()
	cmd.Flags().StringArrayVarP(
		&fieldFlags,
		"field",
		"f",
		nil,
		"Custom field value as name=value; JSON values are used as is",
	)
	SubCmd.AddCommand(cmd)
}
