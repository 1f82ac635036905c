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

package main

import (
	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/cmd/backlog/config"
)

var (
	flagForce bool
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagForce {
				if err := config.Delete(); err != nil {
					return err
				}
				cmd.Println("Removed the CLI config")
				return nil
			}

			if err := config.RemoveAPIKey(); err != nil {
				return err
			}
			cmd.Println("Removed the API key, the space URL is kept")
			return nil
		},
	}
}

func init() {
	cmd := newLogoutCmd()
	cmd.Flags().BoolVar(
		&flagForce,
		"force",
		false,
		"Delete the whole config file including the space URL",
	)
	rootCmd.AddCommand(cmd)
}
