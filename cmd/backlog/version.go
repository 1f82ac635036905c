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
	"context"
	"runtime"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/cmd/backlog/config"
	"github.com/backlogkit/backlog/internal/version"
)

var (
	clientOnly bool
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the version number of the Backlog CLI",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			var versionInfo types.VersionInfo
			versionInfo.ClientVersion = getClientVersion()

			var spaceErr error
			if !clientOnly {
				versionInfo.Space, spaceErr = fetchSpace(context.Background())
			}

			if err := config.Print(cmd, &versionInfo, func() table.Writer {
				tw := config.NewTable()
				tw.AppendRow(table.Row{"Backlog CLI:", versionInfo.ClientVersion.Version})
				tw.AppendRow(table.Row{"Go:", versionInfo.ClientVersion.GoVersion})
				tw.AppendRow(table.Row{"Build Date:", versionInfo.ClientVersion.BuildDate})
				if versionInfo.Space != nil {
					tw.AppendRow(table.Row{"Space:", versionInfo.Space.SpaceKey})
					tw.AppendRow(table.Row{"Space Name:", versionInfo.Space.Name})
				}
				return tw
			}); err != nil {
				return err
			}

			if spaceErr != nil {
				cmd.PrintErrf("Error fetching space: %v\n", spaceErr)
			}
			return nil
		},
	}
}

func fetchSpace(ctx context.Context) (*types.Space, error) {
	svc, err := config.NewServices()
	if err != nil {
		return nil, err
	}
	return svc.Client.GetSpace(ctx)
}

func getClientVersion() *types.VersionDetail {
	return &types.VersionDetail{
		Version:   version.Version,
		GoVersion: runtime.Version(),
		BuildDate: version.BuildDate,
	}
}

func init() {
	cmd := newVersionCmd()
	cmd.Flags().BoolVar(
		&clientOnly,
		"client",
		clientOnly,
		"Shows client version only. (no space required)",
	)

	rootCmd.AddCommand(cmd)
}
