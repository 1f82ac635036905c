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

// Package main is the entry point of the Backlog CLI.
package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/backlogkit/backlog/cmd/backlog/config"
	"github.com/backlogkit/backlog/cmd/backlog/customfield"
	"github.com/backlogkit/backlog/cmd/backlog/issue"
	"github.com/backlogkit/backlog/cmd/backlog/project"
	"github.com/backlogkit/backlog/server/logging"
)

var rootCmd = &cobra.Command{
	Use:           "backlog",
	Short:         "Backlog project metadata, custom fields and issues from the command line",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateOutput(); err != nil {
			return err
		}
		return logging.SetLogLevel(viper.GetString(config.KeyLogLevel))
	},
}

// Run executes CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}

func init() {
	rootCmd.AddCommand(project.SubCmd)
	rootCmd.AddCommand(customfield.SubCmd)
	rootCmd.AddCommand(issue.SubCmd)

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeySpaceURL, "", "Backlog space URL, e.g. https://example.backlog.com (env BACKLOG_SPACE_URL)")
	flags.String(config.KeyAPIKey, "", "Backlog API key (env BACKLOG_API_KEY)")
	flags.StringP(config.KeyOutput, "o", config.OutputTable, "One of 'table', 'json' or 'yaml'")
	flags.String(config.KeyLogLevel, "warn", "Log level: debug, info, warn, error, panic, fatal")
	flags.Duration(config.KeyTimeout, 30*time.Second, "Timeout of a single API request")

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, key := range []string{
		config.KeySpaceURL,
		config.KeyAPIKey,
		config.KeyOutput,
		config.KeyLogLevel,
		config.KeyTimeout,
	} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
}
