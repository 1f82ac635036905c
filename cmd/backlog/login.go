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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/backlogkit/backlog/client"
	"github.com/backlogkit/backlog/cmd/backlog/config"
)

var (
	flagSkipVerify bool
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "login",
		Short:   "Store the API key of a Backlog space",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			spaceURL := viper.GetString(config.KeySpaceURL)
			if spaceURL == "" {
				return config.ErrMissingSpaceURL
			}

			apiKey := viper.GetString(config.KeyAPIKey)
			if apiKey == "" {
				key, err := readAPIKey(cmd)
				if err != nil {
					return err
				}
				apiKey = key
			}
			if apiKey == "" {
				return config.ErrNotLoggedIn
			}

			if !flagSkipVerify {
				cli, err := client.New(spaceURL, apiKey, client.WithRequestTimeout(viper.GetDuration(config.KeyTimeout)))
				if err != nil {
					return err
				}
				space, err := cli.GetSpace(context.Background())
				if err != nil {
					return fmt.Errorf("verify API key: %w", err)
				}
				cmd.Printf("Logged in to %s (%s)\n", space.Name, space.SpaceKey)
			}

			return config.Save(&config.Credentials{
				SpaceURL: spaceURL,
				APIKey:   apiKey,
			})
		},
	}
}

// readAPIKey prompts for the API key without echo when stdin is a terminal.
func readAPIKey(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read API key: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	cmd.Print("API key: ")
	key, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}

func init() {
	cmd := newLoginCmd()
	cmd.Flags().BoolVar(
		&flagSkipVerify,
		"skip-verify",
		false,
		"Store the API key without checking it against the space",
	)
	rootCmd.AddCommand(cmd)
}
