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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/backlogkit/backlog/cmd/backlog/config"
	"github.com/backlogkit/backlog/server"
	"github.com/backlogkit/backlog/server/logging"
	"github.com/backlogkit/backlog/server/rpc/auth"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath     string
	flagTokenSubject string

	requestTimeout      time.Duration
	customFieldCacheTTL time.Duration
	projectCacheTTL     time.Duration
	statsInterval       time.Duration
	tokenDuration       time.Duration

	conf = server.NewConfig()
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "mcp [options]",
		Short:   "Start the MCP server",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadServerConfig(cmd); err != nil {
				return err
			}

			b, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := b.Start(); err != nil {
				return err
			}

			if code := handleSignal(b); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "token",
		Short:   "Issue a bearer token for the MCP server",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadServerConfig(cmd); err != nil {
				return err
			}
			if conf.MCP.TokenSecret == "" {
				return server.ErrTokensDisabled
			}

			duration, err := conf.MCP.ParseTokenDuration()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenManager(conf.MCP.TokenSecret, duration).Generate(flagTokenSubject)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}
}

// loadServerConfig fills the server config from flags, the environment and
// the config file. A config file overwrites command-line arguments.
func loadServerConfig(cmd *cobra.Command) error {
	conf.Backlog.SpaceURL = viper.GetString(config.KeySpaceURL)
	conf.Backlog.APIKey = viper.GetString(config.KeyAPIKey)
	conf.Backlog.RequestTimeout = requestTimeout.String()
	conf.Backlog.CustomFieldCacheTTL = customFieldCacheTTL.String()
	conf.ProjectCache.TTL = projectCacheTTL.String()
	conf.ProjectCache.StatsInterval = statsInterval.String()
	conf.MCP.TokenDuration = tokenDuration.String()
	if conf.MCP.Token == "" {
		conf.MCP.Token = os.Getenv("BACKLOG_MCP_TOKEN")
	}
	if conf.MCP.TokenSecret == "" {
		conf.MCP.TokenSecret = os.Getenv("BACKLOG_MCP_TOKEN_SECRET")
	}

	if flagConfPath != "" {
		parsed, err := server.NewConfigFromFile(flagConfPath)
		if err != nil {
			return err
		}
		conf = parsed
	}

	level := viper.GetString(config.KeyLogLevel)
	if !cmd.Flags().Changed(config.KeyLogLevel) && os.Getenv("BACKLOG_LOG_LEVEL") == "" {
		level = "info"
	}
	return logging.SetLogLevel(level)
}

func handleSignal(b *server.Backlog) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-b.ShutdownCh():
		// already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	logging.DefaultLogger().Infof("caught signal: %s", sig.String())

	gracefulCh := make(chan struct{})
	go func() {
		if err := b.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newMCPCmd()
	cmd.PersistentFlags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().IntVar(
		&conf.MCP.Port,
		"port",
		server.DefaultMCPPort,
		"MCP port",
	)
	cmd.Flags().StringVar(
		&conf.MCP.CertFile,
		"cert-file",
		"",
		"MCP certification file's path",
	)
	cmd.Flags().StringVar(
		&conf.MCP.KeyFile,
		"key-file",
		"",
		"MCP key file's path",
	)
	cmd.Flags().Int64Var(
		&conf.MCP.MaxRequestBytes,
		"max-request-bytes",
		0,
		"Maximum request size in bytes the server will accept (0 for no limit)",
	)
	cmd.PersistentFlags().DurationVar(
		&tokenDuration,
		"token-duration",
		server.DefaultTokenDuration,
		"Lifetime of issued MCP tokens",
	)
	cmd.Flags().StringVar(
		&conf.Backlog.AllowedProjects,
		"allowed-projects",
		"",
		"Comma separated project keys the server may access (env BACKLOG_ALLOWED_PROJECTS)",
	)
	cmd.Flags().DurationVar(
		&requestTimeout,
		"request-timeout",
		server.DefaultRequestTimeout,
		"Timeout of a single Backlog API request",
	)
	cmd.Flags().Float64Var(
		&conf.Backlog.RateLimit,
		"rate-limit",
		0,
		"Requests per second sent to Backlog (0 for no limit)",
	)
	cmd.Flags().IntVar(
		&conf.Backlog.RateBurst,
		"rate-burst",
		1,
		"Burst size of --rate-limit",
	)
	cmd.Flags().IntVar(
		&conf.Backlog.MaxInFlight,
		"max-in-flight",
		0,
		"Maximum concurrent Backlog requests (0 for no limit)",
	)
	cmd.Flags().IntVar(
		&conf.Backlog.CustomFieldCacheSize,
		"custom-field-cache-size",
		server.DefaultCustomFieldCacheSize,
		"Number of projects whose custom field definitions are cached",
	)
	cmd.Flags().DurationVar(
		&customFieldCacheTTL,
		"custom-field-cache-ttl",
		server.DefaultCustomFieldCacheTTL,
		"TTL of cached custom field definitions",
	)
	cmd.Flags().IntVar(
		&conf.ProjectCache.MaxSize,
		"project-cache-size",
		server.DefaultProjectCacheSize,
		"Maximum number of cached projects",
	)
	cmd.Flags().DurationVar(
		&projectCacheTTL,
		"project-cache-ttl",
		server.DefaultProjectCacheTTL,
		"TTL of cached projects",
	)
	cmd.Flags().DurationVar(
		&statsInterval,
		"cache-stats-interval",
		server.DefaultProjectCacheStatsInterval,
		"Interval of cache statistics logs",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)

	tokenCmd := newTokenCmd()
	tokenCmd.Flags().StringVar(
		&flagTokenSubject,
		"subject",
		"mcp",
		"Subject of the token",
	)
	cmd.AddCommand(tokenCmd)

	rootCmd.AddCommand(cmd)
}
