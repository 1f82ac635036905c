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

// Package config provides the configuration of the Backlog CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Keys of the settings shared by flags, environment variables and the
// config file.
const (
	KeySpaceURL = "space-url"
	KeyAPIKey   = "api-key"
	KeyOutput   = "output"
	KeyLogLevel = "log-level"
	KeyTimeout  = "timeout"

	// EnvPrefix is the prefix of environment variables, e.g. BACKLOG_API_KEY.
	EnvPrefix = "BACKLOG"
)

var (
	// ErrNotLoggedIn is returned when no API key is configured.
	ErrNotLoggedIn = errors.New("no API key: run 'backlog login' or set BACKLOG_API_KEY")

	// ErrMissingSpaceURL is returned when no space URL is configured.
	ErrMissingSpaceURL = errors.New("no space URL: pass --space-url or set BACKLOG_SPACE_URL")
)

// Dir returns the directory of the CLI configuration, creating it when
// missing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}

	dir := filepath.Join(home, ".backlog")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return dir, nil
}

// Path returns the path of the CLI configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", fmt.Errorf("ensure backlog dir: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Preload reads the configuration file and the environment into viper. It
// is used as PreRunE of the commands that talk to Backlog.
func Preload(_ *cobra.Command, _ []string) error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	path, err := Path()
	if err != nil {
		return err
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return nil
}

// Credentials are the space URL and API key stored by 'backlog login'.
type Credentials struct {
	SpaceURL string
	APIKey   string
}

// Load returns the credentials resolved from flags, environment and the
// config file, in that order.
func Load() (*Credentials, error) {
	creds := &Credentials{
		SpaceURL: viper.GetString(KeySpaceURL),
		APIKey:   viper.GetString(KeyAPIKey),
	}
	if creds.SpaceURL == "" {
		return nil, ErrMissingSpaceURL
	}
	if creds.APIKey == "" {
		return nil, ErrNotLoggedIn
	}
	return creds, nil
}

// Save stores the credentials in the config file.
func Save(creds *Credentials) error {
	path, err := Path()
	if err != nil {
		return err
	}

	v, err := readFile(path)
	if err != nil {
		return err
	}
	v.Set(KeySpaceURL, creds.SpaceURL)
	v.Set(KeyAPIKey, creds.APIKey)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return os.Chmod(path, 0600)
}

// RemoveAPIKey clears the stored API key and keeps the space URL.
func RemoveAPIKey() error {
	path, err := Path()
	if err != nil {
		return err
	}

	v, err := readFile(path)
	if err != nil {
		return err
	}
	if v.GetString(KeyAPIKey) == "" {
		return ErrNotLoggedIn
	}
	v.Set(KeyAPIKey, "")

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Delete deletes the configuration file.
func Delete() error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Clean(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove config file: %w", err)
	}
	return nil
}

// readFile reads the config file into a fresh viper instance so that flags
// bound to the global instance are never written back.
func readFile(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}
