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

package config_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/cmd/backlog/config"
)

func TestParseFields(t *testing.T) {
	t.Run("json and string values test", func(t *testing.T) {
		fields, err := config.ParseFields([]string{
			"Severity=High",
			`Platforms=["iOS","Web"]`,
			"Estimate=3.5",
			`Category={"name":"Other","other":"misc"}`,
			"Note=a=b",
		})
		require.NoError(t, err)

		assert.JSONEq(t, `"High"`, string(fields["Severity"]))
		assert.JSONEq(t, `["iOS","Web"]`, string(fields["Platforms"]))
		assert.JSONEq(t, `3.5`, string(fields["Estimate"]))
		assert.JSONEq(t, `{"name":"Other","other":"misc"}`, string(fields["Category"]))
		assert.JSONEq(t, `"a=b"`, string(fields["Note"]))
	})

	t.Run("invalid field test", func(t *testing.T) {
		_, err := config.ParseFields([]string{"Severity"})
		assert.ErrorIs(t, err, config.ErrInvalidField)

		_, err = config.ParseFields([]string{"=High"})
		assert.ErrorIs(t, err, config.ErrInvalidField)
	})
}

func TestParseProject(t *testing.T) {
	ref, err := config.ParseProject("PROJECT_A")
	require.NoError(t, err)
	key, ok := ref.Key()
	assert.True(t, ok)
	assert.Equal(t, "PROJECT_A", key)

	ref, err = config.ParseProject("42")
	require.NoError(t, err)
	assert.Equal(t, types.NewID(42), ref)

	_, err = config.ParseProject("project-a")
	assert.Error(t, err)

	_, err = config.ParseProject("")
	assert.ErrorIs(t, err, types.ErrInvalidIDOrKey)
}

func TestCredentials(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Cleanup(viper.Reset)

	t.Run("save and load test", func(t *testing.T) {
		require.NoError(t, config.Save(&config.Credentials{
			SpaceURL: "https://example.backlog.com",
			APIKey:   "secret",
		}))

		path := filepath.Join(home, ".backlog", "config.yaml")
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		viper.Reset()
		require.NoError(t, config.Preload(nil, nil))
		creds, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "https://example.backlog.com", creds.SpaceURL)
		assert.Equal(t, "secret", creds.APIKey)
	})

	t.Run("env overrides file test", func(t *testing.T) {
		t.Setenv("BACKLOG_API_KEY", "from-env")
		viper.Reset()
		require.NoError(t, config.Preload(nil, nil))
		creds, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "from-env", creds.APIKey)
	})

	t.Run("logout test", func(t *testing.T) {
		require.NoError(t, config.RemoveAPIKey())
		assert.ErrorIs(t, config.RemoveAPIKey(), config.ErrNotLoggedIn)

		viper.Reset()
		require.NoError(t, config.Preload(nil, nil))
		_, err := config.Load()
		assert.ErrorIs(t, err, config.ErrNotLoggedIn)

		require.NoError(t, config.Delete())
		require.NoError(t, config.Delete())
	})
}

func TestPrint(t *testing.T) {
	t.Cleanup(viper.Reset)
	project := &types.Project{ID: 1, ProjectKey: "PROJECT_A", Name: "A"}

	run := func(output string) string {
		viper.Set(config.KeyOutput, output)
		cmd := &cobra.Command{}
		buf := &bytes.Buffer{}
		cmd.SetOut(buf)
		require.NoError(t, config.Print(cmd, project, func() table.Writer {
			tw := config.NewTable()
			tw.AppendHeader(table.Row{"ID", "KEY"})
			tw.AppendRow(table.Row{project.ID, project.ProjectKey})
			return tw
		}))
		return buf.String()
	}

	assert.Contains(t, run(config.OutputTable), "PROJECT_A")

	var decoded types.Project
	require.NoError(t, json.Unmarshal([]byte(run(config.OutputJSON)), &decoded))
	assert.Equal(t, *project, decoded)

	assert.Contains(t, run(config.OutputYAML), "projectkey: PROJECT_A")

	viper.Set(config.KeyOutput, "xml")
	assert.ErrorIs(t, config.ValidateOutput(), config.ErrInvalidOutput)
}
