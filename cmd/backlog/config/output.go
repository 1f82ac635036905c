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

package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// ErrInvalidOutput is returned for an unknown --output value.
var ErrInvalidOutput = errors.New(`--output must be 'table', 'json' or 'yaml'`)

// ValidateOutput validates the configured output format.
func ValidateOutput() error {
	switch viper.GetString(KeyOutput) {
	case "", OutputTable, OutputJSON, OutputYAML:
		return nil
	}
	return ErrInvalidOutput
}

// NewTable returns a table writer in the borderless CLI style.
func NewTable() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

// Print writes v in the configured output format. render builds the table
// for the table format.
func Print(cmd *cobra.Command, v any, render func() table.Writer) error {
	switch viper.GetString(KeyOutput) {
	case "", OutputTable:
		cmd.Printf("%s\n", render().Render())
	case OutputJSON:
		marshalled, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(marshalled))
	case OutputYAML:
		marshalled, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Print(string(marshalled))
	default:
		return ErrInvalidOutput
	}
	return nil
}
