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
	"strings"
)

// ErrInvalidField is returned for a --field value without '='.
var ErrInvalidField = errors.New("field must be in the form name=value")

// ParseFields parses repeated --field name=value flags. A value that is
// valid JSON is used as is, e.g. '["iOS","Web"]' or '{"name":"Other","other":"x"}';
// anything else is taken as a string.
func ParseFields(flags []string) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(flags))
	for _, flag := range flags {
		name, value, ok := strings.Cut(flag, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%q: %w", flag, ErrInvalidField)
		}

		if json.Valid([]byte(value)) {
			fields[name] = json.RawMessage(value)
			continue
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", flag, err)
		}
		fields[name] = raw
	}
	return fields, nil
}
