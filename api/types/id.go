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

// Package types provides the types used in the Backlog API. This package is
// used by the client, the server and the CLI.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidIDOrKey is returned when the given string is neither a
	// numeric ID nor a key.
	ErrInvalidIDOrKey = errors.New("invalid id or key")
)

// IDOrKey references a resource by its numeric ID, its string key, or both
// when both are already known. Backlog endpoints accept either form in the
// path, so the ID is preferred when present.
type IDOrKey struct {
	id    int64
	key   string
	hasID bool
}

// NewID returns an IDOrKey that carries only the numeric ID.
func NewID(id int64) IDOrKey {
	return IDOrKey{id: id, hasID: true}
}

// NewKey returns an IDOrKey that carries only the key.
func NewKey(key string) IDOrKey {
	return IDOrKey{key: key}
}

// NewIDAndKey returns an IDOrKey that carries both the ID and the key.
func NewIDAndKey(id int64, key string) IDOrKey {
	return IDOrKey{id: id, key: key, hasID: true}
}

// ParseIDOrKey parses the given string. A string of digits is treated as an
// ID and anything else as a key.
func ParseIDOrKey(v string) (IDOrKey, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return IDOrKey{}, fmt.Errorf("empty string: %w", ErrInvalidIDOrKey)
	}

	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		if id <= 0 {
			return IDOrKey{}, fmt.Errorf("%s: %w", v, ErrInvalidIDOrKey)
		}
		return NewID(id), nil
	}

	return NewKey(v), nil
}

// ID returns the numeric ID and whether it is known.
func (r IDOrKey) ID() (int64, bool) {
	return r.id, r.hasID
}

// Key returns the key and whether it is known.
func (r IDOrKey) Key() (string, bool) {
	return r.key, r.key != ""
}

// IsBoth returns true if both the ID and the key are known.
func (r IDOrKey) IsBoth() bool {
	return r.hasID && r.key != ""
}

// IsZero returns true if neither the ID nor the key is known.
func (r IDOrKey) IsZero() bool {
	return !r.hasID && r.key == ""
}

// String returns the path segment used to reference the resource.
func (r IDOrKey) String() string {
	if r.hasID {
		return strconv.FormatInt(r.id, 10)
	}
	return r.key
}

// Set parses the given string and assigns the result, so that IDOrKey can be
// used as a command line flag value.
func (r *IDOrKey) Set(v string) error {
	parsed, err := ParseIDOrKey(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Type returns the type string of IDOrKey, used in cli help text.
func (r *IDOrKey) Type() string {
	return "IDOrKey"
}
