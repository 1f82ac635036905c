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

package errors

import (
	"errors"
	"maps"
)

// MetadataError carries key-value context for logs, e.g. the custom field
// that failed to resolve. It keeps the message and status of the error it
// wraps.
type MetadataError struct {
	err      error
	metadata map[string]string
}

// WithMetadata wraps err with metadata. Nil errors stay nil and empty
// metadata leaves err untouched.
func WithMetadata(err error, metadata map[string]string) error {
	if err == nil || len(metadata) == 0 {
		return err
	}
	return MetadataError{err: err, metadata: maps.Clone(metadata)}
}

// Error returns the message of the wrapped error.
func (e MetadataError) Error() string {
	return e.err.Error()
}

// Status returns the status of the wrapped error.
func (e MetadataError) Status() StatusCode {
	return StatusOf(e.err)
}

// Unwrap returns the wrapped error.
func (e MetadataError) Unwrap() error {
	return e.err
}

// Metadata collects the metadata of every MetadataError in err's chain. When
// a key is set more than once the outermost value wins. It returns nil if
// the chain carries none.
func Metadata(err error) map[string]string {
	var layers []map[string]string
	for ; err != nil; err = errors.Unwrap(err) {
		if m, ok := err.(MetadataError); ok {
			layers = append(layers, m.metadata)
		}
	}
	if len(layers) == 0 {
		return nil
	}

	merged := make(map[string]string)
	for i := len(layers) - 1; i >= 0; i-- {
		maps.Copy(merged, layers[i])
	}
	return merged
}
