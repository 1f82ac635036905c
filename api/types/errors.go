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

package types

import (
	"fmt"

	"github.com/backlogkit/backlog/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when a JSON value does not have the shape
	// required by the custom field type.
	ErrShapeMismatch = errors.InvalidArgument("custom field value shape mismatch").WithCode("ErrShapeMismatch")

	// ErrUnknownFieldType is returned when a custom field type ID is not one
	// of the known kinds.
	ErrUnknownFieldType = errors.InvalidArgument("unknown custom field type").WithCode("ErrUnknownFieldType")

	// ErrInvalidFormValue is returned when a form value cannot be parsed back
	// into a custom field input.
	ErrInvalidFormValue = errors.InvalidArgument("invalid custom field form value").WithCode("ErrInvalidFormValue")
)

// ShapeMismatchError describes a JSON value whose shape does not match what
// the custom field type requires.
type ShapeMismatchError struct {
	// Field is the name of the custom field, if known.
	Field string

	// FieldType is the declared type of the field.
	FieldType FieldType

	// Expected describes the accepted shapes, e.g. "string or object".
	Expected string

	// Got is the JSON kind that was supplied.
	Got string
}

// Error returns the error message.
func (e *ShapeMismatchError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf(
			"custom field %q (%s) expects %s, got %s",
			e.Field, e.FieldType, e.Expected, e.Got,
		)
	}

	return fmt.Sprintf("%s custom field expects %s, got %s", e.FieldType, e.Expected, e.Got)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

func unknownFieldType(t FieldType) error {
	return fmt.Errorf("type id %d: %w", int(t), ErrUnknownFieldType)
}
