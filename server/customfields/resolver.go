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

// Package customfields resolves custom field values supplied by name into
// typed inputs keyed by custom field ID.
package customfields

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/backlogkit/backlog/api/types"
	"github.com/backlogkit/backlog/pkg/errors"
)

var (
	// ErrFieldNotFound is returned when a project has no custom field with
	// the given name.
	ErrFieldNotFound = errors.NotFound("custom field not found").WithCode("ErrFieldNotFound")

	// ErrOptionNotFound is returned when a list field has no item with the
	// given name.
	ErrOptionNotFound = errors.InvalidArgument("custom field option not found").WithCode("ErrOptionNotFound")

	// ErrInvalidValue is returned when a value has the right shape but
	// cannot be converted, e.g. a malformed date.
	ErrInvalidValue = errors.InvalidArgument("invalid custom field value").WithCode("ErrInvalidValue")
)

// FieldNotFoundError describes a missing custom field.
type FieldNotFoundError struct {
	Field   string
	Project string
}

// Error returns the error message.
func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("custom field %q not found in project %s", e.Field, e.Project)
}

// Unwrap returns ErrFieldNotFound.
func (e *FieldNotFoundError) Unwrap() error {
	return ErrFieldNotFound
}

// OptionNotFoundError describes a list item name that matches no item of
// the field.
type OptionNotFoundError struct {
	Field        string
	Option       string
	ValidOptions []string
}

// Error returns the error message listing every valid option.
func (e *OptionNotFoundError) Error() string {
	quoted := make([]string, len(e.ValidOptions))
	for i, name := range e.ValidOptions {
		quoted[i] = fmt.Sprintf("%q", name)
	}

	return fmt.Sprintf(
		"option %q not found in custom field %q, valid options: %s",
		e.Option, e.Field, strings.Join(quoted, ", "),
	)
}

// Unwrap returns ErrOptionNotFound.
func (e *OptionNotFoundError) Unwrap() error {
	return ErrOptionNotFound
}

// DefinitionLister lists the custom field definitions of a project.
type DefinitionLister interface {
	GetCustomFieldList(ctx context.Context, project types.IDOrKey) ([]*types.CustomFieldType, error)
}

// Resolve converts the given values, keyed by custom field name, into typed
// inputs keyed by custom field ID. The definitions are fetched once through
// lister. Names are processed in sorted order and the first failure aborts
// the whole resolution.
func Resolve(
	ctx context.Context,
	lister DefinitionLister,
	project types.IDOrKey,
	fieldsByName map[string]json.RawMessage,
) (map[int64]types.CustomFieldInput, error) {
	if len(fieldsByName) == 0 {
		return map[int64]types.CustomFieldInput{}, nil
	}

	definitions, err := lister.GetCustomFieldList(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list custom fields of project %s: %w", project, err)
	}

	// Duplicate names shadow each other, last one wins.
	byName := make(map[string]*types.CustomFieldType, len(definitions))
	for _, def := range definitions {
		byName[def.Name] = def
	}

	names := make([]string, 0, len(fieldsByName))
	for name := range fieldsByName {
		names = append(names, name)
	}
	sort.Strings(names)

	inputs := make(map[int64]types.CustomFieldInput, len(names))
	for _, name := range names {
		def, ok := byName[name]
		if !ok {
			return nil, &FieldNotFoundError{Field: name, Project: project.String()}
		}

		input, err := ToInput(def, fieldsByName[name])
		if err != nil {
			return nil, errors.WithMetadata(err, map[string]string{
				"field":    def.Name,
				"field_id": strconv.FormatInt(def.ID, 10),
				"type":     def.TypeID.String(),
			})
		}
		inputs[def.ID] = input
	}

	return inputs, nil
}

// listSelection is the object form of a single list value.
type listSelection struct {
	Name  *string `json:"name"`
	Other *string `json:"other"`
}

// multiSelection is the object form of a multiple list value.
type multiSelection struct {
	Items []string `json:"items"`
	Other *string  `json:"other"`
}

// ToInput converts a raw value into the input of the given definition.
//
// Text kinds and Date take a string and Numeric takes a number. SingleList
// and Radio take an item name or {"name", "other"}. MultipleList and
// CheckBox take an array of item names or {"items", "other"}.
func ToInput(def *types.CustomFieldType, raw json.RawMessage) (types.CustomFieldInput, error) {
	switch t := def.TypeID; t {
	case types.FieldTypeText, types.FieldTypeTextArea:
		var s string
		if err := decode(def, raw, "string", &s); err != nil {
			return nil, err
		}
		if t == types.FieldTypeText {
			return &types.TextInput{Value: s}, nil
		}
		return &types.TextAreaInput{Value: s}, nil

	case types.FieldTypeNumeric:
		var n float64
		if err := decode(def, raw, "number", &n); err != nil {
			return nil, err
		}
		return &types.NumericInput{Value: n}, nil

	case types.FieldTypeDate:
		var s string
		if err := decode(def, raw, "string", &s); err != nil {
			return nil, err
		}
		d, err := types.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("custom field %q: %v: %w", def.Name, err, ErrInvalidValue)
		}
		return &types.DateInput{Value: d}, nil

	case types.FieldTypeSingleList, types.FieldTypeRadio:
		id, other, err := toSelection(def, raw)
		if err != nil {
			return nil, err
		}
		if t == types.FieldTypeSingleList {
			return &types.SingleListInput{ID: id, Other: other}, nil
		}
		return &types.RadioInput{ID: id, Other: other}, nil

	case types.FieldTypeMultipleList, types.FieldTypeCheckBox:
		ids, other, err := toMultiSelection(def, raw)
		if err != nil {
			return nil, err
		}
		if t == types.FieldTypeMultipleList {
			return &types.MultipleListInput{IDs: ids, Other: other}, nil
		}
		return &types.CheckBoxInput{IDs: ids, Other: other}, nil

	default:
		return nil, fmt.Errorf("custom field %q: type id %d: %w", def.Name, int(t), types.ErrUnknownFieldType)
	}
}

func toSelection(def *types.CustomFieldType, raw json.RawMessage) (int64, *string, error) {
	switch types.JSONKind(raw) {
	case "string":
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return 0, nil, mismatch(def, raw, "string or object")
		}
		id, err := findItem(def, name)
		return id, nil, err
	case "object":
		var sel listSelection
		if err := json.Unmarshal(raw, &sel); err != nil {
			return 0, nil, mismatch(def, raw, "string or object")
		}
		if sel.Name == nil {
			if sel.Other == nil {
				return 0, nil, mismatch(def, raw, `object with "name" or "other"`)
			}
			return 0, sel.Other, nil
		}
		id, err := findItem(def, *sel.Name)
		return id, sel.Other, err
	default:
		return 0, nil, mismatch(def, raw, "string or object")
	}
}

func toMultiSelection(def *types.CustomFieldType, raw json.RawMessage) ([]int64, *string, error) {
	var names []string
	var other *string

	switch types.JSONKind(raw) {
	case "array":
		if err := json.Unmarshal(raw, &names); err != nil {
			return nil, nil, mismatch(def, raw, "array of strings or object")
		}
	case "object":
		var sel multiSelection
		if err := json.Unmarshal(raw, &sel); err != nil {
			return nil, nil, mismatch(def, raw, "array of strings or object")
		}
		names, other = sel.Items, sel.Other
	default:
		return nil, nil, mismatch(def, raw, "array of strings or object")
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := findItem(def, name)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
	}

	return ids, other, nil
}

func findItem(def *types.CustomFieldType, name string) (int64, error) {
	list, ok := types.ListSettingsOf(def.Settings)
	if !ok {
		return 0, &OptionNotFoundError{Field: def.Name, Option: name}
	}

	item, ok := list.FindItem(name)
	if !ok {
		return 0, &OptionNotFoundError{
			Field:        def.Name,
			Option:       name,
			ValidOptions: list.ItemNames(),
		}
	}

	return item.ID, nil
}

func decode(def *types.CustomFieldType, raw json.RawMessage, expected string, v any) error {
	if types.JSONKind(raw) != expected {
		return mismatch(def, raw, expected)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return mismatch(def, raw, expected)
	}

	return nil
}

func mismatch(def *types.CustomFieldType, raw json.RawMessage, expected string) error {
	return &types.ShapeMismatchError{
		Field:     def.Name,
		FieldType: def.TypeID,
		Expected:  expected,
		Got:       types.JSONKind(raw),
	}
}
