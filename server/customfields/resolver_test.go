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

package customfields_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlogkit/backlog/api/types"
	pkgerrors "github.com/backlogkit/backlog/pkg/errors"
	"github.com/backlogkit/backlog/server/customfields"
)

type fakeLister struct {
	definitions []*types.CustomFieldType
	err         error
	calls       int
}

func (l *fakeLister) GetCustomFieldList(context.Context, types.IDOrKey) ([]*types.CustomFieldType, error) {
	l.calls++
	return l.definitions, l.err
}

func listSettings(items ...string) types.ListSettings {
	s := types.ListSettings{}
	for i, name := range items {
		s.Items = append(s.Items, types.ListItem{ID: int64(100 + i), Name: name, DisplayOrder: int64(i)})
	}
	return s
}

func definitions() []*types.CustomFieldType {
	return []*types.CustomFieldType{
		{ID: 1, TypeID: types.FieldTypeText, Name: "Summary", Settings: &types.TextSettings{}},
		{ID: 2, TypeID: types.FieldTypeTextArea, Name: "Notes", Settings: &types.TextAreaSettings{}},
		{ID: 3, TypeID: types.FieldTypeNumeric, Name: "Points", Settings: &types.NumericSettings{}},
		{ID: 4, TypeID: types.FieldTypeDate, Name: "Due", Settings: &types.DateSettings{}},
		{
			ID: 5, TypeID: types.FieldTypeSingleList, Name: "Severity",
			Settings: &types.SingleListSettings{ListSettings: listSettings("High", "Normal", "Low")},
		},
		{
			ID: 6, TypeID: types.FieldTypeMultipleList, Name: "Platforms",
			Settings: &types.MultipleListSettings{ListSettings: listSettings("iOS", "Android", "Web")},
		},
		{
			ID: 7, TypeID: types.FieldTypeCheckBox, Name: "Checks",
			Settings: &types.CheckBoxSettings{ListSettings: listSettings("Reviewed", "Tested")},
		},
		{
			ID: 8, TypeID: types.FieldTypeRadio, Name: "Env",
			Settings: &types.RadioSettings{ListSettings: listSettings("Dev", "Prod")},
		},
	}
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	project := types.NewKey("PROJ")

	t.Run("resolve every kind test", func(t *testing.T) {
		lister := &fakeLister{definitions: definitions()}
		inputs, err := customfields.Resolve(ctx, lister, project, map[string]json.RawMessage{
			"Summary":   raw(`"short"`),
			"Notes":     raw(`"long"`),
			"Points":    raw(`3.5`),
			"Due":       raw(`"2024-03-01"`),
			"Severity":  raw(`"High"`),
			"Platforms": raw(`["Web","iOS"]`),
			"Checks":    raw(`{"items":["Tested"],"other":"manual"}`),
			"Env":       raw(`{"name":"Prod"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, lister.calls)

		manual := "manual"
		assert.Equal(t, map[int64]types.CustomFieldInput{
			1: &types.TextInput{Value: "short"},
			2: &types.TextAreaInput{Value: "long"},
			3: &types.NumericInput{Value: 3.5},
			4: &types.DateInput{Value: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			5: &types.SingleListInput{ID: 100},
			6: &types.MultipleListInput{IDs: []int64{102, 100}},
			7: &types.CheckBoxInput{IDs: []int64{101}, Other: &manual},
			8: &types.RadioInput{ID: 101},
		}, inputs)
	})

	t.Run("single list object with other test", func(t *testing.T) {
		inputs, err := customfields.Resolve(ctx, &fakeLister{definitions: definitions()}, project,
			map[string]json.RawMessage{"Severity": raw(`{"name":"Low","other":"see notes"}`)})
		require.NoError(t, err)

		input, ok := inputs[5].(*types.SingleListInput)
		require.True(t, ok)
		assert.Equal(t, int64(102), input.ID)
		require.NotNil(t, input.Other)
		assert.Equal(t, "see notes", *input.Other)
	})

	t.Run("selection with only other writes no item test", func(t *testing.T) {
		inputs, err := customfields.Resolve(ctx, &fakeLister{definitions: definitions()}, project,
			map[string]json.RawMessage{
				"Severity": raw(`{"other":"unsure"}`),
				"Env":      raw(`{"other":"staging"}`),
			})
		require.NoError(t, err)

		unsure, staging := "unsure", "staging"
		assert.Equal(t, &types.SingleListInput{Other: &unsure}, inputs[5])
		assert.Equal(t, &types.RadioInput{Other: &staging}, inputs[8])

		form := url.Values{}
		types.AppendForm(form, 5, inputs[5])
		_, ok := form[types.CustomFieldFormKey(5)]
		assert.False(t, ok)
		assert.Equal(t, "unsure", form.Get(types.CustomFieldOtherFormKey(5)))
	})

	t.Run("option validation test", func(t *testing.T) {
		lister := &fakeLister{definitions: definitions()}

		inputs, err := customfields.Resolve(ctx, lister, project,
			map[string]json.RawMessage{"Severity": raw(`"High"`)})
		require.NoError(t, err)
		assert.Equal(t, &types.SingleListInput{ID: 100}, inputs[5])

		inputs, err = customfields.Resolve(ctx, lister, project,
			map[string]json.RawMessage{"Severity": raw(`"Medium"`)})
		assert.Nil(t, inputs)
		assert.ErrorIs(t, err, customfields.ErrOptionNotFound)
		assert.Equal(t, pkgerrors.ErrCodeInvalidArgument, pkgerrors.StatusOf(err))
		assert.Contains(t, err.Error(), `"High"`)
		assert.Contains(t, err.Error(), `"Normal"`)
		assert.Contains(t, err.Error(), `"Low"`)

		var optionErr *customfields.OptionNotFoundError
		require.ErrorAs(t, err, &optionErr)
		assert.Equal(t, []string{"High", "Normal", "Low"}, optionErr.ValidOptions)
		assert.Equal(t, map[string]string{
			"field":    "Severity",
			"field_id": "5",
			"type":     "SingleList",
		}, pkgerrors.Metadata(err))
	})

	t.Run("multiple list unknown option test", func(t *testing.T) {
		_, err := customfields.Resolve(ctx, &fakeLister{definitions: definitions()}, project,
			map[string]json.RawMessage{"Platforms": raw(`["Web","Desktop"]`)})
		assert.ErrorIs(t, err, customfields.ErrOptionNotFound)
		assert.Contains(t, err.Error(), `"iOS", "Android", "Web"`)
	})

	t.Run("missing field test", func(t *testing.T) {
		inputs, err := customfields.Resolve(ctx, &fakeLister{definitions: definitions()}, project,
			map[string]json.RawMessage{
				"Summary": raw(`"ok"`),
				"Unknown": raw(`"x"`),
			})
		assert.Nil(t, inputs)
		assert.ErrorIs(t, err, customfields.ErrFieldNotFound)
		assert.Equal(t, pkgerrors.ErrCodeNotFound, pkgerrors.StatusOf(err))

		var notFound *customfields.FieldNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Unknown", notFound.Field)
		assert.Equal(t, "PROJ", notFound.Project)
	})

	t.Run("shape mismatch test", func(t *testing.T) {
		tests := []struct {
			field string
			value string
			got   string
		}{
			{"Summary", `12`, "number"},
			{"Points", `"12"`, "string"},
			{"Due", `20240301`, "number"},
			{"Severity", `["High"]`, "array"},
			{"Platforms", `"Web"`, "string"},
			{"Checks", `true`, "boolean"},
			{"Env", `{"other":null,"name":3}`, "object"},
		}
		for _, tc := range tests {
			t.Run(tc.field, func(t *testing.T) {
				_, err := customfields.Resolve(ctx, &fakeLister{definitions: definitions()}, project,
					map[string]json.RawMessage{tc.field: raw(tc.value)})
				assert.ErrorIs(t, err, types.ErrShapeMismatch)

				var shapeErr *types.ShapeMismatchError
				require.ErrorAs(t, err, &shapeErr)
				assert.Equal(t, tc.field, shapeErr.Field)
				assert.Equal(t, tc.got, shapeErr.Got)
			})
		}
	})

	t.Run("invalid date test", func(t *testing.T) {
		_, err := customfields.Resolve(ctx, &fakeLister{definitions: definitions()}, project,
			map[string]json.RawMessage{"Due": raw(`"next week"`)})
		assert.ErrorIs(t, err, customfields.ErrInvalidValue)
	})

	t.Run("duplicate names last wins test", func(t *testing.T) {
		defs := append(definitions(),
			&types.CustomFieldType{ID: 9, TypeID: types.FieldTypeText, Name: "Summary"})
		inputs, err := customfields.Resolve(ctx, &fakeLister{definitions: defs}, project,
			map[string]json.RawMessage{"Summary": raw(`"x"`)})
		require.NoError(t, err)
		assert.Equal(t, map[int64]types.CustomFieldInput{9: &types.TextInput{Value: "x"}}, inputs)
	})

	t.Run("lister error test", func(t *testing.T) {
		errList := errors.New("unavailable")
		_, err := customfields.Resolve(ctx, &fakeLister{err: errList}, project,
			map[string]json.RawMessage{"Summary": raw(`"x"`)})
		assert.ErrorIs(t, err, errList)
	})

	t.Run("no fields skips the lister test", func(t *testing.T) {
		lister := &fakeLister{}
		inputs, err := customfields.Resolve(ctx, lister, project, nil)
		require.NoError(t, err)
		assert.Empty(t, inputs)
		assert.Equal(t, 0, lister.calls)
	})
}
