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
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CustomFieldInput is a custom field value supplied by the caller when
// creating or updating an issue. List kinds reference items by ID. It is
// implemented by exactly one type per FieldType.
type CustomFieldInput interface {
	FieldType() FieldType
	isCustomFieldInput()
}

// TextInput sets a Text field.
type TextInput struct{ Value string }

// TextAreaInput sets a TextArea field.
type TextAreaInput struct{ Value string }

// NumericInput sets a Numeric field.
type NumericInput struct{ Value float64 }

// DateInput sets a Date field.
type DateInput struct{ Value time.Time }

// SingleListInput selects one item of a SingleList field.
// An ID of zero selects no item and only writes Other.
type SingleListInput struct {
	ID    int64
	Other *string
}

// MultipleListInput selects items of a MultipleList field, in order.
type MultipleListInput struct {
	IDs   []int64
	Other *string
}

// CheckBoxInput checks items of a CheckBox field, in order.
type CheckBoxInput struct {
	IDs   []int64
	Other *string
}

// RadioInput selects one item of a Radio field. An ID of zero selects no
// item and only writes Other.
type RadioInput struct {
	ID    int64
	Other *string
}

func (TextInput) FieldType() FieldType         { return FieldTypeText }
func (TextAreaInput) FieldType() FieldType     { return FieldTypeTextArea }
func (NumericInput) FieldType() FieldType      { return FieldTypeNumeric }
func (DateInput) FieldType() FieldType         { return FieldTypeDate }
func (SingleListInput) FieldType() FieldType   { return FieldTypeSingleList }
func (MultipleListInput) FieldType() FieldType { return FieldTypeMultipleList }
func (CheckBoxInput) FieldType() FieldType     { return FieldTypeCheckBox }
func (RadioInput) FieldType() FieldType        { return FieldTypeRadio }

func (*TextInput) isCustomFieldInput()         {}
func (*TextAreaInput) isCustomFieldInput()     {}
func (*NumericInput) isCustomFieldInput()      {}
func (*DateInput) isCustomFieldInput()         {}
func (*SingleListInput) isCustomFieldInput()   {}
func (*MultipleListInput) isCustomFieldInput() {}
func (*CheckBoxInput) isCustomFieldInput()     {}
func (*RadioInput) isCustomFieldInput()        {}

// CustomFieldFormKey returns the form key of the given custom field.
func CustomFieldFormKey(fieldID int64) string {
	return fmt.Sprintf("customField_%d", fieldID)
}

// CustomFieldOtherFormKey returns the form key of the "other" free text of
// the given custom field.
func CustomFieldOtherFormKey(fieldID int64) string {
	return fmt.Sprintf("customField_%d_otherValue", fieldID)
}

// ToFormValue renders input as a single form string plus its optional other
// value. MultipleList and CheckBox IDs are joined with commas; AppendForm
// must be used for the outgoing issue form instead.
func ToFormValue(input CustomFieldInput) (string, *string) {
	switch v := input.(type) {
	case *TextInput:
		return v.Value, nil
	case *TextAreaInput:
		return v.Value, nil
	case *NumericInput:
		return formatNumber(v.Value), nil
	case *DateInput:
		return v.Value.Format(DateLayout), nil
	case *SingleListInput:
		return formatItemID(v.ID), v.Other
	case *RadioInput:
		return formatItemID(v.ID), v.Other
	case *MultipleListInput:
		return joinIDs(v.IDs), v.Other
	case *CheckBoxInput:
		return joinIDs(v.IDs), v.Other
	default:
		return "", nil
	}
}

// AppendForm adds input to the issue form. The API expects MultipleList and
// CheckBox selections as one repeated customField_{id} entry per item.
func AppendForm(form url.Values, fieldID int64, input CustomFieldInput) {
	key := CustomFieldFormKey(fieldID)

	var other *string
	switch v := input.(type) {
	case *MultipleListInput:
		for _, id := range v.IDs {
			form.Add(key, strconv.FormatInt(id, 10))
		}
		other = v.Other
	case *CheckBoxInput:
		for _, id := range v.IDs {
			form.Add(key, strconv.FormatInt(id, 10))
		}
		other = v.Other
	case *SingleListInput:
		if v.ID != 0 {
			form.Set(key, strconv.FormatInt(v.ID, 10))
		}
		other = v.Other
	case *RadioInput:
		if v.ID != 0 {
			form.Set(key, strconv.FormatInt(v.ID, 10))
		}
		other = v.Other
	default:
		var primary string
		primary, other = ToFormValue(input)
		form.Set(key, primary)
	}

	if other != nil {
		form.Set(CustomFieldOtherFormKey(fieldID), *other)
	}
}

// formatItemID renders a single selection, empty when no item is selected.
func formatItemID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// ParseFormValue is the inverse of ToFormValue.
func ParseFormValue(t FieldType, primary string, other *string) (CustomFieldInput, error) {
	switch t {
	case FieldTypeText:
		return &TextInput{Value: primary}, nil
	case FieldTypeTextArea:
		return &TextAreaInput{Value: primary}, nil
	case FieldTypeNumeric:
		f, err := strconv.ParseFloat(primary, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", t, primary, ErrInvalidFormValue)
		}
		return &NumericInput{Value: f}, nil
	case FieldTypeDate:
		d, err := time.Parse(DateLayout, primary)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", t, primary, ErrInvalidFormValue)
		}
		return &DateInput{Value: d}, nil
	case FieldTypeSingleList, FieldTypeRadio:
		var id int64
		if primary != "" {
			var err error
			if id, err = strconv.ParseInt(primary, 10, 64); err != nil || id <= 0 {
				return nil, fmt.Errorf("%s %q: %w", t, primary, ErrInvalidFormValue)
			}
		}
		if t == FieldTypeRadio {
			return &RadioInput{ID: id, Other: other}, nil
		}
		return &SingleListInput{ID: id, Other: other}, nil
	case FieldTypeMultipleList, FieldTypeCheckBox:
		ids, err := splitIDs(primary)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", t, primary, ErrInvalidFormValue)
		}
		if t == FieldTypeCheckBox {
			return &CheckBoxInput{IDs: ids, Other: other}, nil
		}
		return &MultipleListInput{IDs: ids, Other: other}, nil
	default:
		return nil, unknownFieldType(t)
	}
}

// InputFromValue converts a decoded value back into the input that would
// write it.
func InputFromValue(v CustomFieldValue) (CustomFieldInput, error) {
	switch v := v.(type) {
	case *TextValue:
		return &TextInput{Value: v.Value}, nil
	case *TextAreaValue:
		return &TextAreaInput{Value: v.Value}, nil
	case *NumericValue:
		return &NumericInput{Value: v.Value}, nil
	case *DateValue:
		return &DateInput{Value: v.Value}, nil
	case *SingleListValue:
		if v.Item == nil {
			return nil, fmt.Errorf("%s without item: %w", v.FieldType(), ErrInvalidFormValue)
		}
		return &SingleListInput{ID: v.Item.ID, Other: v.Other}, nil
	case *RadioValue:
		if v.Item == nil {
			return nil, fmt.Errorf("%s without item: %w", v.FieldType(), ErrInvalidFormValue)
		}
		return &RadioInput{ID: v.Item.ID, Other: v.Other}, nil
	case *MultipleListValue:
		return &MultipleListInput{IDs: itemIDs(v.Items), Other: v.Other}, nil
	case *CheckBoxValue:
		return &CheckBoxInput{IDs: itemIDs(v.Items), Other: v.Other}, nil
	default:
		return nil, fmt.Errorf("convert %T: %w", v, ErrUnknownFieldType)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) ([]int64, error) {
	if s == "" {
		return []int64{}, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func itemIDs(items []ListItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
