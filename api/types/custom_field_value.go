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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the layout of custom field dates on the wire.
const DateLayout = "2006-01-02"

// CustomFieldValue is the decoded value of a custom field of an issue. It is
// implemented by exactly one type per FieldType.
type CustomFieldValue interface {
	FieldType() FieldType
	isCustomFieldValue()
}

// TextValue is the value of a Text field.
type TextValue struct{ Value string }

// TextAreaValue is the value of a TextArea field.
type TextAreaValue struct{ Value string }

// NumericValue is the value of a Numeric field.
type NumericValue struct{ Value float64 }

// DateValue is the value of a Date field. Value is midnight UTC.
type DateValue struct{ Value time.Time }

// SingleListValue is the value of a SingleList field.
type SingleListValue struct {
	Item  *ListItem
	Other *string
}

// MultipleListValue is the value of a MultipleList field.
type MultipleListValue struct {
	Items []ListItem
	Other *string
}

// CheckBoxValue is the value of a CheckBox field.
type CheckBoxValue struct {
	Items []ListItem
	Other *string
}

// RadioValue is the value of a Radio field.
type RadioValue struct {
	Item  *ListItem
	Other *string
}

func (TextValue) FieldType() FieldType         { return FieldTypeText }
func (TextAreaValue) FieldType() FieldType     { return FieldTypeTextArea }
func (NumericValue) FieldType() FieldType      { return FieldTypeNumeric }
func (DateValue) FieldType() FieldType         { return FieldTypeDate }
func (SingleListValue) FieldType() FieldType   { return FieldTypeSingleList }
func (MultipleListValue) FieldType() FieldType { return FieldTypeMultipleList }
func (CheckBoxValue) FieldType() FieldType     { return FieldTypeCheckBox }
func (RadioValue) FieldType() FieldType        { return FieldTypeRadio }

func (*TextValue) isCustomFieldValue()         {}
func (*TextAreaValue) isCustomFieldValue()     {}
func (*NumericValue) isCustomFieldValue()      {}
func (*DateValue) isCustomFieldValue()         {}
func (*SingleListValue) isCustomFieldValue()   {}
func (*MultipleListValue) isCustomFieldValue() {}
func (*CheckBoxValue) isCustomFieldValue()     {}
func (*RadioValue) isCustomFieldValue()        {}

// CustomField is a custom field attached to an issue.
type CustomField struct {
	ID          int64
	FieldTypeID FieldType
	Name        string

	// Value is nil when the field is not set.
	Value CustomFieldValue
}

type customFieldJSON struct {
	ID          int64           `json:"id"`
	FieldTypeID FieldType       `json:"fieldTypeId"`
	Name        string          `json:"name"`
	Value       json.RawMessage `json:"value"`
	OtherValue  json.RawMessage `json:"otherValue,omitempty"`
}

// UnmarshalJSON decodes a custom field of an issue, dispatching on the
// sibling "fieldTypeId" tag.
func (c *CustomField) UnmarshalJSON(data []byte) error {
	var raw customFieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value, err := DecodeCustomFieldValue(raw.FieldTypeID, raw.Value, raw.OtherValue)
	if err != nil {
		var shapeErr *ShapeMismatchError
		if errors.As(err, &shapeErr) {
			shapeErr.Field = raw.Name
		}
		return err
	}

	*c = CustomField{
		ID:          raw.ID,
		FieldTypeID: raw.FieldTypeID,
		Name:        raw.Name,
		Value:       value,
	}
	return nil
}

// MarshalJSON encodes the custom field in the API shape.
func (c CustomField) MarshalJSON() ([]byte, error) {
	raw := customFieldJSON{
		ID:          c.ID,
		FieldTypeID: c.FieldTypeID,
		Name:        c.Name,
		Value:       json.RawMessage("null"),
	}

	if c.Value != nil {
		value, other, err := EncodeCustomFieldValue(c.Value)
		if err != nil {
			return nil, err
		}
		raw.Value = value
		raw.OtherValue = other
	}

	return json.Marshal(raw)
}

// DecodeCustomFieldValue decodes the raw "value" and "otherValue" of a custom
// field of the given type. A null value decodes to nil unless an other value
// is present for a list kind.
func DecodeCustomFieldValue(t FieldType, value, otherValue json.RawMessage) (CustomFieldValue, error) {
	if !t.IsValid() {
		return nil, unknownFieldType(t)
	}

	other, err := decodeOther(t, otherValue)
	if err != nil {
		return nil, err
	}

	if isNull(value) && (other == nil || !t.IsList()) {
		return nil, nil
	}

	switch t {
	case FieldTypeText:
		s, err := decodeString(t, value)
		if err != nil {
			return nil, err
		}
		return &TextValue{Value: s}, nil
	case FieldTypeTextArea:
		s, err := decodeString(t, value)
		if err != nil {
			return nil, err
		}
		return &TextAreaValue{Value: s}, nil
	case FieldTypeNumeric:
		f, err := decodeNumber(t, value)
		if err != nil {
			return nil, err
		}
		return &NumericValue{Value: f}, nil
	case FieldTypeDate:
		d, err := decodeDate(t, value)
		if err != nil {
			return nil, err
		}
		return &DateValue{Value: d}, nil
	case FieldTypeSingleList, FieldTypeRadio:
		item, err := decodeItem(t, value)
		if err != nil {
			return nil, err
		}
		if t == FieldTypeRadio {
			return &RadioValue{Item: item, Other: other}, nil
		}
		return &SingleListValue{Item: item, Other: other}, nil
	default:
		items, err := decodeItems(t, value)
		if err != nil {
			return nil, err
		}
		if t == FieldTypeCheckBox {
			return &CheckBoxValue{Items: items, Other: other}, nil
		}
		return &MultipleListValue{Items: items, Other: other}, nil
	}
}

// EncodeCustomFieldValue encodes a value into the raw "value" and
// "otherValue" of the API shape. other is nil when there is no other value.
func EncodeCustomFieldValue(v CustomFieldValue) (value json.RawMessage, other json.RawMessage, err error) {
	var primary any
	var otherValue *string

	switch v := v.(type) {
	case *TextValue:
		primary = v.Value
	case *TextAreaValue:
		primary = v.Value
	case *NumericValue:
		primary = v.Value
	case *DateValue:
		primary = v.Value.UTC().Format(DateLayout)
	case *SingleListValue:
		primary, otherValue = v.Item, v.Other
	case *RadioValue:
		primary, otherValue = v.Item, v.Other
	case *MultipleListValue:
		primary, otherValue = nonNilItems(v.Items), v.Other
	case *CheckBoxValue:
		primary, otherValue = nonNilItems(v.Items), v.Other
	default:
		return nil, nil, fmt.Errorf("encode %T: %w", v, ErrUnknownFieldType)
	}

	value, err = json.Marshal(primary)
	if err != nil {
		return nil, nil, fmt.Errorf("encode custom field value: %w", err)
	}
	if otherValue != nil {
		other, err = json.Marshal(*otherValue)
		if err != nil {
			return nil, nil, fmt.Errorf("encode custom field other value: %w", err)
		}
	}

	return value, other, nil
}

// MarshalCustomFieldValue renders v as a JSON object holding its API
// "value" and, for list kinds with free text, "otherValue". A nil value
// renders as null.
func MarshalCustomFieldValue(v CustomFieldValue) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	value, other, err := EncodeCustomFieldValue(v)
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		Value      json.RawMessage `json:"value"`
		OtherValue json.RawMessage `json:"otherValue,omitempty"`
	}{Value: value, OtherValue: other})
}

func nonNilItems(items []ListItem) []ListItem {
	if items == nil {
		return []ListItem{}
	}
	return items
}

// JSONKind returns the JSON kind of raw, used in shape mismatch errors.
func JSONKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}

	switch trimmed[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func isNull(raw json.RawMessage) bool {
	kind := JSONKind(raw)
	return kind == "null" || kind == "nothing"
}

func mismatch(t FieldType, expected string, raw json.RawMessage) error {
	return &ShapeMismatchError{FieldType: t, Expected: expected, Got: JSONKind(raw)}
}

func decodeString(t FieldType, raw json.RawMessage) (string, error) {
	if JSONKind(raw) != "string" {
		return "", mismatch(t, "string", raw)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", mismatch(t, "string", raw)
	}
	return s, nil
}

func decodeNumber(t FieldType, raw json.RawMessage) (float64, error) {
	if JSONKind(raw) != "number" {
		return 0, mismatch(t, "number", raw)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, mismatch(t, "number", raw)
	}
	return f, nil
}

func decodeDate(t FieldType, raw json.RawMessage) (time.Time, error) {
	s, err := decodeString(t, raw)
	if err != nil {
		return time.Time{}, err
	}

	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, &ShapeMismatchError{FieldType: t, Expected: "date string", Got: fmt.Sprintf("%q", s)}
	}
	return d, nil
}

func decodeItem(t FieldType, raw json.RawMessage) (*ListItem, error) {
	if isNull(raw) {
		return nil, nil
	}
	if JSONKind(raw) != "object" {
		return nil, mismatch(t, "object", raw)
	}

	var item ListItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, mismatch(t, "list item object", raw)
	}
	return &item, nil
}

func decodeItems(t FieldType, raw json.RawMessage) ([]ListItem, error) {
	if isNull(raw) {
		return nil, nil
	}
	if JSONKind(raw) != "array" {
		return nil, mismatch(t, "array", raw)
	}

	var items []ListItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, mismatch(t, "array of list item objects", raw)
	}
	return items, nil
}

func decodeOther(t FieldType, raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}

	s, err := decodeString(t, raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseDate parses a custom field date. Both "2006-01-02" and RFC 3339
// timestamps are accepted; the result is midnight UTC of the date.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}

	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

// FormatCustomFieldValue renders v for display: list items by name, dates in
// DateLayout and the other text in parentheses. A nil value renders as "".
func FormatCustomFieldValue(v CustomFieldValue) string {
	withOther := func(s string, other *string) string {
		if other == nil || *other == "" {
			return s
		}
		if s == "" {
			return "(" + *other + ")"
		}
		return s + " (" + *other + ")"
	}
	itemName := func(item *ListItem) string {
		if item == nil {
			return ""
		}
		return item.Name
	}
	itemNames := func(items []ListItem) string {
		var buf bytes.Buffer
		for i, item := range items {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(item.Name)
		}
		return buf.String()
	}

	switch v := v.(type) {
	case *TextValue:
		return v.Value
	case *TextAreaValue:
		return v.Value
	case *NumericValue:
		return formatNumber(v.Value)
	case *DateValue:
		return v.Value.Format(DateLayout)
	case *SingleListValue:
		return withOther(itemName(v.Item), v.Other)
	case *RadioValue:
		return withOther(itemName(v.Item), v.Other)
	case *MultipleListValue:
		return withOther(itemNames(v.Items), v.Other)
	case *CheckBoxValue:
		return withOther(itemNames(v.Items), v.Other)
	}
	return ""
}
