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
	"fmt"
)

// FieldType is the type tag of a custom field. The numeric values are the
// "typeId" used on the wire.
type FieldType int

// The kinds of custom fields supported by Backlog.
const (
	FieldTypeText         FieldType = 1
	FieldTypeTextArea     FieldType = 2
	FieldTypeNumeric      FieldType = 3
	FieldTypeDate         FieldType = 4
	FieldTypeSingleList   FieldType = 5
	FieldTypeMultipleList FieldType = 6
	FieldTypeCheckBox     FieldType = 7
	FieldTypeRadio        FieldType = 8
)

// String returns the name of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldTypeText:
		return "Text"
	case FieldTypeTextArea:
		return "TextArea"
	case FieldTypeNumeric:
		return "Numeric"
	case FieldTypeDate:
		return "Date"
	case FieldTypeSingleList:
		return "SingleList"
	case FieldTypeMultipleList:
		return "MultipleList"
	case FieldTypeCheckBox:
		return "CheckBox"
	case FieldTypeRadio:
		return "Radio"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// IsValid returns true if the field type is one of the known kinds.
func (t FieldType) IsValid() bool {
	return t >= FieldTypeText && t <= FieldTypeRadio
}

// IsList returns true if values of this type are selected from items.
func (t FieldType) IsList() bool {
	switch t {
	case FieldTypeSingleList, FieldTypeMultipleList, FieldTypeCheckBox, FieldTypeRadio:
		return true
	default:
		return false
	}
}

// IsMultiple returns true if more than one item can be selected.
func (t FieldType) IsMultiple() bool {
	return t == FieldTypeMultipleList || t == FieldTypeCheckBox
}

// ListItem is a selectable option of a list custom field.
type ListItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int64  `json:"displayOrder"`
}

// CustomFieldSettings holds the kind specific settings of a custom field
// definition. It is implemented by exactly one type per FieldType.
type CustomFieldSettings interface {
	FieldType() FieldType
	isCustomFieldSettings()
}

// TextSettings are the settings of a single line text field.
type TextSettings struct{}

// TextAreaSettings are the settings of a multi line text field.
type TextAreaSettings struct{}

// NumericSettings are the settings of a numeric field.
type NumericSettings struct {
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	InitialValue *float64 `json:"initialValue,omitempty"`
	Unit         string   `json:"unit,omitempty"`
}

// DateSettings are the settings of a date field. Dates are kept as sent by
// the API.
type DateSettings struct {
	Min              *string `json:"min,omitempty"`
	Max              *string `json:"max,omitempty"`
	InitialValueType *int    `json:"initialValueType,omitempty"`
	InitialDate      *string `json:"initialDate,omitempty"`
	InitialShift     *int    `json:"initialShift,omitempty"`
}

// ListSettings are the settings shared by all list kinds.
type ListSettings struct {
	Items        []ListItem `json:"items"`
	AllowAddItem bool       `json:"allowAddItem"`
	AllowInput   bool       `json:"allowInput"`
}

// FindItem returns the item with the given name.
func (s *ListSettings) FindItem(name string) (ListItem, bool) {
	for _, item := range s.Items {
		if item.Name == name {
			return item, true
		}
	}
	return ListItem{}, false
}

// FindItemByID returns the item with the given ID.
func (s *ListSettings) FindItemByID(id int64) (ListItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ListItem{}, false
}

// ItemNames returns the names of the items in definition order.
func (s *ListSettings) ItemNames() []string {
	names := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		names = append(names, item.Name)
	}
	return names
}

// SingleListSettings are the settings of a drop-down list.
type SingleListSettings struct{ ListSettings }

// MultipleListSettings are the settings of a multi-select list.
type MultipleListSettings struct{ ListSettings }

// CheckBoxSettings are the settings of a check box group.
type CheckBoxSettings struct{ ListSettings }

// RadioSettings are the settings of a radio button group.
type RadioSettings struct{ ListSettings }

func (TextSettings) FieldType() FieldType         { return FieldTypeText }
func (TextAreaSettings) FieldType() FieldType     { return FieldTypeTextArea }
func (NumericSettings) FieldType() FieldType      { return FieldTypeNumeric }
func (DateSettings) FieldType() FieldType         { return FieldTypeDate }
func (SingleListSettings) FieldType() FieldType   { return FieldTypeSingleList }
func (MultipleListSettings) FieldType() FieldType { return FieldTypeMultipleList }
func (CheckBoxSettings) FieldType() FieldType     { return FieldTypeCheckBox }
func (RadioSettings) FieldType() FieldType        { return FieldTypeRadio }

func (*TextSettings) isCustomFieldSettings()         {}
func (*TextAreaSettings) isCustomFieldSettings()     {}
func (*NumericSettings) isCustomFieldSettings()      {}
func (*DateSettings) isCustomFieldSettings()         {}
func (*SingleListSettings) isCustomFieldSettings()   {}
func (*MultipleListSettings) isCustomFieldSettings() {}
func (*CheckBoxSettings) isCustomFieldSettings()     {}
func (*RadioSettings) isCustomFieldSettings()        {}

// ListSettingsOf returns the list settings of s if s is a list kind.
func ListSettingsOf(s CustomFieldSettings) (*ListSettings, bool) {
	switch v := s.(type) {
	case *SingleListSettings:
		return &v.ListSettings, true
	case *MultipleListSettings:
		return &v.ListSettings, true
	case *CheckBoxSettings:
		return &v.ListSettings, true
	case *RadioSettings:
		return &v.ListSettings, true
	default:
		return nil, false
	}
}

// DecodeCustomFieldSettings decodes the settings of the given field type from
// raw, which holds the settings fields at its top level.
func DecodeCustomFieldSettings(t FieldType, raw []byte) (CustomFieldSettings, error) {
	var settings CustomFieldSettings
	switch t {
	case FieldTypeText:
		return &TextSettings{}, nil
	case FieldTypeTextArea:
		return &TextAreaSettings{}, nil
	case FieldTypeNumeric:
		settings = &NumericSettings{}
	case FieldTypeDate:
		settings = &DateSettings{}
	case FieldTypeSingleList:
		settings = &SingleListSettings{}
	case FieldTypeMultipleList:
		settings = &MultipleListSettings{}
	case FieldTypeCheckBox:
		settings = &CheckBoxSettings{}
	case FieldTypeRadio:
		settings = &RadioSettings{}
	default:
		return nil, unknownFieldType(t)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, settings); err != nil {
			return nil, fmt.Errorf("decode %s settings: %w", t, err)
		}
	}

	return settings, nil
}

// CustomFieldType is the definition of a custom field of a project.
type CustomFieldType struct {
	ID                   int64
	ProjectID            int64
	TypeID               FieldType
	Name                 string
	Description          string
	Required             bool
	UseIssueType         bool
	ApplicableIssueTypes []int64
	DisplayOrder         int64
	Settings             CustomFieldSettings
}

type customFieldTypeHeader struct {
	ID                   int64           `json:"id"`
	ProjectID            int64           `json:"projectId"`
	TypeID               FieldType       `json:"typeId"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Required             bool            `json:"required"`
	UseIssueType         bool            `json:"useIssueType"`
	ApplicableIssueTypes []int64         `json:"applicableIssueTypes"`
	DisplayOrder         int64           `json:"displayOrder"`
	Settings             json.RawMessage `json:"settings,omitempty"`
}

// UnmarshalJSON decodes a definition. The API puts the kind specific settings
// next to the "typeId" tag; a nested "settings" object is accepted as well.
// Both shapes go through DecodeCustomFieldSettings.
func (c *CustomFieldType) UnmarshalJSON(data []byte) error {
	var header customFieldTypeHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}

	raw := []byte(data)
	if len(header.Settings) > 0 && !bytes.Equal(header.Settings, []byte("null")) {
		raw = header.Settings
	}

	settings, err := DecodeCustomFieldSettings(header.TypeID, raw)
	if err != nil {
		return fmt.Errorf("custom field %q: %w", header.Name, err)
	}

	*c = CustomFieldType{
		ID:                   header.ID,
		ProjectID:            header.ProjectID,
		TypeID:               header.TypeID,
		Name:                 header.Name,
		Description:          header.Description,
		Required:             header.Required,
		UseIssueType:         header.UseIssueType,
		ApplicableIssueTypes: header.ApplicableIssueTypes,
		DisplayOrder:         header.DisplayOrder,
		Settings:             settings,
	}
	return nil
}

// MarshalJSON encodes the definition in the API shape, with the settings
// fields flattened next to "typeId".
func (c CustomFieldType) MarshalJSON() ([]byte, error) {
	fields := map[string]any{}
	if c.Settings != nil {
		encoded, err := json.Marshal(c.Settings)
		if err != nil {
			return nil, err
		}
		var settings map[string]json.RawMessage
		if err := json.Unmarshal(encoded, &settings); err != nil {
			return nil, err
		}
		for k, v := range settings {
			fields[k] = v
		}
	}

	fields["id"] = c.ID
	fields["projectId"] = c.ProjectID
	fields["typeId"] = c.TypeID
	fields["name"] = c.Name
	fields["description"] = c.Description
	fields["required"] = c.Required
	fields["useIssueType"] = c.UseIssueType
	fields["applicableIssueTypes"] = c.ApplicableIssueTypes
	fields["displayOrder"] = c.DisplayOrder

	return json.Marshal(fields)
}
