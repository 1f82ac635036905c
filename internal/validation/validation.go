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

// Package validation checks configuration and request structs with
// go-playground/validator and renders English messages for the failures.
//
// On top of the built-in tags it understands project_key, issue_key,
// duration and emptystring.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	issueKeyPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[0-9]+$`)
)

// rule is a custom tag with its English message. "{0}" in msg is the field.
type rule struct {
	tag string
	msg string
	fn  func(s string) bool
}

var rules = []rule{
	{
		tag: "project_key",
		msg: "{0} must start with an uppercase letter and contain only uppercase letters, numbers and underscores",
		fn:  projectKeyPattern.MatchString,
	},
	{
		tag: "issue_key",
		msg: "{0} must be a project key followed by a hyphen and a number",
		fn:  issueKeyPattern.MatchString,
	},
	{
		tag: "duration",
		msg: "{0} must be a valid time duration string format",
		fn: func(s string) bool {
			_, err := time.ParseDuration(s)
			return err == nil
		},
	},
	{
		tag: "emptystring",
		msg: "{0} must be empty",
		fn:  func(s string) bool { return s == "" },
	},
}

var (
	validate = validator.New()
	trans    ut.Translator
)

func init() {
	locale := en.New()
	trans, _ = ut.New(locale, locale).GetTranslator(locale.Locale())

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(fmt.Sprintf("validation: default translations: %v", err))
	}
	for _, r := range rules {
		fn := r.fn
		if err := RegisterValidation(r.tag, func(fl FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("validation: %v", err))
		}
		if err := RegisterTranslation(r.tag, r.msg); err != nil {
			panic(fmt.Sprintf("validation: %v", err))
		}
	}
	// Optional URLs fail on the url branch, so report that one.
	if err := RegisterTranslation("url|emptystring", "{0} must be a valid URL"); err != nil {
		panic(fmt.Sprintf("validation: %v", err))
	}
}

// FieldLevel gives custom rules access to the field being validated.
type FieldLevel = validator.FieldLevel

// Violation is one failed rule.
type Violation struct {
	Tag         string
	Field       string
	Err         error
	Description string
}

// Error returns the translated message, or the raw validator message when
// the tag has no translation.
func (v Violation) Error() string {
	if v.Description != "" {
		return v.Description
	}
	return v.Err.Error()
}

// Unwrap returns the validator's FieldError.
func (v Violation) Unwrap() error {
	return v.Err
}

// StructError collects every violation of a struct, one per line.
type StructError struct {
	Violations []Violation
}

// Error joins the violation messages with newlines.
func (s StructError) Error() string {
	msgs := make([]string, len(s.Violations))
	for i, v := range s.Violations {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// RegisterValidation adds a custom tag.
func RegisterValidation(tag string, fn validator.Func) error {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register validation %s: %w", tag, err)
	}
	return nil
}

// RegisterTranslation sets the English message of tag.
func RegisterTranslation(tag, msg string) error {
	register := func(t ut.Translator) error {
		return t.Add(tag, msg, true)
	}
	translate := func(t ut.Translator, fe validator.FieldError) string {
		s, _ := t.T(tag, fe.Field())
		return s
	}
	if err := validate.RegisterTranslation(tag, trans, register, translate); err != nil {
		return fmt.Errorf("register translation %s: %w", tag, err)
	}
	return nil
}

// ValidateValue checks a single value against tag and returns the first
// Violation.
func ValidateValue(v interface{}, tag string) error {
	violations, err := toViolations(validate.Var(v, tag))
	if err != nil || len(violations) == 0 {
		return err
	}
	return violations[0]
}

// ValidateStruct checks the validate tags of s and returns a *StructError
// listing every violation.
func ValidateStruct(s interface{}) error {
	violations, err := toViolations(validate.Struct(s))
	if err != nil || len(violations) == 0 {
		return err
	}
	return &StructError{Violations: violations}
}

// toViolations translates validator failures. Other errors, such as an
// invalid argument to Struct, are returned as is.
func toViolations(err error) ([]Violation, error) {
	if err == nil {
		return nil, nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, err
	}

	violations := make([]Violation, 0, len(errs))
	for _, fe := range errs {
		violations = append(violations, Violation{
			Tag:         fe.Tag(),
			Field:       fe.StructField(),
			Err:         fe,
			Description: fe.Translate(trans),
		})
	}
	return violations, nil
}
