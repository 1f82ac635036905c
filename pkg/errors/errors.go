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
)

// StatusError is an error that carries a StatusCode and an optional
// machine readable code such as "ErrAccessDenied".
type StatusError interface {
	error
	Status() StatusCode
	Code() string
	WithCode(code string) StatusError
}

type errorWithStatus struct {
	err    error
	status StatusCode
	code   string
}

// Error returns the error message.
func (e errorWithStatus) Error() string {
	return e.err.Error()
}

// Status returns the error status.
func (e errorWithStatus) Status() StatusCode {
	return e.status
}

// Code returns the machine readable code.
func (e errorWithStatus) Code() string {
	return e.code
}

// Unwrap returns the underlying error.
func (e errorWithStatus) Unwrap() error {
	return e.err
}

// WithCode returns a copy of the error carrying the given code.
func (e errorWithStatus) WithCode(code string) StatusError {
	return errorWithStatus{
		err:    e.err,
		status: e.status,
		code:   code,
	}
}

func newErrorWithStatus(message string, status StatusCode) StatusError {
	return errorWithStatus{
		err:    errors.New(message),
		status: status,
	}
}

// New creates an error with the given status.
func New(message string, status StatusCode) StatusError {
	return newErrorWithStatus(message, status)
}

// NotFound creates a "not found" error.
func NotFound(message string) StatusError {
	return newErrorWithStatus(message, ErrCodeNotFound)
}

// InvalidArgument creates an "invalid argument" error.
func InvalidArgument(message string) StatusError {
	return newErrorWithStatus(message, ErrCodeInvalidArgument)
}

// PermissionDenied creates a "permission denied" error.
func PermissionDenied(message string) StatusError {
	return newErrorWithStatus(message, ErrCodePermissionDenied)
}

// FailedPrecond creates a "failed precondition" error.
func FailedPrecond(message string) StatusError {
	return newErrorWithStatus(message, ErrCodeFailedPrecondition)
}

// Unauthenticated creates an "unauthenticated" error.
func Unauthenticated(message string) StatusError {
	return newErrorWithStatus(message, ErrCodeUnauthenticated)
}

// Internal creates an "internal" error.
func Internal(message string) StatusError {
	return newErrorWithStatus(message, ErrCodeInternal)
}

// Unavailable creates an "unavailable" error.
func Unavailable(message string) StatusError {
	return newErrorWithStatus(message, ErrCodeUnavailable)
}

// StatusOf returns the status of the first error in the chain of err that
// carries one, or 0 if there is none.
func StatusOf(err error) StatusCode {
	if err == nil {
		return 0
	}

	var statusErr interface{ Status() StatusCode }
	if errors.As(err, &statusErr) {
		return statusErr.Status()
	}

	return 0
}

// CodeOf returns the machine readable code of the first StatusError in the
// chain of err, or an empty string if there is none.
func CodeOf(err error) string {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code()
	}

	return ""
}

// IsStatus checks if the given error has the given status.
func IsStatus(err error, code StatusCode) bool {
	return StatusOf(err) == code
}

// IsClientError checks if the error blames the caller.
func IsClientError(err error) bool {
	return StatusOf(err).IsClientError()
}

// IsServerError checks if the error blames the remote side.
func IsServerError(err error) bool {
	return StatusOf(err).IsServerError()
}

// Is reports whether any error in err's chain matches target. It is
// re-exported so callers need only one errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
