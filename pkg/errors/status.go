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

// Package errors provides structured error statuses shared by the client,
// the server components and the CLI.
package errors

import (
	"fmt"
	"net/http"
)

// StatusCode classifies an error independently of the component that raised
// it. The values follow the Connect/gRPC code numbering.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller supplied a value that
	// is invalid regardless of the state of the system, e.g. a custom field
	// value of the wrong shape.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that a requested entity was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodePermissionDenied indicates that the caller may not operate on
	// the requested resource.
	ErrCodePermissionDenied StatusCode = 7

	// ErrCodeResourceExhausted indicates that a rate limit was hit.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the system is not in a state
	// required for the operation.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates a broken invariant.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the remote API is temporarily
	// unavailable.
	ErrCodeUnavailable StatusCode = 14

	// ErrCodeUnauthenticated indicates missing or invalid credentials.
	ErrCodeUnauthenticated StatusCode = 16
)

// String returns the string representation of the status code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodePermissionDenied:
		return "permission_denied"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	case ErrCodeUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsClientError returns true if the status code blames the caller.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodePermissionDenied,
		ErrCodeResourceExhausted, ErrCodeFailedPrecondition, ErrCodeUnauthenticated:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the status code blames the remote side.
func (c StatusCode) IsServerError() bool {
	switch c {
	case ErrCodeInternal, ErrCodeUnavailable:
		return true
	default:
		return false
	}
}

// StatusFromHTTP maps an HTTP status returned by the Backlog API to a
// StatusCode. Statuses below 400 map to 0.
func StatusFromHTTP(status int) StatusCode {
	switch {
	case status < http.StatusBadRequest:
		return 0
	case status == http.StatusUnauthorized:
		return ErrCodeUnauthenticated
	case status == http.StatusForbidden:
		return ErrCodePermissionDenied
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status == http.StatusTooManyRequests:
		return ErrCodeResourceExhausted
	case status == http.StatusConflict:
		return ErrCodeFailedPrecondition
	case status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return ErrCodeUnavailable
	case status >= http.StatusInternalServerError:
		return ErrCodeInternal
	default:
		return ErrCodeInvalidArgument
	}
}
