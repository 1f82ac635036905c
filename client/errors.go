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

package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/backlogkit/backlog/pkg/errors"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.NotFound("backlog resource not found").WithCode("ErrNotFound")

	// ErrUnauthenticated is returned when the API key is rejected.
	ErrUnauthenticated = errors.Unauthenticated("backlog api key rejected").WithCode("ErrUnauthenticated")

	// ErrInvalidSpaceURL is returned when the space URL cannot be parsed.
	ErrInvalidSpaceURL = errors.InvalidArgument("invalid space url").WithCode("ErrInvalidSpaceURL")

	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.InvalidArgument("api key is required").WithCode("ErrMissingAPIKey")
)

// ErrorDetail is one entry of the error list Backlog returns.
type ErrorDetail struct {
	Message  string `json:"message"`
	Code     int    `json:"code"`
	MoreInfo string `json:"moreInfo"`
}

// APIError is a non-2xx response of the Backlog API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Errors     []ErrorDetail
}

// Error returns the error message.
func (e *APIError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msgs = append(msgs, d.Message)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, strings.Join(msgs, "; "))
}

// Status returns the status matching the HTTP status code.
func (e *APIError) Status() errors.StatusCode {
	return errors.StatusFromHTTP(e.StatusCode)
}

// Unwrap maps well-known status codes to sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	default:
		return nil
	}
}

// newAPIError builds an APIError from the response. The body is decoded
// on a best-effort basis.
func newAPIError(method, path string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
	}

	var payload struct {
		Errors []ErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Errors = payload.Errors
	}

	return apiErr
}
