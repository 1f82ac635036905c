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
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode_String(t *testing.T) {
	tests := []struct {
		name string
		code StatusCode
		want string
	}{
		{"InvalidArgument", ErrCodeInvalidArgument, "invalid_argument"},
		{"NotFound", ErrCodeNotFound, "not_found"},
		{"PermissionDenied", ErrCodePermissionDenied, "permission_denied"},
		{"ResourceExhausted", ErrCodeResourceExhausted, "resource_exhausted"},
		{"FailedPrecondition", ErrCodeFailedPrecondition, "failed_precondition"},
		{"Internal", ErrCodeInternal, "internal"},
		{"Unavailable", ErrCodeUnavailable, "unavailable"},
		{"Unauthenticated", ErrCodeUnauthenticated, "unauthenticated"},
		{"Unknown", StatusCode(999), "code_999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.String())
		})
	}
}

func TestStatusCode_Classification(t *testing.T) {
	assert.True(t, ErrCodePermissionDenied.IsClientError())
	assert.False(t, ErrCodePermissionDenied.IsServerError())
	assert.True(t, ErrCodeUnavailable.IsServerError())
	assert.False(t, ErrCodeUnavailable.IsClientError())
	assert.False(t, StatusCode(0).IsClientError())
}

func TestStatusFromHTTP(t *testing.T) {
	tests := []struct {
		status int
		want   StatusCode
	}{
		{http.StatusOK, 0},
		{http.StatusBadRequest, ErrCodeInvalidArgument},
		{http.StatusUnauthorized, ErrCodeUnauthenticated},
		{http.StatusForbidden, ErrCodePermissionDenied},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeFailedPrecondition},
		{http.StatusTooManyRequests, ErrCodeResourceExhausted},
		{http.StatusInternalServerError, ErrCodeInternal},
		{http.StatusServiceUnavailable, ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromHTTP(tt.status))
		})
	}
}

func TestStatusOf(t *testing.T) {
	t.Run("status error", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, StatusOf(NotFound("field not found")))
	})

	t.Run("wrapped status error", func(t *testing.T) {
		err := fmt.Errorf("resolve custom fields: %w", InvalidArgument("shape mismatch"))
		assert.Equal(t, ErrCodeInvalidArgument, StatusOf(err))
		assert.True(t, IsClientError(err))
	})

	t.Run("standard error", func(t *testing.T) {
		assert.Equal(t, StatusCode(0), StatusOf(errors.New("standard error")))
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Equal(t, StatusCode(0), StatusOf(nil))
	})
}

func TestWithCode(t *testing.T) {
	base := PermissionDenied("access denied")
	coded := base.WithCode("ErrAccessDenied")

	assert.Equal(t, "", base.Code())
	assert.Equal(t, "ErrAccessDenied", coded.Code())
	assert.Equal(t, ErrCodePermissionDenied, coded.Status())
	assert.Equal(t, "ErrAccessDenied", CodeOf(fmt.Errorf("check: %w", coded)))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestMetadata(t *testing.T) {
	t.Run("attach metadata", func(t *testing.T) {
		err := WithMetadata(NotFound("field not found"), map[string]string{"field": "Priority"})
		assert.Equal(t, "field not found", err.Error())
		assert.Equal(t, map[string]string{"field": "Priority"}, Metadata(err))
		assert.Equal(t, ErrCodeNotFound, StatusOf(err))
	})

	t.Run("merge metadata", func(t *testing.T) {
		err := WithMetadata(InvalidArgument("bad"), map[string]string{"field": "A", "kind": "text"})
		err = WithMetadata(err, map[string]string{"field": "B"})
		assert.Equal(t, map[string]string{"field": "B", "kind": "text"}, Metadata(err))

		wrapped := WithMetadata(fmt.Errorf("resolve: %w", err), map[string]string{"project": "PROJ"})
		assert.Equal(t, map[string]string{"field": "B", "kind": "text", "project": "PROJ"}, Metadata(wrapped))
		assert.Equal(t, ErrCodeInvalidArgument, StatusOf(wrapped))
	})

	t.Run("nil and empty", func(t *testing.T) {
		assert.Nil(t, WithMetadata(nil, map[string]string{"a": "b"}))
		base := errors.New("plain")
		assert.Equal(t, base, WithMetadata(base, nil))
		assert.Nil(t, Metadata(base))
	})

	t.Run("returned metadata is a copy", func(t *testing.T) {
		err := WithMetadata(errors.New("plain"), map[string]string{"a": "b"})
		md := Metadata(err)
		md["a"] = "c"
		assert.Equal(t, "b", Metadata(err)["a"])
	})
}
