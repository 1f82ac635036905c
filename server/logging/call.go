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

package logging

import (
	"context"
	"errors"
	"sort"
	"time"

	errs "github.com/backlogkit/backlog/pkg/errors"
)

// CallLogLevel is the severity used to log the outcome of a call such as an
// API request or an MCP tool invocation.
type CallLogLevel int

// The severities of call logs.
const (
	CallLogDebug CallLogLevel = iota
	CallLogInfo
	CallLogWarn
	CallLogError
)

// String returns the string representation of CallLogLevel.
func (l CallLogLevel) String() string {
	switch l {
	case CallLogDebug:
		return "debug"
	case CallLogInfo:
		return "info"
	case CallLogError:
		return "error"
	}
	return "warn"
}

// toCallLogLevel classifies err by its status code.
func toCallLogLevel(err error) CallLogLevel {
	if err == nil {
		return CallLogDebug
	}

	if errors.Is(err, context.Canceled) {
		return CallLogDebug
	}

	switch errs.StatusOf(err) {
	case errs.ErrCodeInvalidArgument, errs.ErrCodeNotFound:
		return CallLogInfo
	case errs.ErrCodePermissionDenied, errs.ErrCodeUnauthenticated,
		errs.ErrCodeFailedPrecondition, errs.ErrCodeResourceExhausted:
		return CallLogWarn
	case errs.ErrCodeInternal, errs.ErrCodeUnavailable:
		return CallLogError
	default:
		return CallLogWarn
	}
}

// LogCallError logs a failed call at a level chosen by the error status.
// Metadata attached with errs.WithMetadata is logged as fields.
func LogCallError(logger Logger, call string, duration time.Duration, err error) {
	const template = "CALL : %q %s => %q"
	if md := errs.Metadata(err); len(md) > 0 {
		keys := make([]string, 0, len(md))
		for k := range md {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		args := make([]interface{}, 0, 2*len(keys))
		for _, k := range keys {
			args = append(args, k, md[k])
		}
		logger = logger.With(args...)
	}
	switch toCallLogLevel(err) {
	case CallLogDebug:
		logger.Debugf(template, call, duration, err)
	case CallLogInfo:
		logger.Infof(template, call, duration, err)
	case CallLogError:
		logger.Errorf(template, call, duration, err)
	default:
		logger.Warnf(template, call, duration, err)
	}
}

// LogCallSuccess logs a successful call at debug level.
func LogCallSuccess(logger Logger, call string, duration time.Duration) {
	logger.Debugf("CALL : %q %s", call, duration)
}
