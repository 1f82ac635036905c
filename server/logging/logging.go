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

// Package logging provides the zap loggers shared by the client, the MCP
// server and the CLI. Every logger writes to stderr so that stdout stays
// free for command output and the MCP stdio transport.
package logging

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logger type used across the module.
type Logger = *zap.SugaredLogger

// Field is a structured field attached to a named logger.
type Field = zap.Field

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	defaultOnce   sync.Once
	defaultLogger Logger
)

// SetLogLevel changes the level of every logger. It accepts the zap level
// names, case-insensitively.
func SetLogLevel(name string) error {
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// New creates a logger named after a component, such as "client" or "mcp".
func New(name string, fields ...Field) Logger {
	base := newCore().Named(name)
	if len(fields) > 0 {
		base = base.With(fields...)
	}
	return base.Sugar()
}

// NewField creates a string field.
func NewField(key, value string) Field {
	return zap.String(key, value)
}

// DefaultLogger returns the logger used where no component logger is at
// hand.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		defaultLogger = New("backlog")
	})
	return defaultLogger
}

type loggerKey struct{}

// With stores a request scoped logger in ctx.
func With(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns the logger stored in ctx, falling back to DefaultLogger.
func From(ctx context.Context) Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
			return logger
		}
	}
	return DefaultLogger()
}

func newCore() *zap.Logger {
	enc := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}
