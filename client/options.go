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
	"net/http"
	"time"

	"github.com/backlogkit/backlog/server/logging"
)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the client.
type Options struct {
	// HTTPClient is the underlying HTTP client. Its transport is wrapped to
	// add the API key.
	HTTPClient *http.Client

	// RequestTimeout bounds each request. Zero means no timeout.
	RequestTimeout time.Duration

	// RateLimit is the number of requests per second. Zero means unlimited.
	RateLimit float64

	// RateBurst is the burst of the rate limiter.
	RateBurst int

	// MaxInFlight is the number of concurrent requests. Zero means unlimited.
	MaxInFlight int

	// CustomFieldCacheSize is the number of projects whose custom field
	// definitions are cached. Zero disables the cache.
	CustomFieldCacheSize int

	// CustomFieldCacheTTL is the lifetime of cached definitions.
	CustomFieldCacheTTL time.Duration

	// Logger is the Logger of the client.
	Logger logging.Logger

	// Metrics receives the request durations.
	Metrics Metrics
}

// WithHTTPClient configures the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) { o.HTTPClient = httpClient }
}

// WithRequestTimeout configures the timeout of each request.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = timeout }
}

// WithRateLimit configures the requests per second and the burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.RateLimit = rps
		o.RateBurst = burst
	}
}

// WithMaxInFlight configures the number of concurrent requests.
func WithMaxInFlight(n int) Option {
	return func(o *Options) { o.MaxInFlight = n }
}

// WithCustomFieldCache configures the custom field definition cache.
func WithCustomFieldCache(size int, ttl time.Duration) Option {
	return func(o *Options) {
		o.CustomFieldCacheSize = size
		o.CustomFieldCacheTTL = ttl
	}
}

// WithLogger configures the Logger of the client.
func WithLogger(logger logging.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithMetrics configures the metrics of the client.
func WithMetrics(metrics Metrics) Option {
	return func(o *Options) { o.Metrics = metrics }
}
