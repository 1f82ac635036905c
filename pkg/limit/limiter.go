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

// Package limit provides request limiting components.
package limit

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter bounds both the request rate and the number of requests in
// flight. A zero Limiter, or one built with zero bounds, never waits.
type Limiter struct {
	rate     *rate.Limiter
	inFlight *semaphore.Weighted
}

// New creates a Limiter allowing rps requests per second with the given
// burst and at most maxInFlight concurrent requests. A non-positive rps or
// maxInFlight disables that bound.
func New(rps float64, burst int, maxInFlight int) *Limiter {
	l := &Limiter{}
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		l.rate = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if maxInFlight > 0 {
		l.inFlight = semaphore.NewWeighted(int64(maxInFlight))
	}

	return l
}

// Acquire waits until a request may start. The returned release function
// must be called once the request completes.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}

	if l.rate != nil {
		if err := l.rate.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	if l.inFlight == nil {
		return func() {}, nil
	}

	if err := l.inFlight.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire request slot: %w", err)
	}

	return func() { l.inFlight.Release(1) }, nil
}
