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

package projects

import (
	"context"

	"github.com/backlogkit/backlog/api/types"
)

type ctxKey struct{}

// With returns a copy of ctx carrying the project an operation works on, so
// that helpers deeper in the call do not need to resolve it again.
func With(ctx context.Context, project *types.Project) context.Context {
	return context.WithValue(ctx, ctxKey{}, project)
}

// From returns the project stored by With.
func From(ctx context.Context) (*types.Project, bool) {
	p, ok := ctx.Value(ctxKey{}).(*types.Project)
	return p, ok && p != nil
}
