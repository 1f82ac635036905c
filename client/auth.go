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

	"github.com/backlogkit/backlog/internal/version"
)

const (
	// apiKeyParam is the query parameter carrying the API key.
	apiKeyParam = "apiKey"

	// userAgent is sent with every request.
	userAgent = "backlog-go"
)

// authTransport adds the API key and the user agent to every request.
type authTransport struct {
	apiKey string
	next   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	query := req.URL.Query()
	query.Set(apiKeyParam, t.apiKey)
	req.URL.RawQuery = query.Encode()
	req.Header.Set("User-Agent", userAgent+"/"+version.Version)

	return t.next.RoundTrip(req)
}
