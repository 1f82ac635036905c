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

// Package auth provides the bearer token authentication of the MCP endpoint.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/backlogkit/backlog/pkg/errors"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the scheme of bearer tokens.
	BearerScheme = "Bearer"

	// StaticSubject is the subject reported for the static token.
	StaticSubject = "static"
)

var (
	// ErrMissingToken is returned when the request carries no token.
	ErrMissingToken = errors.Unauthenticated("missing bearer token").WithCode("ErrMissingToken")

	// ErrInvalidAuthFormat is returned when the authorization header is malformed.
	ErrInvalidAuthFormat = errors.Unauthenticated("invalid authorization format").WithCode("ErrInvalidAuthFormat")

	// ErrInvalidToken is returned when the token is neither the static token
	// nor a valid JWT.
	ErrInvalidToken = errors.Unauthenticated("invalid bearer token").WithCode("ErrInvalidToken")
)

// Authenticator checks bearer tokens against a static token and, when
// configured, JWTs signed by a TokenManager.
type Authenticator struct {
	token  string
	tokens *TokenManager
}

// NewAuthenticator creates an Authenticator. Either argument may be empty.
func NewAuthenticator(token string, tokens *TokenManager) *Authenticator {
	return &Authenticator{token: token, tokens: tokens}
}

// Enabled returns whether requests need a token at all.
func (a *Authenticator) Enabled() bool {
	return a != nil && (a.token != "" || a.tokens != nil)
}

// Authenticate verifies the given authorization header value and returns
// the subject of the caller.
func (a *Authenticator) Authenticate(header string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, BearerScheme) || token == "" {
		return "", ErrInvalidAuthFormat
	}

	if a.token != "" && subtle.ConstantTimeCompare([]byte(a.token), []byte(token)) == 1 {
		return StaticSubject, nil
	}

	if a.tokens != nil {
		claims, err := a.tokens.Verify(token)
		if err != nil {
			return "", fmt.Errorf("%s: %w", err.Error(), ErrInvalidToken)
		}
		return claims.Subject, nil
	}

	return "", ErrInvalidToken
}
