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

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenIssuer is the issuer claim of every token minted for the MCP endpoint.
const TokenIssuer = "backlog-mcp"

var (
	// ErrUnexpectedSigningMethod is returned for tokens not signed with HMAC.
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")

	// ErrForeignToken is returned for tokens minted by another issuer or
	// without a subject.
	ErrForeignToken = errors.New("token not issued for the MCP endpoint")
)

// Claims are the claims of an MCP bearer token. The subject names the
// client and ends up in the call logs.
type Claims struct {
	jwt.StandardClaims
}

// TokenManager mints and verifies HS256 bearer tokens for MCP clients that
// should not share the static token.
type TokenManager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenManager creates a TokenManager signing with secret. Tokens expire
// after lifetime.
func NewTokenManager(secret string, lifetime time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Generate mints a token for subject.
func (m *TokenManager) Generate(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("empty subject: %w", ErrForeignToken)
	}

	issuedAt := m.now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    TokenIssuer,
			Subject:   subject,
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: issuedAt.Add(m.lifetime).Unix(),
		},
	}).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token for %s: %w", subject, err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and issuer of token and returns its
// claims.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, m.key); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if !claims.VerifyIssuer(TokenIssuer, true) || claims.Subject == "" {
		return nil, ErrForeignToken
	}
	return claims, nil
}

func (m *TokenManager) key(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%s: %w", token.Method.Alg(), ErrUnexpectedSigningMethod)
	}
	return m.secret, nil
}
