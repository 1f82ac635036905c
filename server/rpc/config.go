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

package rpc

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/backlogkit/backlog/internal/validation"
)

var (
	// ErrInvalidRPCPort occurs when the port in the config is invalid.
	ErrInvalidRPCPort = errors.New("invalid port number for MCP server")
	// ErrInvalidCertFile occurs when the certificate file is invalid.
	ErrInvalidCertFile = errors.New("invalid cert file for MCP server")
	// ErrInvalidKeyFile occurs when the key file is invalid.
	ErrInvalidKeyFile = errors.New("invalid key file for MCP server")
	// ErrInvalidTokenDuration occurs when the token duration is invalid.
	ErrInvalidTokenDuration = errors.New("invalid token duration for MCP server")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port number for the MCP server.
	Port int `yaml:"Port"`

	// CertFile is the path to the certificate file.
	CertFile string `yaml:"CertFile"`

	// KeyFile is the path to the key file.
	KeyFile string `yaml:"KeyFile"`

	// Token is a static bearer token accepted by the MCP endpoint.
	Token string `yaml:"Token"`

	// TokenSecret is the HMAC secret used to sign and verify JWT bearer
	// tokens. An empty secret disables JWT verification.
	TokenSecret string `yaml:"TokenSecret"`

	// TokenDuration is the lifetime of the tokens issued with TokenSecret.
	TokenDuration string `yaml:"TokenDuration" validate:"required,duration"`

	// MaxRequestBytes is the maximum request body size the server accepts.
	MaxRequestBytes int64 `yaml:"MaxRequestBytes"`
}

// AuthEnabled returns whether the MCP endpoint requires a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.Token != "" || c.TokenSecret != ""
}

// ParseTokenDuration returns the parsed token duration.
func (c *Config) ParseTokenDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.TokenDuration)
	if err != nil {
		return 0, fmt.Errorf("parse token duration %s: %w", c.TokenDuration, ErrInvalidTokenDuration)
	}
	return d, nil
}

// Validate validates the port number and the files for certification.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidRPCPort)
	}

	// when specific cert or key file are configured
	if c.CertFile != "" {
		if _, err := os.Stat(c.CertFile); err != nil {
			return fmt.Errorf("%s: %w", c.CertFile, ErrInvalidCertFile)
		}
	}

	if c.KeyFile != "" {
		if _, err := os.Stat(c.KeyFile); err != nil {
			return fmt.Errorf("%s: %w", c.KeyFile, ErrInvalidKeyFile)
		}
	}

	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("validate MCP config: %w", err)
	}

	return nil
}
