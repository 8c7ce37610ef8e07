// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package config

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all application configuration loaded from environment
// variables and an optional YAML config file.
//
// Loading order (Koanf v2, highest priority last):
//  1. Built-in defaults
//  2. Config file (config.yaml)
//  3. Environment variables
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Security SecurityConfig `koanf:"security"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 8080)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - PUBLIC_URL: Externally reachable base URL, used to build
//     password-reset links (default: http://localhost:8080)
//   - ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	PublicURL   string        `koanf:"public_url"`
	Environment string        `koanf:"environment"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// IsProduction reports whether the server runs in production mode.
// In production the session cookie is marked Secure.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// StoreConfig holds the embedded BadgerDB credential store settings.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty means in-memory (tests/dev).
	Path string `koanf:"path"`
}

// SecurityConfig holds authentication settings.
//
// Environment Variables:
//   - JWT_SECRET: 32+ character secret for HS256 token signing (required)
//   - JWT_EXPIRES_IN: Session token lifetime (default: 24h)
//   - BCRYPT_COST: Password hashing cost factor (default: 12)
//   - RESET_TOKEN_TTL: Password-reset token validity window (default: 10m)
//   - COOKIE_NAME: Session cookie name (default: jwt)
type SecurityConfig struct {
	JWTSecret     string        `koanf:"jwt_secret"`
	TokenLifetime time.Duration `koanf:"token_lifetime"`
	BcryptCost    int           `koanf:"bcrypt_cost"`
	ResetTokenTTL time.Duration `koanf:"reset_token_ttl"`
	CookieName    string        `koanf:"cookie_name"`
}

// SMTPConfig holds outbound email delivery settings. When Host is empty
// the service falls back to a log-only mailer (development mode).
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	FromName string `koanf:"from_name"`
	UseTLS   bool   `koanf:"use_tls"`
}

// Enabled reports whether SMTP delivery is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters (got %d)", len(c.Security.JWTSecret))
	}
	if c.Security.TokenLifetime <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d (got %d)", bcrypt.MinCost, bcrypt.MaxCost, c.Security.BcryptCost)
	}
	if c.Security.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535 (got %d)", c.Server.Port)
	}
	if c.SMTP.Enabled() {
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			return fmt.Errorf("SMTP_PORT must be between 1 and 65535 (got %d)", c.SMTP.Port)
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
		}
	}
	return nil
}
