// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Backend selectors accepted by UPHOUSE_BACKEND.
const (
	BackendAuto     = "auto"
	BackendSupabase = "supabase"
	BackendLocal    = "local"

	// BackendUnconfigured is the resolved mode when no data service is set up.
	BackendUnconfigured = "unconfigured"
)

// Media hosts accepted by UPHOUSE_MEDIA_HOST.
const (
	MediaCloudinary = "cloudinary"
	MediaS3         = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"UPHOUSE_DB_PATH" envDefault:"./data/uphouse.db"`
	SessionSecret string `env:"UPHOUSE_SESSION_SECRET,required"`
	ServerHost    string `env:"UPHOUSE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"UPHOUSE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"UPHOUSE_ENV" envDefault:"development"`
	LogLevel      string `env:"UPHOUSE_LOG_LEVEL" envDefault:"info"`
	SiteURL       string `env:"UPHOUSE_SITE_URL"` // Public base URL, used for password reset links

	// Data backend
	Backend               string `env:"UPHOUSE_BACKEND" envDefault:"auto"`
	SupabaseURL           string `env:"UPHOUSE_SUPABASE_URL"`
	SupabaseAnonKey       string `env:"UPHOUSE_SUPABASE_ANON_KEY"`
	PasswordResetRedirect string `env:"UPHOUSE_PASSWORD_RESET_REDIRECT"`

	// Seed account for the local backend
	AdminEmail    string `env:"UPHOUSE_ADMIN_EMAIL"`
	AdminPassword string `env:"UPHOUSE_ADMIN_PASSWORD"`
	AdminName     string `env:"UPHOUSE_ADMIN_NAME" envDefault:"Administrator"`

	// Media host
	MediaHost              string `env:"UPHOUSE_MEDIA_HOST" envDefault:"cloudinary"`
	MediaMaxWidth          int    `env:"UPHOUSE_MEDIA_MAX_WIDTH" envDefault:"2560"`
	CloudinaryCloudName    string `env:"UPHOUSE_CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"UPHOUSE_CLOUDINARY_UPLOAD_PRESET"`
	CloudinaryAPIURL       string `env:"UPHOUSE_CLOUDINARY_API_URL" envDefault:"https://api.cloudinary.com/v1_1"`
	S3Bucket               string `env:"UPHOUSE_S3_BUCKET"`
	S3Region               string `env:"UPHOUSE_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint             string `env:"UPHOUSE_S3_ENDPOINT"`   // Custom endpoint for S3-compatible stores
	S3PublicURL            string `env:"UPHOUSE_S3_PUBLIC_URL"` // Base URL objects are served from
	S3AccessKeyID          string `env:"UPHOUSE_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey      string `env:"UPHOUSE_S3_SECRET_ACCESS_KEY"`

	// How long a request waits for the profile lookup before rendering
	// the loading view.
	SessionResolveBudget time.Duration `env:"UPHOUSE_SESSION_RESOLVE_BUDGET" envDefault:"1500ms"`

	// Cache configuration
	RedisURL    string `env:"UPHOUSE_REDIS_URL"`                          // Optional Redis URL for shared caching
	CachePrefix string `env:"UPHOUSE_CACHE_PREFIX" envDefault:"uphouse:"` // Redis key prefix
	CacheTTL    int    `env:"UPHOUSE_CACHE_TTL" envDefault:"300"`         // Public read cache TTL in seconds
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// SupabaseConfigured returns true if the hosted backend credentials are set.
func (c Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// BackendMode resolves the configured backend selector to BackendSupabase,
// BackendLocal or BackendUnconfigured.
func (c Config) BackendMode() string {
	if c.Backend == BackendLocal {
		return BackendLocal
	}
	if c.SupabaseConfigured() {
		return BackendSupabase
	}
	return BackendUnconfigured
}

// CloudinaryConfigured returns true if Cloudinary uploads are possible.
func (c Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryUploadPreset != ""
}

// S3Configured returns true if an S3 bucket is set up for uploads.
func (c Config) S3Configured() bool {
	return c.S3Bucket != "" && c.S3PublicURL != ""
}

// MediaConfigured returns true if the selected media host can accept uploads.
func (c Config) MediaConfigured() bool {
	if c.MediaHost == MediaS3 {
		return c.S3Configured()
	}
	return c.CloudinaryConfigured()
}

// CacheTTLDuration returns the read cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("UPHOUSE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("UPHOUSE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("UPHOUSE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.Backend {
	case BackendAuto, BackendSupabase, BackendLocal:
	default:
		return nil, fmt.Errorf("UPHOUSE_BACKEND must be one of auto, supabase, local; got %q", cfg.Backend)
	}

	switch cfg.MediaHost {
	case MediaCloudinary, MediaS3:
	default:
		return nil, fmt.Errorf("UPHOUSE_MEDIA_HOST must be cloudinary or s3; got %q", cfg.MediaHost)
	}

	cfg.SupabaseURL = strings.TrimRight(cfg.SupabaseURL, "/")
	cfg.CloudinaryAPIURL = strings.TrimRight(cfg.CloudinaryAPIURL, "/")

	if cfg.Backend == BackendSupabase && !cfg.SupabaseConfigured() {
		slog.Warn("UPHOUSE_BACKEND=supabase but UPHOUSE_SUPABASE_URL or UPHOUSE_SUPABASE_ANON_KEY is missing; serving sample content")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
