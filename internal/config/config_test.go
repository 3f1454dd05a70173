// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "UPHOUSE_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/uphouse.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/uphouse.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.Backend != BackendAuto {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendAuto)
	}
	if cfg.MediaHost != MediaCloudinary {
		t.Errorf("MediaHost = %q, want %q", cfg.MediaHost, MediaCloudinary)
	}
	if cfg.SessionResolveBudget != 1500*time.Millisecond {
		t.Errorf("SessionResolveBudget = %v, want 1.5s", cfg.SessionResolveBudget)
	}
	if cfg.BackendMode() != BackendUnconfigured {
		t.Errorf("BackendMode() = %q, want %q", cfg.BackendMode(), BackendUnconfigured)
	}
	if cfg.MediaConfigured() {
		t.Error("MediaConfigured() should be false without credentials")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "UPHOUSE_SESSION_SECRET", testSecret)
	setEnv(t, "UPHOUSE_DB_PATH", "/custom/path.db")
	setEnv(t, "UPHOUSE_SERVER_PORT", "3000")
	setEnv(t, "UPHOUSE_ENV", "production")
	setEnv(t, "UPHOUSE_SUPABASE_URL", "https://abc.supabase.co/")
	setEnv(t, "UPHOUSE_SUPABASE_ANON_KEY", "anon")
	setEnv(t, "UPHOUSE_CACHE_TTL", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "localhost:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be false in production")
	}
	if cfg.SupabaseURL != "https://abc.supabase.co" {
		t.Errorf("SupabaseURL = %q, trailing slash not trimmed", cfg.SupabaseURL)
	}
	if cfg.BackendMode() != BackendSupabase {
		t.Errorf("BackendMode() = %q", cfg.BackendMode())
	}
	if cfg.CacheTTLDuration() != time.Minute {
		t.Errorf("CacheTTLDuration() = %v", cfg.CacheTTLDuration())
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when UPHOUSE_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "UPHOUSE_SESSION_SECRET", tt.secret)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_WeakSecretRejected(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		os.Clearenv()
		setEnv(t, "UPHOUSE_SESSION_SECRET", weak)
		if _, err := Load(); err == nil {
			t.Errorf("Load() accepted known weak secret %q", weak)
		}
	}
}

func TestLoad_InvalidSelectors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"UPHOUSE_BACKEND", "firebase"},
		{"UPHOUSE_MEDIA_HOST", "imgur"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "UPHOUSE_SESSION_SECRET", testSecret)
			setEnv(t, tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_BackendMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"auto without credentials", Config{Backend: BackendAuto}, BackendUnconfigured},
		{"auto with credentials", Config{Backend: BackendAuto, SupabaseURL: "u", SupabaseAnonKey: "k"}, BackendSupabase},
		{"supabase missing key", Config{Backend: BackendSupabase, SupabaseURL: "u"}, BackendUnconfigured},
		{"local", Config{Backend: BackendLocal}, BackendLocal},
		{"local ignores credentials", Config{Backend: BackendLocal, SupabaseURL: "u", SupabaseAnonKey: "k"}, BackendLocal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.BackendMode(); got != tt.want {
				t.Errorf("BackendMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_MediaConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"cloudinary complete", Config{MediaHost: MediaCloudinary, CloudinaryCloudName: "demo", CloudinaryUploadPreset: "unsigned"}, true},
		{"cloudinary missing preset", Config{MediaHost: MediaCloudinary, CloudinaryCloudName: "demo"}, false},
		{"s3 complete", Config{MediaHost: MediaS3, S3Bucket: "b", S3PublicURL: "https://cdn"}, true},
		{"s3 without public url", Config{MediaHost: MediaS3, S3Bucket: "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.MediaConfigured(); got != tt.want {
				t.Errorf("MediaConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("single class should be low entropy")
	}
	if !hasMinimumEntropy("abcDEF123abcDEF123abcDEF123abcDE") {
		t.Error("three classes should pass")
	}
}
