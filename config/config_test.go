package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testAccessSecret  = "0123456789abcdef0123456789abcdef-access"
	testRefreshSecret = "0123456789abcdef0123456789abcdef-refresh"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", testAccessSecret)
	t.Setenv("JWT_REFRESH_SECRET", testRefreshSecret)
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("HTTP_ADDR", ":8081")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.JWT.AccessSecret != testAccessSecret {
		t.Errorf("JWT.AccessSecret = %q, want %q", cfg.JWT.AccessSecret, testAccessSecret)
	}
	if cfg.JWT.AccessTTL != 5*time.Minute {
		t.Errorf("JWT.AccessTTL = %v, want %v", cfg.JWT.AccessTTL, 5*time.Minute)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Errorf("JWT.RefreshTTL = %v, want %v", cfg.JWT.RefreshTTL, 7*24*time.Hour)
	}
	if cfg.HTTP.Addr != ":8081" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, ":8081")
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Redis.Addr, "localhost:6379")
	}
	if cfg.DB.Path != "taskmanager.db" {
		t.Errorf("DB.Path = %q, want default", cfg.DB.Path)
	}
	if cfg.RateLimit.Requests != 10 {
		t.Errorf("RateLimit.Requests = %d, want 10", cfg.RateLimit.Requests)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := strings.Join([]string{
		"jwt:",
		"  access_secret: " + testAccessSecret,
		"  refresh_secret: " + testRefreshSecret,
		"  access_ttl: 10m",
		"db:",
		"  path: /tmp/tasks.db",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JWT.AccessTTL != 10*time.Minute {
		t.Errorf("JWT.AccessTTL = %v, want 10m", cfg.JWT.AccessTTL)
	}
	if cfg.DB.Path != "/tmp/tasks.db" {
		t.Errorf("DB.Path = %q, want /tmp/tasks.db", cfg.DB.Path)
	}
}

func TestLoad_RefusesMissingSecrets(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load("")
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("Load() error = %v, want ErrMissingSecret", err)
	}
}

func TestJWTConfig_Validate(t *testing.T) {
	valid := JWTConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}

	tests := []struct {
		name    string
		mutate  func(c *JWTConfig)
		wantErr error
		anyErr  bool
	}{
		{
			name:   "valid",
			mutate: func(c *JWTConfig) {},
		},
		{
			name:    "placeholder access secret",
			mutate:  func(c *JWTConfig) { c.AccessSecret = "access-secret" },
			wantErr: ErrWeakSecret,
		},
		{
			name:    "placeholder refresh secret in upper case",
			mutate:  func(c *JWTConfig) { c.RefreshSecret = "REFRESH-SECRET" },
			wantErr: ErrWeakSecret,
		},
		{
			name:    "short secret",
			mutate:  func(c *JWTConfig) { c.AccessSecret = "too-short" },
			wantErr: ErrWeakSecret,
		},
		{
			name:    "missing refresh secret",
			mutate:  func(c *JWTConfig) { c.RefreshSecret = "" },
			wantErr: ErrMissingSecret,
		},
		{
			name:    "shared secret",
			mutate:  func(c *JWTConfig) { c.RefreshSecret = c.AccessSecret },
			wantErr: ErrSharedSecret,
		},
		{
			name:   "zero access ttl",
			mutate: func(c *JWTConfig) { c.AccessTTL = 0 },
			anyErr: true,
		},
		{
			name:   "access outlives refresh",
			mutate: func(c *JWTConfig) { c.AccessTTL = 8 * 24 * time.Hour },
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("Validate() should return an error")
				}
			default:
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
			}
		})
	}
}
