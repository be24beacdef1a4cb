package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.TokenExpiry != 24*time.Hour {
		t.Errorf("TokenExpiry: got %v, want %v", cfg.Auth.TokenExpiry, 24*time.Hour)
	}
	if cfg.Auth.TOTPIssuer != "CareMyPark" {
		t.Errorf("TOTPIssuer: got %q, want %q", cfg.Auth.TOTPIssuer, "CareMyPark")
	}
	if cfg.Database.Name != "caremypark" {
		t.Errorf("Database.Name: got %q, want %q", cfg.Database.Name, "caremypark")
	}
	if cfg.Uploads.Dir != "uploads" {
		t.Errorf("Uploads.Dir: got %q, want %q", cfg.Uploads.Dir, "uploads")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("expected error when JWT_SECRET is unset")
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("expected error when DB_PASSWORD is unset")
	}
}

func TestLoad_CustomTokenExpiry(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("TOKEN_EXPIRY", "1h")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.TokenExpiry != time.Hour {
		t.Errorf("TokenExpiry: got %v, want %v", cfg.Auth.TokenExpiry, time.Hour)
	}
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		env        string
		shouldFail bool
	}{
		{"strong production secret", "a-long-production-secret-of-32ch", "production", false},
		{"short production secret", "tooshortsecret", "production", true},
		{"short dev secret allowed", "sixteen-chars-ok", "development", false},
		{"weak common value", "changeme", "development", true},
		{"too short anywhere", "tiny", "development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if tt.shouldFail && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "park",
		Password: "pw",
		Name:     "caremypark",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5433 user=park password=pw dbname=caremypark sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
