package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEVEL_XP_STEP", "")
	t.Setenv("STREAK_GRACE_HOURS", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")

	cfg := Load()

	if cfg.LevelXPStep != 1000 {
		t.Errorf("LevelXPStep = %d, want 1000", cfg.LevelXPStep)
	}
	if cfg.StreakGrace() != 48*time.Hour {
		t.Errorf("StreakGrace() = %v, want 48h", cfg.StreakGrace())
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 15m", cfg.AccessTokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEVEL_XP_STEP", "500")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("EMAIL_DEBUG", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	if cfg.LevelXPStep != 500 {
		t.Errorf("LevelXPStep = %d, want 500", cfg.LevelXPStep)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v, want 30s", cfg.RateLimitWindow)
	}
	if !cfg.EmailDebug {
		t.Error("EmailDebug = false, want true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("LEVEL_XP_STEP", "lots")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := Load()

	if cfg.LevelXPStep != 1000 {
		t.Errorf("LevelXPStep = %d, want default 1000", cfg.LevelXPStep)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want default 1m", cfg.RateLimitWindow)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "development fills missing secret",
			cfg:     Config{Environment: "development", LevelXPStep: 1000, StreakGraceHours: 48},
			wantErr: false,
		},
		{
			name:    "production requires secret",
			cfg:     Config{Environment: "production", LevelXPStep: 1000, StreakGraceHours: 48},
			wantErr: true,
		},
		{
			name:    "zero level step",
			cfg:     Config{Environment: "production", JWTSecret: "s", LevelXPStep: 0, StreakGraceHours: 48},
			wantErr: true,
		},
		{
			name:    "zero grace",
			cfg:     Config{Environment: "production", JWTSecret: "s", LevelXPStep: 1000},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.cfg.JWTSecret == "" {
				t.Error("JWTSecret left empty after successful Validate")
			}
		})
	}
}
