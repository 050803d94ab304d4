package reelauth

import (
	"net/http"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "test config valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "missing access secret",
			mutate: func(c *Config) {
				c.JWT.AccessSecret = nil
			},
			wantValid: false,
		},
		{
			name: "missing refresh secret",
			mutate: func(c *Config) {
				c.JWT.RefreshSecret = nil
			},
			wantValid: false,
		},
		{
			name: "equal secrets",
			mutate: func(c *Config) {
				c.JWT.RefreshSecret = append([]byte(nil), c.JWT.AccessSecret...)
			},
			wantValid: false,
		},
		{
			name: "zero access ttl",
			mutate: func(c *Config) {
				c.JWT.AccessTTL = 0
			},
			wantValid: false,
		},
		{
			name: "negative refresh ttl",
			mutate: func(c *Config) {
				c.JWT.RefreshTTL = -time.Hour
			},
			wantValid: false,
		},
		{
			name: "jwt leeway valid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 45 * time.Second
			},
			wantValid: true,
		},
		{
			name: "jwt leeway invalid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "issuer with whitespace",
			mutate: func(c *Config) {
				c.JWT.Issuer = " reelauth"
			},
			wantValid: false,
		},
		{
			name: "empty revocation prefix",
			mutate: func(c *Config) {
				c.Revocation.KeyPrefix = ""
			},
			wantValid: false,
		},
		{
			name: "blank cookie name",
			mutate: func(c *Config) {
				c.Cookie.Name = "  "
			},
			wantValid: false,
		},
		{
			name: "samesite none requires secure",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
			},
			wantValid: false,
		},
		{
			name: "samesite none with secure",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
				c.Cookie.Secure = true
			},
			wantValid: true,
		},
		{
			name: "throttle without attempts",
			mutate: func(c *Config) {
				c.LoginThrottle.Enabled = true
				c.LoginThrottle.MaxAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "disabled throttle ignores attempts",
			mutate: func(c *Config) {
				c.LoginThrottle.MaxAttempts = 0
			},
			wantValid: true,
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestDefaultConfigMatchesServiceDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("expected 15m access ttl, got %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d refresh ttl, got %v", cfg.JWT.RefreshTTL)
	}
	if cfg.Revocation.KeyPrefix != "blacklist:" {
		t.Fatalf("unexpected prefix %q", cfg.Revocation.KeyPrefix)
	}
	if cfg.Cookie.Name != "refreshToken" || cfg.Cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie defaults %+v", cfg.Cookie)
	}
}

func TestEngineConfigIsCopied(t *testing.T) {
	te := buildTestEngine(t, testConfig(), nil)

	cfg := te.Config()
	cfg.JWT.AccessSecret[0] ^= 0xff
	if te.Config().JWT.AccessSecret[0] == cfg.JWT.AccessSecret[0] {
		t.Fatal("expected Config to return a copy of the secrets")
	}
}
