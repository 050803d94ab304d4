package reelauth

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/reelauth/password"
	"github.com/MrEthical07/reelauth/revocation"
)

const maxJWTLeeway = 2 * time.Minute

// Config holds every Engine setting.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	JWT           JWTConfig
	Revocation    RevocationConfig
	Password      PasswordConfig
	Cookie        CookieConfig
	LoginThrottle LoginThrottleConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the two token types. Access and refresh tokens must be
// signed with different secrets so neither can stand in for the other.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// RevocationConfig configures blacklist key layout.
type RevocationConfig struct {
	KeyPrefix string
}

// PasswordConfig holds Argon2id parameters for rehashed passwords.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// CookieConfig describes the refresh-token cookie set by the HTTP layer.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
OPERATIONAL CONFIG
====================================
*/

// LoginThrottleConfig enables fixed-window counting of failed logins.
type LoginThrottleConfig struct {
	Enabled          bool
	MaxAttempts      int
	Window           time.Duration
	EnableIPThrottle bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the validate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the settings the service ships with. Secrets are left
// empty and must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Revocation: RevocationConfig{
			KeyPrefix: revocation.DefaultPrefix,
		},
		Password: PasswordConfig{
			Memory:         pw.Memory,
			Time:           pw.Time,
			Parallelism:    pw.Parallelism,
			SaltLength:     pw.SaltLength,
			KeyLength:      pw.KeyLength,
			UpgradeOnLogin: true,
		},
		Cookie: CookieConfig{
			Name:     "refreshToken",
			Path:     "/",
			SameSite: http.SameSiteStrictMode,
		},
		LoginThrottle: LoginThrottleConfig{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret must be set")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret must be set")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > maxJWTLeeway {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.Issuer != strings.TrimSpace(c.JWT.Issuer) {
		return errors.New("JWT Issuer must not have surrounding whitespace")
	}

	// Revocation
	if c.Revocation.KeyPrefix == "" {
		return errors.New("Revocation KeyPrefix must be set")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must be set")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Login throttle
	if c.LoginThrottle.Enabled {
		if c.LoginThrottle.MaxAttempts <= 0 {
			return errors.New("LoginThrottle MaxAttempts must be > 0")
		}
		if c.LoginThrottle.Window <= 0 {
			return errors.New("LoginThrottle Window must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
