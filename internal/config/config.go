// Package config loads the server configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/reelauth"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	NodeEnv string `env:"NODE_ENV"`

	AccessTokenSecret      string   `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiration  Lifetime `env:"ACCESS_TOKEN_EXPIRATION" envDefault:"15m"`
	RefreshTokenSecret     string   `env:"REFRESH_TOKEN_SECRET"`
	RefreshTokenExpiration Lifetime `env:"REFRESH_TOKEN_EXPIRATION" envDefault:"7d"`
	TokenIssuer            string   `env:"TOKEN_ISSUER"`

	HTTP     HTTP     `envPrefix:"HTTP_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Database Database `envPrefix:"DATABASE_"`
	Log      Log      `envPrefix:"LOG_"`
	Login    Login    `envPrefix:"LOGIN_"`
	Metrics  Metrics  `envPrefix:"METRICS_"`
	Seed     Seed     `envPrefix:"SEED_"`
}

// HTTP contains listener parameters.
type HTTP struct {
	Addr            string        `env:"ADDR" envDefault:":3000"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Redis contains revocation store connection parameters. Embedded starts an
// in-process miniredis instead of dialing Addr.
type Redis struct {
	Addr        string        `env:"ADDR" envDefault:"localhost:6379"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB" envDefault:"0"`
	Embedded    bool          `env:"EMBEDDED" envDefault:"false"`
	KeyPrefix   string        `env:"KEY_PREFIX" envDefault:"blacklist:"`
	MaxRetries  int           `env:"MAX_RETRIES" envDefault:"3"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
}

// Database contains the credential database parameters. An empty DSN selects
// the in-memory credential store.
type Database struct {
	DSN     string `env:"DSN"`
	Migrate bool   `env:"MIGRATE" envDefault:"true"`
}

// Log contains logger and audit parameters.
type Log struct {
	Level    string `env:"LEVEL" envDefault:"info"`
	Encoding string `env:"ENCODING" envDefault:"json"`
	Audit    bool   `env:"AUDIT" envDefault:"true"`
}

// Login contains login throttle parameters.
type Login struct {
	ThrottleEnabled  bool     `env:"THROTTLE_ENABLED" envDefault:"false"`
	MaxAttempts      int      `env:"MAX_ATTEMPTS" envDefault:"5"`
	Window           Lifetime `env:"WINDOW" envDefault:"15m"`
	EnableIPThrottle bool     `env:"IP_THROTTLE" envDefault:"false"`
}

// Metrics contains exporter parameters.
type Metrics struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`

	// OTelInterval, when positive, also pushes the counters through an
	// OpenTelemetry periodic reader to stderr.
	OTelInterval time.Duration `env:"OTEL_INTERVAL" envDefault:"0s"`
}

// Seed optionally creates one account at startup.
type Seed struct {
	Identifier string `env:"IDENTIFIER"`
	Password   string `env:"PASSWORD"`
}

// Load reads the given .env files (or ./.env when none are given and it
// exists) into the process environment without overriding variables that
// are already set, then parses the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Production reports whether APP_ENV or NODE_ENV is "production".
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.NodeEnv, "production")
}

// Validate reports missing secrets and non-positive lifetimes.
func (c *Config) Validate() error {
	var errs []error
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.AccessTokenExpiration <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRATION must be positive"))
	}
	if c.RefreshTokenExpiration <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRATION must be positive"))
	}
	if c.Metrics.OTelInterval < 0 {
		errs = append(errs, errors.New("METRICS_OTEL_INTERVAL must not be negative"))
	}
	if (c.Seed.Identifier == "") != (c.Seed.Password == "") {
		errs = append(errs, errors.New("SEED_IDENTIFIER and SEED_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// EngineConfig projects the environment onto the engine configuration.
func (c *Config) EngineConfig() reelauth.Config {
	cfg := reelauth.DefaultConfig()

	cfg.JWT.AccessSecret = []byte(c.AccessTokenSecret)
	cfg.JWT.RefreshSecret = []byte(c.RefreshTokenSecret)
	cfg.JWT.AccessTTL = c.AccessTokenExpiration.Duration()
	cfg.JWT.RefreshTTL = c.RefreshTokenExpiration.Duration()
	cfg.JWT.Issuer = c.TokenIssuer

	cfg.Revocation.KeyPrefix = c.Redis.KeyPrefix

	cfg.Cookie.Secure = c.Production()
	cfg.Cookie.SameSite = http.SameSiteStrictMode

	cfg.LoginThrottle.Enabled = c.Login.ThrottleEnabled
	cfg.LoginThrottle.MaxAttempts = c.Login.MaxAttempts
	cfg.LoginThrottle.Window = c.Login.Window.Duration()
	cfg.LoginThrottle.EnableIPThrottle = c.Login.EnableIPThrottle

	cfg.Audit.Enabled = c.Log.Audit
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled

	return cfg
}
