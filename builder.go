package reelauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/reelauth/internal/flows"
	"github.com/MrEthical07/reelauth/internal/rate"
	"github.com/MrEthical07/reelauth/jwt"
	"github.com/MrEthical07/reelauth/password"
	"github.com/MrEthical07/reelauth/revocation"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	revocations revocation.Store
	credentials CredentialStore
	passwords   PasswordVerifier
	logger      *zap.Logger
	auditSink   AuditSink
	now         func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the revocation store and the login
// throttle. The Engine never closes it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore overrides the Redis-backed revocation store.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocations = store
	return b
}

// WithCredentialStore sets where Login looks accounts up. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithPasswordVerifier overrides the default Argon2id/bcrypt verifier.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.passwords = v
	return b
}

// WithLogger sets the logger for operational warnings. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink audit events are dispatched to when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides time.Now for token issuance, verification and
// revocation TTLs.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		if b.revocations == nil {
			return nil, errors.New("redis client or revocation store required")
		}
		if cfg.LoginThrottle.Enabled {
			return nil, errors.New("LoginThrottle requires redis client")
		}
	}
	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	access, err := jwt.NewManager(jwt.Config{
		Secret: cfg.JWT.AccessSecret,
		TTL:    cfg.JWT.AccessTTL,
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.NewManager(jwt.Config{
		Secret: cfg.JWT.RefreshSecret,
		TTL:    cfg.JWT.RefreshTTL,
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	revocations := b.revocations
	if revocations == nil {
		revocations = revocation.NewRedisStore(b.redis, cfg.Revocation.KeyPrefix)
	}

	passwords := b.passwords
	if passwords == nil {
		v, err := password.NewVerifier(password.Config{
			Memory:           cfg.Password.Memory,
			Time:             cfg.Password.Time,
			Parallelism:      cfg.Password.Parallelism,
			SaltLength:       cfg.Password.SaltLength,
			KeyLength:        cfg.Password.KeyLength,
			MaxPasswordBytes: password.DefaultMaxPasswordBytes,
		})
		if err != nil {
			return nil, err
		}
		passwords = v
	}
	decoy, err := passwords.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare decoy password hash: %w", err)
	}

	e := &Engine{
		config:      cfg,
		access:      access,
		refresh:     refresh,
		revocations: revocations,
		credentials: b.credentials,
		passwords:   passwords,
		decoyHash:   decoy,
		metrics:     NewMetrics(cfg.Metrics),
		audit:       newAuditDispatcher(cfg.Audit, b.auditSink),
		logger:      logger,
		now:         now,
	}
	if cfg.LoginThrottle.Enabled {
		e.limiter = rate.New(b.redis, rate.Config{
			MaxAttempts:      cfg.LoginThrottle.MaxAttempts,
			Window:           cfg.LoginThrottle.Window,
			EnableIPThrottle: cfg.LoginThrottle.EnableIPThrottle,
		})
	}
	e.flow = flows.New(e.flowDeps())

	b.built = true
	return e, nil
}
