package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingSecret is returned by NewManager when no signing secret is configured.
	ErrMissingSecret = errors.New("jwt: signing secret is not configured")
	// ErrInvalidTTL is returned by NewManager when the token lifetime is not positive.
	ErrInvalidTTL = errors.New("jwt: invalid TTL configuration")

	// ErrMalformed reports a token that could not be parsed at all.
	ErrMalformed = errors.New("jwt: malformed token")
	// ErrExpired reports a correctly signed token whose expiration has passed.
	ErrExpired = errors.New("jwt: token expired")
	// ErrInvalid reports a token that failed signature or claim verification.
	ErrInvalid = errors.New("jwt: invalid token")
)

const maxLeeway = 2 * time.Minute

// Config defines one token type: its secret, lifetime and claim expectations.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration

	// Now overrides the clock for issuance and verification. Defaults to time.Now.
	Now func() time.Time
}

// Claims is the payload carried by both access and refresh tokens.
//
// UserID mirrors the subject under the claim name existing clients decode.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// PrincipalID returns the principal the token was issued for.
func (c *Claims) PrincipalID() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// Expiry returns the embedded expiration, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Manager signs and verifies HS256 tokens for a single token type.
//
// Manager is safe for concurrent use; it holds no mutable state after construction.
type Manager struct {
	config Config
	parser *jwt.Parser
}

// NewManager validates cfg and returns a Manager.
//
// NewManager fails fast when the secret is empty: an unsigned or weakly-signed
// token is never issued.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	return &Manager{config: cfg, parser: jwt.NewParser(options...)}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Leeway returns the clock skew tolerated past exp.
func (m *Manager) Leeway() time.Duration {
	return m.config.Leeway
}

// MaxLifetime is the longest a token issued by m can be accepted by Parse:
// TTL plus leeway.
func (m *Manager) MaxLifetime() time.Duration {
	return m.config.TTL + m.config.Leeway
}

// Issue signs a new token for principalID expiring TTL from now.
//
// Every token carries a random jti, so two tokens issued for the same
// principal within the same second are still distinct strings.
func (m *Manager) Issue(principalID string) (string, *Claims, error) {
	if principalID == "" {
		return "", nil, errors.New("jwt: empty principal id")
	}

	now := m.config.Now()
	claims := &Claims{
		UserID: principalID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, algorithm and time claims and returns the claims.
//
// Failures are classified: ErrMalformed when the token cannot be decoded,
// ErrInvalid when the signature (or any non-time claim) fails, and ErrExpired
// only when the signature verified but exp has passed.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrInvalid
	}
	if claims.PrincipalID() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalid)
	}
	return claims, nil
}

// DecodeUnverified reads claims WITHOUT verifying signature or expiry.
//
// It is only fit for computing how long a token would remain valid, e.g. to
// size a revocation entry. Never authorize anything from its result.
func (m *Manager) DecodeUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := m.parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		// Claims are validated only after the signature checked out.
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
}
