package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("access-secret-for-tests")

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	if cfg.TTL == 0 {
		cfg.TTL = 15 * time.Minute
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func signClaims(t *testing.T, method gjwt.SigningMethod, claims gjwt.Claims, key interface{}) string {
	t.Helper()
	token, err := gjwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestNewManagerRejectsMissingSecret(t *testing.T) {
	if _, err := NewManager(Config{TTL: time.Minute}); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := NewManager(Config{Secret: testSecret}); !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
	if _, err := NewManager(Config{Secret: testSecret, TTL: time.Minute, Leeway: time.Hour}); err == nil {
		t.Fatal("expected excessive leeway to be rejected")
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := newTestManager(t, Config{Issuer: "reelauth", Now: func() time.Time { return now }})

	token, issued, err := m.Issue("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.UserID != "user-42" || issued.Subject != "user-42" {
		t.Fatalf("unexpected principal claims: %+v", issued)
	}
	if !issued.Expiry().Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", issued.Expiry())
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.PrincipalID() != "user-42" {
		t.Fatalf("expected principal user-42, got %q", claims.PrincipalID())
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Fatalf("expected jti to round trip, got %q vs %q", claims.ID, issued.ID)
	}
}

func TestIssueProducesDistinctTokensWithinSameSecond(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := newTestManager(t, Config{Now: func() time.Time { return now }})

	a, _, err := m.Issue("u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, _, err := m.Issue("u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct token strings")
	}
}

func TestParseClassifiesExpired(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	issuer := newTestManager(t, Config{TTL: time.Minute, Now: func() time.Time { return issuedAt }})
	verifier := newTestManager(t, Config{TTL: time.Minute})

	token, _, err := issuer.Issue("u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Parse(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParseClassifiesWrongSecretAsInvalid(t *testing.T) {
	m := newTestManager(t, Config{})
	other := newTestManager(t, Config{Secret: []byte("refresh-secret-for-tests")})

	token, _, err := other.Issue("u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseExpiredWithBadSignatureIsInvalid(t *testing.T) {
	m := newTestManager(t, Config{})
	claims := Claims{UserID: "u", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	token := signClaims(t, gjwt.SigningMethodHS256, claims, []byte("some-other-secret"))

	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	m := newTestManager(t, Config{})
	token, _, err := m.Issue("u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	forged := signClaims(t, gjwt.SigningMethodHS256, Claims{UserID: "admin", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, []byte("x"))
	tampered := strings.Join([]string{parts[0], strings.Split(forged, ".")[1], parts[2]}, ".")

	if _, err := m.Parse(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t, Config{})
	claims := Claims{UserID: "u", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}

	hs512 := signClaims(t, gjwt.SigningMethodHS512, claims, testSecret)
	if _, err := m.Parse(hs512); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected HS512 to be rejected as invalid, got %v", err)
	}

	none := signClaims(t, gjwt.SigningMethodNone, claims, gjwt.UnsafeAllowNoneSignatureType)
	if _, err := m.Parse(none); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected alg=none to be rejected as invalid, got %v", err)
	}
}

func TestParseClassifiesMalformed(t *testing.T) {
	m := newTestManager(t, Config{})
	for _, token := range []string{"", "garbage", "a.b", "a.b.c", "!!!.###.$$$"} {
		if _, err := m.Parse(token); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", token, err)
		}
	}
}

func TestParseRequiresExpiration(t *testing.T) {
	m := newTestManager(t, Config{})
	token := signClaims(t, gjwt.SigningMethodHS256, Claims{UserID: "u", RegisteredClaims: gjwt.RegisteredClaims{Subject: "u"}}, testSecret)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected missing exp to be invalid, got %v", err)
	}
}

func TestParseIssuerAndLeeway(t *testing.T) {
	m := newTestManager(t, Config{Issuer: "reelauth", Leeway: 30 * time.Second})

	wrongIssuer := signClaims(t, gjwt.SigningMethodHS256, Claims{UserID: "u", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "other",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, testSecret)
	if _, err := m.Parse(wrongIssuer); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected wrong issuer to be invalid, got %v", err)
	}

	withinLeeway := signClaims(t, gjwt.SigningMethodHS256, Claims{UserID: "u", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "reelauth",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
	}}, testSecret)
	if _, err := m.Parse(withinLeeway); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}
}

func TestParseRequiresPrincipal(t *testing.T) {
	m := newTestManager(t, Config{})
	token := signClaims(t, gjwt.SigningMethodHS256, Claims{RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, testSecret)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected token without principal to be invalid, got %v", err)
	}
}

func TestParseAcceptsLegacyUserIDOnlyClaim(t *testing.T) {
	m := newTestManager(t, Config{})
	token := signClaims(t, gjwt.SigningMethodHS256, Claims{UserID: "legacy", RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, testSecret)
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.PrincipalID() != "legacy" {
		t.Fatalf("expected legacy principal, got %q", claims.PrincipalID())
	}
}

func TestDecodeUnverifiedIgnoresSignatureAndExpiry(t *testing.T) {
	m := newTestManager(t, Config{})
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token := signClaims(t, gjwt.SigningMethodHS256, Claims{UserID: "u", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: gjwt.NewNumericDate(exp),
	}}, []byte("unrelated-secret"))

	claims, err := m.DecodeUnverified(token)
	if err != nil {
		t.Fatalf("decode unverified: %v", err)
	}
	if !claims.Expiry().Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, claims.Expiry())
	}

	if _, err := m.DecodeUnverified("not-a-token"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestMaxLifetimeIncludesLeeway(t *testing.T) {
	m := newTestManager(t, Config{TTL: 15 * time.Minute, Leeway: 30 * time.Second})
	if m.Leeway() != 30*time.Second {
		t.Fatalf("expected leeway 30s, got %v", m.Leeway())
	}
	if m.MaxLifetime() != 15*time.Minute+30*time.Second {
		t.Fatalf("expected max lifetime 15m30s, got %v", m.MaxLifetime())
	}
}
