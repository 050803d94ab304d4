package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/reelauth"
	"github.com/MrEthical07/reelauth/credentials"
	"github.com/MrEthical07/reelauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testServer struct {
	mux    *http.ServeMux
	mr     *miniredis.Miniredis
	config reelauth.Config
}

func testEngineConfig() reelauth.Config {
	cfg := reelauth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("http-access-secret")
	cfg.JWT.RefreshSecret = []byte("http-refresh-secret")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	return cfg
}

func newTestServer(t *testing.T, cfg reelauth.Config) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	verifier, err := password.NewVerifier(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: password.DefaultMaxPasswordBytes,
	})
	require.NoError(t, err)

	store := credentials.NewMemoryStore()
	_, err = credentials.Seed(context.Background(), store, verifier, "admin", "admin")
	require.NoError(t, err)

	engine, err := reelauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithPasswordVerifier(verifier).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	mux := http.NewServeMux()
	NewHandler(engine, engine.Config(), Options{}).Routes(mux)
	return &testServer{mux: mux, mr: mr, config: cfg}
}

type response struct {
	*httptest.ResponseRecorder
	body map[string]string
}

func (s *testServer) do(t *testing.T, method, path, body, bearer string, cookies ...*http.Cookie) response {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	out := response{ResponseRecorder: rec, body: map[string]string{}}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.body), rec.Body.String())
	}
	return out
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	t.Fatal("expected refreshToken cookie")
	return nil
}

func (s *testServer) login(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	res := s.do(t, http.MethodPost, "/login", `{"email":"admin","password":"admin"}`, "")
	require.Equal(t, http.StatusOK, res.Code, res.body)
	return res.body["accessToken"], refreshCookieFrom(t, res.ResponseRecorder)
}

func TestAdminSessionEndToEnd(t *testing.T) {
	s := newTestServer(t, testEngineConfig())

	res := s.do(t, http.MethodPost, "/login", `{"identifier":"admin","password":"admin"}`, "")
	require.Equal(t, http.StatusOK, res.Code)
	access := res.body["accessToken"]
	assert.Equal(t, 2, strings.Count(access, "."), "expected a JWT-shaped access token")
	cookie := refreshCookieFrom(t, res.ResponseRecorder)

	me := s.do(t, http.MethodGet, "/me", "", access)
	require.Equal(t, http.StatusOK, me.Code)
	assert.NotEmpty(t, me.body["userId"])

	out := s.do(t, http.MethodPost, "/logout", "", access, cookie)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "Logged out successfully", out.body["message"])
	cleared := refreshCookieFrom(t, out.ResponseRecorder)
	assert.Equal(t, "", cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	again := s.do(t, http.MethodGet, "/me", "", access)
	assert.Equal(t, http.StatusForbidden, again.Code)
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	s := newTestServer(t, testEngineConfig())

	res := s.do(t, http.MethodPost, "/login", `{"email":"admin","password":"admin"}`, "")
	require.Equal(t, http.StatusOK, res.Code)

	c := refreshCookieFrom(t, res.ResponseRecorder)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.NotEqual(t, res.body["accessToken"], c.Value)
}

func TestLoginSecureCookieInProduction(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Cookie.Secure = true
	s := newTestServer(t, cfg)

	res := s.do(t, http.MethodPost, "/login", `{"email":"admin","password":"admin"}`, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, refreshCookieFrom(t, res.ResponseRecorder).Secure)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t, testEngineConfig())

	bad := s.do(t, http.MethodPost, "/login", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	wrong := s.do(t, http.MethodPost, "/login", `{"email":"admin","password":"nope"}`, "")
	unknown := s.do(t, http.MethodPost, "/login", `{"email":"ghost","password":"admin"}`, "")
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.body, unknown.body)
	assert.Equal(t, "Invalid email or password", wrong.body["message"])
	assert.Empty(t, wrong.Result().Cookies())

	get := s.do(t, http.MethodGet, "/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, get.Code)
}

func TestLoginThrottled(t *testing.T) {
	cfg := testEngineConfig()
	cfg.LoginThrottle.Enabled = true
	cfg.LoginThrottle.MaxAttempts = 2
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		res := s.do(t, http.MethodPost, "/login", `{"email":"admin","password":"nope"}`, "")
		require.Equal(t, http.StatusUnauthorized, res.Code)
	}
	res := s.do(t, http.MethodPost, "/login", `{"email":"admin","password":"admin"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
}

func TestRefreshFlow(t *testing.T) {
	s := newTestServer(t, testEngineConfig())
	access, cookie := s.login(t)

	missing := s.do(t, http.MethodPost, "/refresh-token", "", access)
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, "Refresh Token is required", missing.body["message"])

	invalid := s.do(t, http.MethodGet, "/refresh-token", "", "", &http.Cookie{Name: "refreshToken", Value: access})
	assert.Equal(t, http.StatusForbidden, invalid.Code)
	assert.Equal(t, "Invalid or expired refresh token", invalid.body["message"])

	ok := s.do(t, http.MethodGet, "/refresh-token", "", access, cookie)
	require.Equal(t, http.StatusOK, ok.Code)
	fresh := ok.body["accessToken"]
	assert.NotEqual(t, access, fresh)
	assert.Empty(t, ok.Result().Cookies(), "refresh token is not rotated")

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/me", "", access).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/me", "", fresh).Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/logout", "", fresh, cookie).Code)
	revoked := s.do(t, http.MethodPost, "/refresh-token", "", "", cookie)
	assert.Equal(t, http.StatusForbidden, revoked.Code)
	assert.Equal(t, "Refresh token has been invalidated", revoked.body["message"])
}

func TestLogoutFailures(t *testing.T) {
	s := newTestServer(t, testEngineConfig())
	access, cookie := s.login(t)

	noRefresh := s.do(t, http.MethodPost, "/logout", "", access)
	assert.Equal(t, http.StatusBadRequest, noRefresh.Code)
	assert.Equal(t, "No refresh token provided", noRefresh.body["message"])

	noAccess := s.do(t, http.MethodPost, "/logout", "", "", cookie)
	assert.Equal(t, http.StatusBadRequest, noAccess.Code)
	assert.Equal(t, "No access token provided", noAccess.body["message"])

	invalid := s.do(t, http.MethodPost, "/logout", "", access, &http.Cookie{Name: "refreshToken", Value: "garbage"})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/logout", "", access, cookie).Code)
	again := s.do(t, http.MethodPost, "/logout", "", access, cookie)
	assert.Equal(t, http.StatusBadRequest, again.Code)
	assert.Equal(t, "User is already logged out or token is invalidated", again.body["message"])
}

func TestProtectedRouteGuardCodes(t *testing.T) {
	s := newTestServer(t, testEngineConfig())

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/me", "", "not.a.jwt").Code)
}

type failingEngine struct{ err error }

func (f failingEngine) Register(context.Context, string, string) (*reelauth.Account, error) {
	return nil, f.err
}

func (f failingEngine) Login(context.Context, string, string) (*reelauth.TokenPair, error) {
	return nil, f.err
}

func (f failingEngine) Refresh(context.Context, string, string) (*reelauth.AccessGrant, error) {
	return nil, f.err
}

func (f failingEngine) Logout(context.Context, string, string) error { return f.err }

func (f failingEngine) Validate(context.Context, string) (*reelauth.AuthResult, error) {
	return nil, f.err
}

func TestStoreFailuresAnswer500WithoutDetails(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	err := fmt.Errorf("%w: dial tcp 10.1.2.3:6379: connection refused", reelauth.ErrStoreUnavailable)
	cfg := testEngineConfig()

	mux := http.NewServeMux()
	NewHandler(failingEngine{err: err}, cfg, Options{Logger: zap.New(core)}).Routes(mux)
	s := &testServer{mux: mux, config: cfg}
	cookie := &http.Cookie{Name: "refreshToken", Value: "r"}

	for _, res := range []response{
		s.do(t, http.MethodPost, "/register", `{"email":"a","password":"b"}`, ""),
		s.do(t, http.MethodPost, "/login", `{"email":"a","password":"b"}`, ""),
		s.do(t, http.MethodGet, "/refresh-token", "", "", cookie),
		s.do(t, http.MethodGet, "/logout", "", "a", cookie),
		s.do(t, http.MethodGet, "/me", "", "a"),
	} {
		assert.Equal(t, http.StatusInternalServerError, res.Code)
		assert.NotContains(t, res.Body.String(), "10.1.2.3")
	}
	assert.Equal(t, 4, logs.FilterMessage("request failed").Len())
}

func TestHealth(t *testing.T) {
	cfg := testEngineConfig()
	mux := http.NewServeMux()
	healthy := true
	NewHandler(failingEngine{}, cfg, Options{Health: func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("redis down")
	}}).Routes(mux)
	s := &testServer{mux: mux, config: cfg}

	ok := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "ok", ok.body["status"])

	healthy = false
	down := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

func TestRegisterThenLogin(t *testing.T) {
	s := newTestServer(t, testEngineConfig())

	res := s.do(t, http.MethodPost, "/register", `{"email":"critic@example.com","password":"popcorn"}`, "")
	require.Equal(t, http.StatusCreated, res.Code, res.body)
	assert.NotEmpty(t, res.body["userId"])
	assert.Equal(t, "critic@example.com", res.body["email"])
	assert.NotContains(t, res.Body.String(), "popcorn")
	assert.NotContains(t, res.Body.String(), "argon2id")

	login := s.do(t, http.MethodPost, "/login", `{"email":"critic@example.com","password":"popcorn"}`, "")
	require.Equal(t, http.StatusOK, login.Code)

	me := s.do(t, http.MethodGet, "/me", "", login.body["accessToken"])
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, res.body["userId"], me.body["userId"])
}

func TestRegisterFailures(t *testing.T) {
	s := newTestServer(t, testEngineConfig())

	tests := []struct {
		name    string
		method  string
		body    string
		code    int
		message string
	}{
		{"duplicate email", http.MethodPost, `{"email":"admin","password":"x"}`, http.StatusConflict, msgEmailTaken},
		{"missing password", http.MethodPost, `{"email":"new@example.com"}`, http.StatusBadRequest, msgRegisterRequired},
		{"blank email", http.MethodPost, `{"email":"  ","password":"x"}`, http.StatusBadRequest, msgRegisterRequired},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest, msgInvalidBody},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.do(t, tt.method, "/register", tt.body, "")
			assert.Equal(t, tt.code, res.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, res.body["message"])
			}
		})
	}

	login := s.do(t, http.MethodPost, "/login", `{"email":"admin","password":"admin"}`, "")
	assert.Equal(t, http.StatusOK, login.Code, "existing account must survive a duplicate registration")
}
