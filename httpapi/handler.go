package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/reelauth"
	"github.com/MrEthical07/reelauth/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	msgInvalidBody        = "Invalid request body"
	msgInvalidCredentials = "Invalid email or password"
	msgTooManyAttempts    = "Too many login attempts"
	msgRefreshRequired    = "Refresh Token is required"
	msgRefreshRevoked     = "Refresh token has been invalidated"
	msgRefreshInvalid     = "Invalid or expired refresh token"
	msgNoRefreshToken     = "No refresh token provided"
	msgNoAccessToken      = "No access token provided"
	msgAlreadyLoggedOut   = "User is already logged out or token is invalidated"
	msgLoggedOut          = "Logged out successfully"
	msgInternal           = "Internal server error"
	msgRegisterRequired   = "Email and password are required"
	msgEmailTaken         = "Email must be unique"
)

// Engine is the reelauth.Engine surface the handlers use.
type Engine interface {
	Register(ctx context.Context, identifier, password string) (*reelauth.Account, error)
	Login(ctx context.Context, identifier, password string) (*reelauth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken, accessToken string) (*reelauth.AccessGrant, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
	Validate(ctx context.Context, token string) (*reelauth.AuthResult, error)
}

// Options tune a [Handler]. The zero value is usable.
type Options struct {
	Logger *zap.Logger
	// Health is called by /health; a non-nil error answers 503.
	Health func(context.Context) error
}

// Handler serves the authentication endpoints.
type Handler struct {
	engine     Engine
	cookie     reelauth.CookieConfig
	refreshTTL time.Duration
	logger     *zap.Logger
	health     func(context.Context) error
}

// NewHandler returns a Handler that sets refresh cookies according to
// cfg.Cookie with a Max-Age of cfg.JWT.RefreshTTL.
func NewHandler(engine Engine, cfg reelauth.Config, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:     engine,
		cookie:     cfg.Cookie,
		refreshTTL: cfg.JWT.RefreshTTL,
		logger:     logger.Named("httpapi"),
		health:     opts.Health,
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /refresh-token", h.Refresh)
	mux.HandleFunc("POST /refresh-token", h.Refresh)
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /me", middleware.RequireAccess(h.engine)(http.HandlerFunc(h.Me)))
}

type loginRequest struct {
	Email      string `json:"email"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	if r.Email != "" {
		return strings.TrimSpace(r.Email)
	}
	return strings.TrimSpace(r.Identifier)
}

type accountResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /register. The body has the same shape as /login.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "register"

	var req loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.fail(w, op, http.StatusBadRequest, msgInvalidBody, err)
		return
	}

	ctx := reelauth.WithClientIP(r.Context(), clientIP(r))
	account, err := h.engine.Register(ctx, req.identifier(), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, reelauth.ErrAccountExists):
			h.fail(w, op, http.StatusConflict, msgEmailTaken, err)
		case errors.Is(err, reelauth.ErrRegistrationInvalid):
			h.fail(w, op, http.StatusBadRequest, msgRegisterRequired, err)
		default:
			h.fail(w, op, http.StatusInternalServerError, msgInternal, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse{UserID: account.PrincipalID, Email: account.Identifier})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "login"

	var req loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.fail(w, op, http.StatusBadRequest, msgInvalidBody, err)
		return
	}

	ctx := reelauth.WithClientIP(r.Context(), clientIP(r))
	pair, err := h.engine.Login(ctx, req.identifier(), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, reelauth.ErrInvalidCredentials):
			h.fail(w, op, http.StatusUnauthorized, msgInvalidCredentials, err)
		case errors.Is(err, reelauth.ErrLoginRateLimited):
			h.fail(w, op, http.StatusTooManyRequests, msgTooManyAttempts, err)
		default:
			h.fail(w, op, http.StatusInternalServerError, msgInternal, err)
		}
		return
	}

	http.SetCookie(w, h.refreshCookie(pair.RefreshToken))
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

// Refresh handles GET and POST /refresh-token. A bearer access token sent
// alongside the cookie is revoked.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	const op = "refresh"

	accessToken, _ := middleware.BearerToken(r.Header.Get("Authorization"))
	grant, err := h.engine.Refresh(r.Context(), h.refreshFromCookie(r), accessToken)
	if err != nil {
		switch {
		case errors.Is(err, reelauth.ErrMissingRefreshToken):
			h.fail(w, op, http.StatusUnauthorized, msgRefreshRequired, err)
		case errors.Is(err, reelauth.ErrRefreshRevoked):
			h.fail(w, op, http.StatusForbidden, msgRefreshRevoked, err)
		case errors.Is(err, reelauth.ErrRefreshInvalid):
			h.fail(w, op, http.StatusForbidden, msgRefreshInvalid, err)
		default:
			h.fail(w, op, http.StatusInternalServerError, msgInternal, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: grant.AccessToken})
}

// Logout handles GET and POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "logout"

	refreshToken := h.refreshFromCookie(r)
	if refreshToken == "" {
		h.fail(w, op, http.StatusBadRequest, msgNoRefreshToken, reelauth.ErrMissingToken)
		return
	}
	accessToken, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		h.fail(w, op, http.StatusBadRequest, msgNoAccessToken, reelauth.ErrMissingToken)
		return
	}

	if err := h.engine.Logout(r.Context(), refreshToken, accessToken); err != nil {
		switch {
		case errors.Is(err, reelauth.ErrMissingToken):
			h.fail(w, op, http.StatusBadRequest, msgNoRefreshToken, err)
		case errors.Is(err, reelauth.ErrAlreadyLoggedOut):
			h.fail(w, op, http.StatusBadRequest, msgAlreadyLoggedOut, err)
		case errors.Is(err, reelauth.ErrRefreshInvalid):
			h.fail(w, op, http.StatusBadRequest, msgRefreshInvalid, err)
		default:
			h.fail(w, op, http.StatusInternalServerError, msgInternal, err)
		}
		return
	}

	http.SetCookie(w, h.clearedCookie())
	writeJSON(w, http.StatusOK, messageResponse{Message: msgLoggedOut})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me handles GET /me behind the access guard.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"userId": middleware.PrincipalFromContext(r.Context())})
}

func (h *Handler) refreshFromCookie(r *http.Request) string {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) refreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.refreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	}
}

func (h *Handler) clearedCookie() *http.Cookie {
	c := h.refreshCookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

func (h *Handler) fail(w http.ResponseWriter, op string, status int, message string, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Int("status", status), zap.Error(err)}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}
	writeJSON(w, status, messageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
