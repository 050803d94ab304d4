package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/reelauth"
)

// Validator is the Engine surface the guard needs.
type Validator interface {
	Validate(ctx context.Context, token string) (*reelauth.AuthResult, error)
}

type authResultContextKey struct{}

// AuthResultFromContext returns the result stored by [RequireAccess].
func AuthResultFromContext(ctx context.Context) (*reelauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*reelauth.AuthResult)
	return res, ok
}

// PrincipalFromContext returns the authenticated principal id, or "".
func PrincipalFromContext(ctx context.Context) string {
	res, ok := AuthResultFromContext(ctx)
	if !ok || res == nil {
		return ""
	}
	return res.PrincipalID
}

// RequireAccess rejects requests without a valid, unrevoked bearer access token.
func RequireAccess(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, reelauth.ErrMissingAccessToken.Error())
				return
			}

			res, err := v.Validate(r.Context(), token)
			if err != nil {
				status, message := Status(err)
				writeError(w, status, message)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Status maps an Engine.Validate error to the HTTP status and client message.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, reelauth.ErrTokenRevoked):
		return http.StatusForbidden, reelauth.ErrTokenRevoked.Error()
	case errors.Is(err, reelauth.ErrTokenExpired):
		return http.StatusUnauthorized, reelauth.ErrTokenExpired.Error()
	case errors.Is(err, reelauth.ErrMissingAccessToken):
		return http.StatusUnauthorized, reelauth.ErrMissingAccessToken.Error()
	case errors.Is(err, reelauth.ErrTokenMalformed),
		errors.Is(err, reelauth.ErrTokenInvalid):
		return http.StatusUnauthorized, reelauth.ErrTokenInvalid.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// value. The scheme is matched case-insensitively.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
