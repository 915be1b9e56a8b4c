package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dukerupert/sutradhaar/internal/auth"
)

const guestKeyHeader = "X-Guest-Key"

var (
	errNoIdentity     = errors.New("sign in or send a guest key")
	errAuthDisabled   = errors.New("sign-in is not enabled on this server")
	errInvalidToken   = errors.New("invalid or expired token")
	errMissingSubject = errors.New("token has no email or subject")
	errInvalidGuest   = errors.New("guest key must be a UUID")
)

// Identify resolves who is calling. A bearer token (or ?token= for
// WebSocket clients, whose browsers cannot set headers) must be an HS256
// JWT signed with secret; its email claim, or sub, names the user. Without
// a token the caller is a guest identified by a UUID in X-Guest-Key or
// ?guest_key=. Anything else is rejected with 401.
func Identify(secret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(r, secret)
			if err != nil {
				logger.Debug("identify", "path", r.URL.Path, "error", err)
				unauthorized(w, err)
				return
			}
			noteOwner(r, id.Owner())
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func identify(r *http.Request, secret []byte) (auth.Identity, error) {
	if token := bearerToken(r); token != "" {
		return userFromToken(token, secret)
	}

	key := r.Header.Get(guestKeyHeader)
	if key == "" {
		key = r.URL.Query().Get("guest_key")
	}
	if key == "" {
		return auth.Identity{}, errNoIdentity
	}
	parsed, err := uuid.Parse(key)
	if err != nil {
		return auth.Identity{}, errInvalidGuest
	}
	return auth.Guest(parsed.String()), nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

func userFromToken(tokenString string, secret []byte) (auth.Identity, error) {
	if len(secret) == 0 {
		return auth.Identity{}, errAuthDisabled
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return auth.Identity{}, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Identity{}, errInvalidToken
	}

	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		email, _ = claims.GetSubject()
	}
	id := auth.User(email)
	if !id.Authenticated() {
		return auth.Identity{}, errMissingSubject
	}
	return id, nil
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
