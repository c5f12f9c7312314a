package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"fieldnet/pkg/requestcontext"
)

// Identity extracts a contributor handle from an optional Bearer token and
// stores it in the request context. Authentication is an external concern:
// an absent or invalid token leaves the request anonymous rather than
// rejecting it, and handlers fall back to the handle in the request body.
func Identity(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handle := handleFromToken(r, signingKey, logger)
			if handle != "" {
				r = r.WithContext(requestcontext.WithUserHandle(r.Context(), handle))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleFromToken(r *http.Request, signingKey string, logger *slog.Logger) string {
	if signingKey == "" {
		return ""
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(signingKey), nil
	})
	if err != nil || !token.Valid {
		logger.Debug("ignoring invalid bearer token", "error", err)
		return ""
	}
	if name, ok := claims["name"].(string); ok {
		return strings.TrimSpace(name)
	}
	return ""
}
