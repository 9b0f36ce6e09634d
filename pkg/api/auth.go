package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/audit"
)

// publicPaths never require a token.
var publicPaths = map[string]bool{
	"/health":  true,
	"/version": true,
	"/metrics": true,
}

// JWTValidator checks HS256 bearer tokens.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator returns nil when secret is empty, which disables auth.
func NewJWTValidator(secret string) *JWTValidator {
	if secret == "" {
		return nil
	}
	return &JWTValidator{secret: []byte(secret)}
}

// Validate parses tokenStr and returns its claims.
func (v *JWTValidator) Validate(tokenStr string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Auth requires a valid bearer token on non-public paths. A nil validator
// lets every request through. The token subject becomes the audit actor.
func Auth(v *JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if header == "" || !ok || tokenStr == "" {
				WriteUnauthorized(w, r, "Missing or malformed Authorization header (expected 'Bearer <token>')")
				return
			}
			claims, err := v.Validate(tokenStr)
			if err != nil {
				WriteUnauthorized(w, r, "Invalid or expired token")
				return
			}
			if claims.Subject == "" {
				WriteUnauthorized(w, r, "Token subject is required")
				return
			}
			next.ServeHTTP(w, r.WithContext(audit.WithActor(r.Context(), claims.Subject)))
		})
	}
}
