package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CompounderClaims are the JWT claims expected by the compounder API. The
// Address claim binds the token to an on-chain account; it becomes the
// caller identity for authorization checks in the service layer.
type CompounderClaims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
}

// JWTValidator validates bearer tokens signed with a shared HMAC secret.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator with the given HMAC secret. A nil or
// empty secret returns nil, which makes the middleware fail closed.
func NewJWTValidator(secret []byte) *JWTValidator {
	if len(secret) == 0 {
		return nil
	}
	return &JWTValidator{secret: secret}
}

// Validate parses and validates a JWT token string.
func (v *JWTValidator) Validate(tokenStr string) (*CompounderClaims, error) {
	claims := &CompounderClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

type callerKey struct{}

// WithCaller returns a context carrying the authenticated caller address.
func WithCaller(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, callerKey{}, address)
}

// CallerFrom extracts the authenticated caller address from the context.
func CallerFrom(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(callerKey{}).(string)
	return addr, ok && addr != ""
}

// publicPaths are endpoints that do not require authentication.
var publicPaths = []string{
	"/health",
	"/readiness",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// AuthMiddleware creates JWT auth middleware. If validator is nil, all
// non-public requests are rejected (fail closed).
func AuthMiddleware(validator *JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteUnauthorized(w, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				WriteUnauthorized(w, "Invalid Authorization header format (expected 'Bearer <token>')")
				return
			}

			if validator == nil {
				WriteUnauthorized(w, "Authentication not configured")
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				WriteUnauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Address == "" {
				WriteUnauthorized(w, "Token address binding is required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.Address)))
		})
	}
}
