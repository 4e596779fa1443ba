package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry recovers the remaining lifetime from a JWT-shaped access
// token's exp claim. The token is inspected, never validated; the upstream
// signed it and the upstream alone enforces it. Returns false for opaque
// tokens, tokens without exp, and tokens already past expiry.
func tokenExpiry(token string, now time.Time) (time.Duration, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0, false
	}
	if claims.ExpiresAt == nil {
		return 0, false
	}
	d := claims.ExpiresAt.Time.Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}
