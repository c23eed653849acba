package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry derives the session expiry from the backend-issued access
// token. The signature is the backend's to verify, not ours, so the claims
// are parsed unverified and only the exp claim is consulted. Falls back to
// now+fallback when the token is opaque or carries no usable expiry.
func TokenExpiry(token string, fallback time.Duration, now time.Time) time.Time {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return now.Add(fallback)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.After(now) {
		return now.Add(fallback)
	}
	return exp.Time
}
