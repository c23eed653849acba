package session

import (
	"time"

	"github.com/stakehub/stakehub_gateway/internal/backend"
)

// Session is the gateway-side record of an authenticated user: the backend
// bearer token plus the profile every authenticated view reads. It is written
// on login or MFA success and destroyed on logout or forced invalidation.
type Session struct {
	ID         string       `json:"id"`
	Token      string       `json:"token"`
	User       backend.User `json:"user"`
	RememberMe bool         `json:"rememberMe"`
	CreatedAt  time.Time    `json:"createdAt"`
	ExpiresAt  time.Time    `json:"expiresAt"`
}

// Expired reports whether the session has passed its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
