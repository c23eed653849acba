package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stakehub/stakehub_gateway/internal/session"
)

// SessionCookie is the browser cookie carrying the session identifier.
const SessionCookie = "shub_session"

const sessionLocalsKey = "session"

// SessionAuth resolves the session cookie against the store and attaches the
// session to the request. Requests without a live session get 401; the stale
// cookie is cleared so the browser stops presenting it.
func SessionAuth(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(SessionCookie)
		if id == "" {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}

		sess, err := store.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				expireSessionCookie(c)
				return fiber.NewError(http.StatusUnauthorized, "session expired")
			}
			return fiber.NewError(http.StatusInternalServerError, "session lookup failed")
		}
		if sess.Expired(time.Now()) {
			expireSessionCookie(c)
			return fiber.NewError(http.StatusUnauthorized, "session expired")
		}

		c.Locals(sessionLocalsKey, sess)
		return c.Next()
	}
}

// SessionFrom returns the session attached by SessionAuth.
func SessionFrom(c *fiber.Ctx) (session.Session, bool) {
	sess, ok := c.Locals(sessionLocalsKey).(session.Session)
	return sess, ok
}

func expireSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
