package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stakehub/stakehub_gateway/internal/backend"
)

// LoginRateLimit caps authentication attempts per principal using a
// one-minute Redis counter. The principal is the submitted email, or the MFA
// challenge id for code submissions, or the client IP as a last resort. This
// is a gateway-side damper only; the backend remains the authoritative rate
// limiter.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 10
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			Email       string `json:"email"`
			ChallengeID string `json:"challengeId"`
		}
		_ = c.BodyParser(&req)
		principal := backend.NormalizeEmail(req.Email)
		if principal == "" {
			principal = req.ChallengeID
		}
		if principal == "" {
			principal = c.IP()
		}
		key := "rl:login:v1:" + principal
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "Too many login attempts. Please wait a moment and try again.")
		}
		return c.Next()
	}
}
