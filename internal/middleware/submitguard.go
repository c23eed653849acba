package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stakehub/stakehub_gateway/internal/backend"
)

const (
	submitGuardPrefix = "submit:inflight:v1:"
	submitGuardTTL    = 30 * time.Second
)

// SubmitGuard enforces one in-flight submission per form and principal. A
// second POST while the first is still processing gets 409 instead of a
// duplicate backend call. The marker is released when the handler returns,
// and the TTL bounds the damage if the process dies mid-request.
//
// The principal is the submitted email when present, otherwise the client
// IP; form names the guarded action ("login", "signup", ...).
func SubmitGuard(cache *redis.Client, form string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}

		var req struct {
			Email string `json:"email"`
		}
		_ = c.BodyParser(&req)
		principal := backend.NormalizeEmail(req.Email)
		if principal == "" {
			principal = c.IP()
		}
		key := submitGuardPrefix + form + ":" + principal

		ok, err := cache.SetNX(c.UserContext(), key, "1", submitGuardTTL).Result()
		if err != nil {
			logger.Warn("submit guard unavailable",
				slog.String("form", form), slog.Any("error", err))
			return c.Next() // fail-open on cache errors
		}
		if !ok {
			return fiber.NewError(http.StatusConflict, "A submission is already in progress. Please wait.")
		}

		defer func() {
			// Release with a fresh context; the request's may be done.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			cache.Del(ctx, key)
		}()

		return c.Next()
	}
}
