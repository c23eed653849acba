package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/stakehub/stakehub_gateway/internal/middleware"
)

func registerSessionRoutes(r fiber.Router) {
	r.Get("/session/me", func(c *fiber.Ctx) error {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			return c.SendStatus(http.StatusUnauthorized)
		}
		return c.JSON(fiber.Map{
			"user":       sess.User,
			"expiresAt":  sess.ExpiresAt,
			"rememberMe": sess.RememberMe,
		})
	})
}
