package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stakehub/stakehub_gateway/internal/dashboard"
)

func registerHealthRoutes(app *fiber.App, svc *dashboard.Service) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		report := svc.Health(c.UserContext())
		status := http.StatusOK
		if !report.Healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"healthy":    report.Healthy,
			"components": report.Components,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
