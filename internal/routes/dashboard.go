package routes

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/stakehub/stakehub_gateway/internal/backend"
	"github.com/stakehub/stakehub_gateway/internal/dashboard"
	"github.com/stakehub/stakehub_gateway/internal/middleware"
)

func registerDashboardRoutes(r fiber.Router, svc *dashboard.Service) {
	group := r.Group("/dashboard")
	group.Get("/wallet", proxyHandler(svc.Wallet))
	group.Get("/team", proxyHandler(svc.Team))
	group.Get("/signals", func(c *fiber.Ctx) error {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			return c.SendStatus(http.StatusUnauthorized)
		}
		payload, err := svc.Signals(c.UserContext(), sess.User.ID, sess.Token, c.Query("window"))
		if err != nil {
			return renderError(c, err)
		}
		return sendRaw(c, payload)
	})

	r.Post("/assistant/message", func(c *fiber.Ctx) error {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			return c.SendStatus(http.StatusUnauthorized)
		}
		var req struct {
			Message string `json:"message"`
		}
		if err := c.BodyParser(&req); err != nil || req.Message == "" {
			return fiber.NewError(http.StatusBadRequest, "message is required")
		}
		reply, err := svc.Assistant(c.UserContext(), sess.Token, req.Message)
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(fiber.Map{"reply": reply})
	})
}

func proxyHandler(read func(ctx context.Context, userID, token string) (backend.Raw, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			return c.SendStatus(http.StatusUnauthorized)
		}
		payload, err := read(c.UserContext(), sess.User.ID, sess.Token)
		if err != nil {
			return renderError(c, err)
		}
		return sendRaw(c, payload)
	}
}

func sendRaw(c *fiber.Ctx, payload backend.Raw) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
