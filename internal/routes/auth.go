package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stakehub/stakehub_gateway/internal/authflow"
	"github.com/stakehub/stakehub_gateway/internal/config"
	"github.com/stakehub/stakehub_gateway/internal/logging"
	"github.com/stakehub/stakehub_gateway/internal/middleware"
)

// Trusted-device cookies. The token is only ever compared against its bcrypt
// hash server-side; the pair is useless without the matching Redis entry.
const (
	deviceUserCookie  = "shub_device_uid"
	deviceTokenCookie = "shub_device_token"
)

func registerAuthRoutes(r fiber.Router, svc *authflow.Service, cache *redis.Client, cfg config.Config, logger *slog.Logger) {
	guard := middleware.SubmitGuard(cache, "login", logging.Component(logger, "submit_guard"))
	rateLimiter := middleware.LoginRateLimit(cache, cfg.LoginPerMinute)

	group := r.Group("/auth")
	group.Post("/login", rateLimiter, guard, loginHandler(svc, cfg))
	group.Post("/mfa/verify", rateLimiter, guard, verifyHandler(svc, cfg))
	group.Post("/resend-verification", resendHandler(svc))
	group.Post("/logout", logoutHandler(svc))
}

func loginHandler(svc *authflow.Service, cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email      string `json:"email"`
			Password   string `json:"password"`
			RememberMe bool   `json:"rememberMe"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		out, err := svc.Login(c.UserContext(), authflow.LoginInput{
			Email:        req.Email,
			Password:     req.Password,
			RememberMe:   req.RememberMe,
			Redirect:     c.Query("redirect"),
			DeviceUserID: c.Cookies(deviceUserCookie),
			DeviceToken:  c.Cookies(deviceTokenCookie),
			RequestID:    middleware.RequestIDFrom(c),
		})
		if err != nil {
			return renderError(c, err)
		}
		return renderOutcome(c, out, cfg)
	}
}

func verifyHandler(svc *authflow.Service, cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			ChallengeID    string `json:"challengeId"`
			Code           string `json:"code"`
			RememberDevice bool   `json:"rememberDevice"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		out, err := svc.VerifyMFA(c.UserContext(), authflow.VerifyInput{
			ChallengeID:    req.ChallengeID,
			Code:           req.Code,
			RememberDevice: req.RememberDevice,
			Redirect:       c.Query("redirect"),
			RequestID:      middleware.RequestIDFrom(c),
		})
		if err != nil {
			return renderError(c, err)
		}
		return renderOutcome(c, out, cfg)
	}
}

func resendHandler(svc *authflow.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.BodyParser(&req); err != nil || req.Email == "" {
			return fiber.NewError(http.StatusBadRequest, "email is required")
		}
		if err := svc.ResendVerification(c.UserContext(), req.Email); err != nil {
			return renderError(c, err)
		}
		return c.JSON(fiber.Map{"status": "sent"})
	}
}

func logoutHandler(svc *authflow.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(middleware.SessionCookie)
		if id != "" {
			if err := svc.Logout(c.UserContext(), id, middleware.RequestIDFrom(c)); err != nil {
				return renderError(c, err)
			}
		}
		clearCookie(c, middleware.SessionCookie)
		// Trust was revoked server-side; drop the now-dead device pair too.
		clearCookie(c, deviceUserCookie)
		clearCookie(c, deviceTokenCookie)
		return c.SendStatus(http.StatusNoContent)
	}
}

// renderOutcome translates a flow outcome to the response the front end
// branches on. Authentication is the only branch that touches cookies.
func renderOutcome(c *fiber.Ctx, out authflow.Outcome, cfg config.Config) error {
	switch out.Kind {
	case authflow.OutcomeAuthenticated:
		cookie := &fiber.Cookie{
			Name:     middleware.SessionCookie,
			Value:    out.SessionID,
			HTTPOnly: true,
			Secure:   !cfg.IsDev(),
			SameSite: fiber.CookieSameSiteLaxMode,
		}
		if out.RememberMe {
			// Persistent cookie; otherwise it dies with the browser session.
			cookie.Expires = out.SessionExpiresAt
		}
		c.Cookie(cookie)

		if out.DeviceToken != "" {
			expires := time.Now().Add(cfg.RememberTTL)
			c.Cookie(&fiber.Cookie{
				Name: deviceUserCookie, Value: out.DeviceUserID,
				Expires: expires, HTTPOnly: true, Secure: !cfg.IsDev(),
				SameSite: fiber.CookieSameSiteLaxMode,
			})
			c.Cookie(&fiber.Cookie{
				Name: deviceTokenCookie, Value: out.DeviceToken,
				Expires: expires, HTTPOnly: true, Secure: !cfg.IsDev(),
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		return c.JSON(fiber.Map{
			"status":   "authenticated",
			"redirect": out.Redirect,
		})

	case authflow.OutcomeMFAChallenge:
		resp := fiber.Map{
			"status":      "mfa_required",
			"challengeId": out.ChallengeID,
		}
		if out.Message != "" {
			resp["message"] = out.Message
		}
		return c.JSON(resp)

	case authflow.OutcomeEmailUnverified:
		return c.Status(http.StatusForbidden).JSON(fiber.Map{
			"status": "email_unverified",
			"email":  out.Email,
		})

	case authflow.OutcomePasswordResetRequired:
		return c.Status(http.StatusForbidden).JSON(fiber.Map{
			"status": "password_reset_required",
		})

	default:
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"status":  "failed",
			"message": out.Message,
		})
	}
}

func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
