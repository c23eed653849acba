package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/stakehub/stakehub_gateway/internal/backend"
)

// MsgOffline is shown for transport failures; the backend never saw the
// request, so retrying is safe.
const MsgOffline = "Unable to reach the server. Please check your connection and try again."

// renderError converts the gateway error taxonomy into a JSON response. Every
// handler funnels its failures through here so shapes stay uniform.
func renderError(c *fiber.Ctx, err error) error {
	var (
		verr   *backend.ValidationError
		aerr   *backend.AuthenticationError
		serr   *backend.StateRequiredError
		cerr   *backend.ConflictError
		scerr  *backend.SecurityCheckError
		srverr *backend.ServerError
		ferr   *fiber.Error
	)

	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"status": "validation_failed",
			"fields": verr.Fields,
		})

	case errors.As(err, &aerr):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"status":  "failed",
			"message": aerr.Message,
		})

	case errors.As(err, &serr):
		return c.Status(http.StatusForbidden).JSON(fiber.Map{
			"status": serr.State,
			"email":  serr.Email,
		})

	case errors.As(err, &cerr):
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"status":           "conflict",
			"field":            cerr.Field,
			"action":           cerr.Action,
			"canResetPassword": cerr.CanResetPassword,
			"message":          cerr.Message,
		})

	case errors.As(err, &scerr):
		// The message stands alone; no generic failure text is added.
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"status":         "security_check_failed",
			"message":        scerr.Message,
			"resetChallenge": true,
		})

	case backend.IsNetwork(err):
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{
			"status":  "offline",
			"message": MsgOffline,
		})

	case errors.As(err, &srverr):
		status := http.StatusBadGateway
		if srverr.StatusCode >= 400 && srverr.StatusCode < 500 {
			status = http.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"status":  "error",
			"message": srverr.Message,
		})

	case errors.As(err, &ferr):
		return c.Status(ferr.Code).JSON(fiber.Map{
			"status":  "error",
			"message": ferr.Message,
		})

	default:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": backend.MsgServerError,
		})
	}
}
