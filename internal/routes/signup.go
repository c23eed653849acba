package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stakehub/stakehub_gateway/internal/logging"
	"github.com/stakehub/stakehub_gateway/internal/middleware"
	"github.com/stakehub/stakehub_gateway/internal/referral"
	"github.com/stakehub/stakehub_gateway/internal/signup"
)

// signupCookie carries the wizard identifier between steps.
const signupCookie = "shub_signup"

func registerSignupRoutes(r fiber.Router, svc *signup.Service, wizards signup.Store, tracker referral.Tracker, cache *redis.Client, logger *slog.Logger) {
	guard := middleware.SubmitGuard(cache, "signup", logging.Component(logger, "submit_guard"))

	group := r.Group("/signup")
	group.Post("/start", startWizardHandler(wizards, tracker))
	group.Get("/", wizardStateHandler(wizards))
	group.Post("/step", advanceHandler(wizards))
	group.Post("/back", backHandler(wizards))
	group.Post("/referral", referralHandler(wizards, tracker))
	group.Post("/submit", guard, submitHandler(svc, wizards))
}

func startWizardHandler(wizards signup.Store, tracker referral.Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Re-entering signup resumes the existing wizard; the referral flag
		// is keyed by it, so navigating back with the same ?ref cannot
		// re-notify.
		var w *signup.Wizard
		if id := c.Cookies(signupCookie); id != "" {
			if existing, err := wizards.Load(c.UserContext(), id); err == nil {
				w = existing
			}
		}
		fresh := w == nil
		if fresh {
			w = signup.NewWizard(uuid.NewString())
		}

		applied := false
		if code, ok := referral.Normalize(c.Query("ref")); ok {
			first, err := tracker.Apply(c.UserContext(), w.ID, code)
			if err == nil && first {
				w.Form.ReferralCode = code
				applied = true
			}
		}

		if err := wizards.Save(c.UserContext(), w); err != nil {
			return renderError(c, err)
		}
		c.Cookie(&fiber.Cookie{
			Name:     signupCookie,
			Value:    w.ID,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		status := http.StatusOK
		if fresh {
			status = http.StatusCreated
		}
		return c.Status(status).JSON(wizardState(w, applied))
	}
}

func wizardStateHandler(wizards signup.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := loadWizard(c, wizards)
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(wizardState(w, false))
	}
}

func advanceHandler(wizards signup.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := loadWizard(c, wizards)
		if err != nil {
			return renderError(c, err)
		}

		var input signup.Form
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		fields := w.Advance(input)
		// The wizard keeps merged input even when validation fails, so the
		// user's entries survive a round trip.
		if err := wizards.Save(c.UserContext(), w); err != nil {
			return renderError(c, err)
		}
		if fields != nil {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"status":      "validation_failed",
				"currentStep": w.Current,
				"fields":      fields,
			})
		}
		return c.JSON(wizardState(w, false))
	}
}

func backHandler(wizards signup.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := loadWizard(c, wizards)
		if err != nil {
			return renderError(c, err)
		}
		w.Back()
		if err := wizards.Save(c.UserContext(), w); err != nil {
			return renderError(c, err)
		}
		return c.JSON(wizardState(w, false))
	}
}

func referralHandler(wizards signup.Store, tracker referral.Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		code, ok := referral.Normalize(req.Code)
		if !ok {
			return fiber.NewError(http.StatusBadRequest, "invalid referral code")
		}

		w, err := loadWizard(c, wizards)
		if err != nil {
			return renderError(c, err)
		}

		first, err := tracker.Apply(c.UserContext(), w.ID, code)
		if err != nil {
			return renderError(c, err)
		}
		if first {
			w.Form.ReferralCode = code
			if err := wizards.Save(c.UserContext(), w); err != nil {
				return renderError(c, err)
			}
		}
		return c.JSON(fiber.Map{"applied": first})
	}
}

func submitHandler(svc *signup.Service, wizards signup.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := loadWizard(c, wizards)
		if err != nil {
			return renderError(c, err)
		}

		if err := svc.Submit(c.UserContext(), w, middleware.RequestIDFrom(c)); err != nil {
			// Keep the wizard so corrected fields (or a fresh challenge
			// token) can be resubmitted.
			if serr := wizards.Save(c.UserContext(), w); serr != nil {
				return renderError(c, serr)
			}
			return renderError(c, err)
		}

		if err := wizards.Delete(c.UserContext(), w.ID); err != nil {
			return renderError(c, err)
		}
		clearCookie(c, signupCookie)
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"status":   "created",
			"redirect": "/verify-email",
		})
	}
}

func loadWizard(c *fiber.Ctx, wizards signup.Store) (*signup.Wizard, error) {
	id := c.Cookies(signupCookie)
	if id == "" {
		return nil, fiber.NewError(http.StatusNotFound, "no signup in progress")
	}
	w, err := wizards.Load(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, signup.ErrWizardNotFound) {
			return nil, fiber.NewError(http.StatusNotFound, "no signup in progress")
		}
		return nil, err
	}
	return w, nil
}

// wizardState is the response view of a wizard. Passwords never leave the
// server; only presence is reported so the form can re-render its state.
func wizardState(w *signup.Wizard, referralApplied bool) fiber.Map {
	state := fiber.Map{
		"currentStep": w.Current,
		"form": fiber.Map{
			"email":        w.Form.Email,
			"hasPassword":  w.Form.Password != "",
			"firstName":    w.Form.FirstName,
			"lastName":     w.Form.LastName,
			"username":     w.Form.Username,
			"phone":        w.Form.Phone,
			"referralCode": w.Form.ReferralCode,
			"acceptTerms":  w.Form.AcceptTerms,
		},
	}
	if referralApplied {
		state["referralApplied"] = true
	}
	return state
}
