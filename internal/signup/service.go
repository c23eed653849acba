package signup

import (
	"context"
	"log/slog"

	"github.com/stakehub/stakehub_gateway/internal/audit"
	"github.com/stakehub/stakehub_gateway/internal/backend"
	"github.com/stakehub/stakehub_gateway/internal/metrics"
)

// BackendSignup is the slice of the backend client the wizard needs.
type BackendSignup interface {
	Signup(ctx context.Context, payload backend.SignupPayload) (backend.SignupResult, error)
}

// Service submits completed wizards and maps the backend's structured
// rejections onto the gateway error taxonomy.
type Service struct {
	backend BackendSignup
	audit   *audit.Recorder
	logger  *slog.Logger
}

// NewService wires the signup submission service.
func NewService(b BackendSignup, rec *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{backend: b, audit: rec, logger: logger}
}

// Submit sends the finished wizard to the backend. It returns nil when the
// account was created; otherwise one of the taxonomy errors:
//
//   - *backend.ValidationError: a field failed re-validation (includes the
//     phone sanity floor)
//   - *backend.SecurityCheckError: bot challenge failed; the wizard's
//     challenge token has been reset and the user must redo the widget
//   - *backend.ConflictError: duplicate email/username/phone
//   - *backend.ServerError / *backend.NetworkError: generic failures
//
// The submission is never retried automatically.
func (s *Service) Submit(ctx context.Context, w *Wizard, requestID string) error {
	if w.Current != StepFinal {
		return &backend.ValidationError{Fields: map[string]string{
			"root": "Complete all steps before submitting.",
		}}
	}
	if errs := ValidateAll(w.Form); errs != nil {
		return &backend.ValidationError{Fields: errs}
	}

	phone, err := NormalizePhone(w.Form.Phone)
	if err != nil {
		return &backend.ValidationError{Fields: map[string]string{
			"phone": "Enter a valid phone number.",
		}}
	}

	email := backend.NormalizeEmail(w.Form.Email)
	res, err := s.backend.Signup(ctx, backend.SignupPayload{
		Email:           email,
		Password:        w.Form.Password,
		ConfirmPassword: w.Form.ConfirmPassword,
		FirstName:       w.Form.FirstName,
		LastName:        w.Form.LastName,
		Username:        w.Form.Username,
		PhoneNumber:     phone.National,
		CountryCode:     phone.CountryCode,
		ReferralCode:    w.Form.ReferralCode,
		TurnstileToken:  w.Form.TurnstileToken,
	})
	if err != nil {
		metrics.SignupOutcome("network_error")
		s.record(ctx, email, requestID, false, "network_error")
		return err
	}

	switch res.Kind {
	case backend.SignupCreated:
		metrics.SignupOutcome("created")
		s.record(ctx, email, requestID, true, "")
		return nil

	case backend.SignupSecurityCheckFailed:
		// The widget token is single-use; clear it so the front end renders
		// a fresh challenge instead of resubmitting a dead token.
		w.Form.TurnstileToken = ""
		metrics.SignupOutcome("security_check_failed")
		s.record(ctx, email, requestID, false, "security_check_failed")
		return &backend.SecurityCheckError{Message: res.Message}

	case backend.SignupConflict:
		c := res.Conflict
		metrics.SignupOutcome("conflict")
		s.record(ctx, email, requestID, false, "conflict_"+c.Field)
		return &backend.ConflictError{
			Field:            c.Field,
			Action:           c.Action,
			CanResetPassword: c.CanResetPassword,
			Message:          conflictMessage(c),
		}

	default:
		msg := backend.MsgSignupFailed
		if res.Failure != nil {
			msg = res.Failure.Message
		}
		metrics.SignupOutcome("failed")
		s.record(ctx, email, requestID, false, "rejected")
		status := 0
		if res.Failure != nil {
			status = res.Failure.StatusCode
		}
		return &backend.ServerError{StatusCode: status, Message: msg}
	}
}

func conflictMessage(c *backend.Conflict) string {
	if c.Message != "" {
		return c.Message
	}
	switch c.Field {
	case "email":
		return "An account with this email already exists."
	case "username":
		return "This username is already taken."
	case "phone", "phoneNumber":
		return "This phone number is already registered."
	default:
		return "This value is already in use."
	}
}

func (s *Service) record(ctx context.Context, email, requestID string, success bool, reason string) {
	s.audit.Record(ctx, audit.Event{
		Kind:      audit.KindSignup,
		Email:     email,
		RequestID: requestID,
		Success:   success,
		Reason:    reason,
	})
}
