package backend

import (
	"errors"
	"fmt"
)

// The gateway folds every failure a form submission can produce into one of
// these types; handlers convert them to a single user-visible message plus
// optional per-field messages, and nothing escapes a handler unconverted.

// ValidationError carries schema-level, field-scoped messages. The submission
// is rejected before anything is sent to the backend.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// AuthenticationError is a credential rejection with a user-safe message.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// Account states that require an alternate flow rather than a retry.
const (
	StateEmailUnverified       = "email_unverified"
	StatePasswordResetRequired = "password_reset_required"
)

// StateRequiredError signals that the account needs an alternate flow
// (verify email, reset password) before login can proceed. Not a failure;
// the handler surfaces an actionable link instead of an error message.
type StateRequiredError struct {
	State string
	Email string
}

func (e *StateRequiredError) Error() string { return "account state requires " + e.State }

// ConflictError reports a duplicate email/username/phone at signup together
// with the backend-suggested recovery action.
type ConflictError struct {
	Field            string
	Action           string
	CanResetPassword bool
	Message          string
}

func (e *ConflictError) Error() string { return e.Message }

// SecurityCheckError reports a failed bot challenge. Retryable after the
// challenge widget is reset; the submission is never retried automatically.
type SecurityCheckError struct {
	Message string
}

func (e *SecurityCheckError) Error() string { return e.Message }

// ServerError is the generic fallback for unclassifiable backend failures.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string { return e.Message }

// NetworkError wraps transport failures (connection refused, timeout) so
// callers can distinguish them from credential errors.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("backend %s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
