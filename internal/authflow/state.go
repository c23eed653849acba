package authflow

import "fmt"

// State enumerates the login flow states. The flow is
// Idle → Submitting → {Authenticated | AwaitingMFA | Blocked | Failed};
// AwaitingMFA nests its own Submitting → {Authenticated | Failed(retry)}.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAuthenticated
	StateAwaitingMFA
	StateMFASubmitting
	StateBlockedEmailUnverified
	StateBlockedPasswordReset
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAuthenticated:
		return "authenticated"
	case StateAwaitingMFA:
		return "awaiting_mfa"
	case StateMFASubmitting:
		return "mfa_submitting"
	case StateBlockedEmailUnverified:
		return "blocked_email_unverified"
	case StateBlockedPasswordReset:
		return "blocked_password_reset"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Flow tracks one login attempt through its states. At most one variant's
// data is populated at a time; every transition clears the fields owned by
// the other variants.
type Flow struct {
	state        State
	challengeID  string
	email        string
	message      string
	redirect     string
	redirectUsed bool
}

// NewFlow starts an idle flow.
func NewFlow() *Flow {
	return &Flow{state: StateIdle}
}

// State returns the current state.
func (f *Flow) State() State { return f.state }

// ChallengeID returns the active MFA challenge identifier, if any.
func (f *Flow) ChallengeID() string { return f.challengeID }

// Email returns the email captured for the resend-verification action.
func (f *Flow) Email() string { return f.email }

// Message returns the user-visible failure message, if any.
func (f *Flow) Message() string { return f.message }

func (f *Flow) transitionError(to State) error {
	return fmt.Errorf("illegal transition %s → %s", f.state, to)
}

// BeginSubmit moves into Submitting. Legal from Idle or Failed (user
// re-clicked submit); a submission already in flight cannot start another.
func (f *Flow) BeginSubmit() error {
	switch f.state {
	case StateIdle, StateFailed:
	default:
		return f.transitionError(StateSubmitting)
	}
	f.clear()
	f.state = StateSubmitting
	return nil
}

// Succeed moves into Authenticated and arms the one-shot redirect.
func (f *Flow) Succeed(redirect string) error {
	switch f.state {
	case StateSubmitting, StateMFASubmitting:
	default:
		return f.transitionError(StateAuthenticated)
	}
	f.clear()
	f.state = StateAuthenticated
	f.redirect = redirect
	return nil
}

// RequireMFA moves into AwaitingMFA holding the challenge identifier.
func (f *Flow) RequireMFA(challengeID string) error {
	if f.state != StateSubmitting {
		return f.transitionError(StateAwaitingMFA)
	}
	f.clear()
	f.state = StateAwaitingMFA
	f.challengeID = challengeID
	return nil
}

// BlockEmailUnverified moves into the unverified-email alternate flow,
// retaining the submitted email for the resend action.
func (f *Flow) BlockEmailUnverified(email string) error {
	if f.state != StateSubmitting {
		return f.transitionError(StateBlockedEmailUnverified)
	}
	f.clear()
	f.state = StateBlockedEmailUnverified
	f.email = email
	return nil
}

// BlockPasswordReset moves into the forced-reset alternate flow.
func (f *Flow) BlockPasswordReset() error {
	if f.state != StateSubmitting {
		return f.transitionError(StateBlockedPasswordReset)
	}
	f.clear()
	f.state = StateBlockedPasswordReset
	return nil
}

// Fail moves into Failed with a user-visible message.
func (f *Flow) Fail(message string) error {
	switch f.state {
	case StateSubmitting, StateMFASubmitting:
	default:
		return f.transitionError(StateFailed)
	}
	f.clear()
	f.state = StateFailed
	f.message = message
	return nil
}

// BeginMFASubmit moves the nested challenge into its submitting state.
func (f *Flow) BeginMFASubmit() error {
	if f.state != StateAwaitingMFA {
		return f.transitionError(StateMFASubmitting)
	}
	f.state = StateMFASubmitting
	return nil
}

// RetryMFA returns a failed code submission to AwaitingMFA. The challenge is
// retained so the user may retry; only the backend rate-limits attempts.
func (f *Flow) RetryMFA(message string) error {
	if f.state != StateMFASubmitting {
		return f.transitionError(StateAwaitingMFA)
	}
	f.state = StateAwaitingMFA
	f.message = message
	return nil
}

// ConsumeRedirect returns the post-login redirect target exactly once.
// Subsequent calls return empty, guarding against re-entrant redirects.
func (f *Flow) ConsumeRedirect() string {
	if f.state != StateAuthenticated || f.redirectUsed {
		return ""
	}
	f.redirectUsed = true
	return f.redirect
}

func (f *Flow) clear() {
	f.challengeID = ""
	f.email = ""
	f.message = ""
	f.redirect = ""
	f.redirectUsed = false
}
