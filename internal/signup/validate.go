package signup

import (
	"regexp"
	"strings"

	"github.com/stakehub/stakehub_gateway/internal/backend"
)

const minPasswordLength = 8

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
)

// ValidateStep checks exactly the fields owned by one step and returns
// per-field messages. Fields belonging to other steps are never inspected,
// so an unvisited step cannot fail validation.
func ValidateStep(step Step, form Form) map[string]string {
	errs := make(map[string]string)

	switch step {
	case StepCredentials:
		if !emailPattern.MatchString(backend.NormalizeEmail(form.Email)) {
			errs["email"] = "Enter a valid email address."
		}
		if len(form.Password) < minPasswordLength {
			errs["password"] = "Password must be at least 8 characters."
		}
		if form.ConfirmPassword != form.Password {
			errs["confirmPassword"] = "Passwords do not match."
		}

	case StepProfile:
		if strings.TrimSpace(form.FirstName) == "" {
			errs["firstName"] = "First name is required."
		}
		if strings.TrimSpace(form.LastName) == "" {
			errs["lastName"] = "Last name is required."
		}
		if !usernamePattern.MatchString(form.Username) {
			errs["username"] = "Username must be 3-32 letters, digits or underscores."
		}
		if _, err := NormalizePhone(form.Phone); err != nil {
			errs["phone"] = "Enter a valid phone number."
		}

	case StepFinal:
		if !form.AcceptTerms {
			errs["acceptTerms"] = "You must accept the terms to continue."
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateAll re-checks every step before submission.
func ValidateAll(form Form) map[string]string {
	errs := make(map[string]string)
	for _, step := range []Step{StepCredentials, StepProfile, StepFinal} {
		for field, msg := range ValidateStep(step, form) {
			errs[field] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
