package signup

// Step identifies one page of the signup wizard.
type Step int

const (
	StepCredentials Step = 1
	StepProfile     Step = 2
	StepFinal       Step = 3
)

// Form holds every field the wizard collects. Each step owns a disjoint
// subset; fields outside the current step are never touched by an advance.
type Form struct {
	// Step 1
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`

	// Step 2
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`

	// Step 3
	ReferralCode   string `json:"referralCode"`
	AcceptTerms    bool   `json:"acceptTerms"`
	TurnstileToken string `json:"turnstileToken"`
}

// Wizard is the linear 3-step signup flow with forward-validation gating:
// advancing past step N requires step N's fields to validate; going back is
// always allowed and never discards entered data.
type Wizard struct {
	ID      string `json:"id"`
	Current Step   `json:"currentStep"`
	Form    Form   `json:"form"`
}

// NewWizard starts a wizard at step 1.
func NewWizard(id string) *Wizard {
	return &Wizard{ID: id, Current: StepCredentials}
}

// Advance merges the current step's fields from input, validates exactly
// that step, and moves forward when it passes. On failure the step pointer
// and all other steps' data are left untouched; the returned map carries the
// per-field messages.
func (w *Wizard) Advance(input Form) map[string]string {
	w.merge(input, w.Current)
	if errs := ValidateStep(w.Current, w.Form); len(errs) > 0 {
		return errs
	}
	if w.Current < StepFinal {
		w.Current++
	}
	return nil
}

// Back moves one step backward without clearing anything.
func (w *Wizard) Back() {
	if w.Current > StepCredentials {
		w.Current--
	}
}

// merge copies only the fields owned by the given step.
func (w *Wizard) merge(input Form, step Step) {
	switch step {
	case StepCredentials:
		w.Form.Email = input.Email
		w.Form.Password = input.Password
		w.Form.ConfirmPassword = input.ConfirmPassword
	case StepProfile:
		w.Form.FirstName = input.FirstName
		w.Form.LastName = input.LastName
		w.Form.Username = input.Username
		w.Form.Phone = input.Phone
	case StepFinal:
		w.Form.ReferralCode = input.ReferralCode
		w.Form.AcceptTerms = input.AcceptTerms
		w.Form.TurnstileToken = input.TurnstileToken
	}
}
