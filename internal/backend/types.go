package backend

import "encoding/json"

// User carries the profile fields the gateway surfaces to the front end.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

// LoginKind discriminates the variants of a normalized login response.
type LoginKind int

const (
	// LoginFailure covers everything that is not one of the structured
	// outcomes below: bad credentials, malformed responses, server errors.
	LoginFailure LoginKind = iota
	LoginSuccess
	LoginMFARequired
	LoginEmailUnverified
	LoginPasswordResetRequired
)

// Failure describes a classified login failure.
type Failure struct {
	StatusCode int
	Code       string
	Message    string
}

// LoginResult is the normalized outcome of a login or MFA verification call.
// Exactly one variant is active; the fields of inactive variants are zero.
type LoginResult struct {
	Kind LoginKind

	// LoginSuccess
	Token string
	User  User

	// LoginMFARequired
	UserID string

	// LoginEmailUnverified: the email submitted at login, retained so the
	// caller can offer a resend-verification action.
	Email string

	// LoginFailure
	Failure *Failure
}

// SignupKind discriminates the variants of a normalized signup response.
type SignupKind int

const (
	SignupFailure SignupKind = iota
	SignupCreated
	SignupSecurityCheckFailed
	SignupConflict
)

// Conflict describes a duplicate-field signup rejection and the recovery
// action the backend suggests.
type Conflict struct {
	Field            string
	Action           string
	CanResetPassword bool
	Message          string
}

// SignupResult is the normalized outcome of a signup submission.
type SignupResult struct {
	Kind SignupKind

	// SignupSecurityCheckFailed
	Message string

	// SignupConflict
	Conflict *Conflict

	// SignupFailure
	Failure *Failure
}

// SignupPayload is the request body for account creation. Empty optional
// fields are omitted from the wire payload.
type SignupPayload struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Username        string `json:"username"`
	PhoneNumber     string `json:"phoneNumber"`
	CountryCode     string `json:"countryCode"`
	ReferralCode    string `json:"referralCode,omitempty"`
	TurnstileToken  string `json:"turnstileToken,omitempty"`
}

// Health reports backend availability as the backend describes it.
type Health struct {
	IsHealthy bool   `json:"isHealthy"`
	Message   string `json:"message"`
}

// Raw wraps an opaque backend payload proxied to the front end unchanged.
type Raw = json.RawMessage
