package audit

import "time"

// Event kinds recorded by the gateway.
const (
	KindLogin     = "login"
	KindMFAVerify = "mfa_verify"
	KindSignup    = "signup"
	KindLogout    = "logout"
)

// Event is one auth-flow outcome. Emails are stored normalized; passwords,
// codes and tokens never appear here.
type Event struct {
	ID        string
	Kind      string
	Email     string
	RequestID string
	Success   bool
	Reason    string
	CreatedAt time.Time
}
