package backend

import (
	"context"
	"fmt"
	"strings"
)

// NormalizeEmail trims surrounding whitespace and lowercases an address.
// Applied to every email before it leaves the gateway.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// DeviceToken vouches that this device completed an MFA challenge before;
	// the backend decides whether that skips the next one. Omitted when empty.
	DeviceToken string `json:"deviceToken,omitempty"`
}

// Login submits credentials and normalizes the response. The remember-me
// choice is a local concern and deliberately has no place in the payload.
func (c *Client) Login(ctx context.Context, email, password, deviceToken string) (LoginResult, error) {
	email = NormalizeEmail(email)
	status, body, err := c.post(ctx, "login", "/api/v1/auth/login", loginRequest{
		Email:       email,
		Password:    password,
		DeviceToken: deviceToken,
	})
	if err != nil {
		return LoginResult{}, err
	}
	return normalizeLogin(status, body, email), nil
}

type verifyRequest struct {
	UserID string `json:"userID"`
	Token  string `json:"token"`
}

// VerifyMFA submits a 6-digit code for the challenged user. On failure the
// caller keeps the challenge alive; retry policy is not enforced here.
func (c *Client) VerifyMFA(ctx context.Context, userID, code string) (LoginResult, error) {
	status, body, err := c.post(ctx, "mfa_verify", "/api/v1/auth/mfa/verify", verifyRequest{
		UserID: userID,
		Token:  code,
	})
	if err != nil {
		return LoginResult{}, err
	}
	return normalizeVerify(status, body), nil
}

type resendRequest struct {
	Email string `json:"email"`
}

// ResendVerification asks the backend to send a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	status, body, err := c.post(ctx, "resend_verification", "/api/v1/auth/resend-verification", resendRequest{
		Email: NormalizeEmail(email),
	})
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}
	p := parsePayload(body)
	msg := p.message()
	if !looksUserSafe(msg) {
		msg = MsgServerError
	}
	return &ServerError{StatusCode: status, Message: msg}
}

// Signup submits the completed wizard payload and normalizes the response.
func (c *Client) Signup(ctx context.Context, payload SignupPayload) (SignupResult, error) {
	payload.Email = NormalizeEmail(payload.Email)
	status, body, err := c.post(ctx, "signup", "/api/v1/auth/signup", payload)
	if err != nil {
		return SignupResult{}, err
	}
	return normalizeSignup(status, body), nil
}

// HealthCheck queries backend availability.
func (c *Client) HealthCheck(ctx context.Context) (Health, error) {
	status, body, err := c.getAuthed(ctx, "health", "/api/v1/health", "")
	if err != nil {
		return Health{}, err
	}
	p := parsePayload(body)
	h := Health{Message: p.message()}
	if v, ok := p.lookup("isHealthy"); ok {
		h.IsHealthy, _ = v.(bool)
	} else {
		h.IsHealthy = status >= 200 && status < 300
	}
	if !h.IsHealthy && h.Message == "" {
		h.Message = fmt.Sprintf("backend returned status %d", status)
	}
	return h, nil
}
