package backend

import (
	"encoding/json"
	"strings"
)

// User-facing messages produced by login classification. The invalid-credentials
// text is load-bearing: the front end asserts on it verbatim.
const (
	MsgInvalidCredentials = "Invalid email or password. Please check your credentials and try again."
	MsgNoAccount          = "No account found with this email address."
	MsgIncorrectPassword  = "Incorrect password. Please try again."
	MsgAccountLocked      = "Your account has been locked. Please contact support."
	MsgAccessDenied       = "Access denied."
	MsgRateLimited        = "Too many attempts. Please wait a moment and try again."
	MsgServerError        = "Something went wrong on our end. Please try again later."
	MsgLoginFailed        = "Login failed. Please try again."
	MsgUnexpectedResponse = "Unexpected response from server. Please try again."
	MsgInvalidCode        = "Invalid verification code. Please try again."
	MsgSecurityCheck      = "Security check failed."
	MsgSignupFailed       = "Failed to create account"
)

// payload is a tolerant view over a backend JSON body. The backend is known
// to vary key casing (userID vs userId) and to nest responses under "data";
// all of that variance is absorbed here so nothing downstream key-probes.
type payload map[string]any

func parsePayload(body []byte) payload {
	if len(body) == 0 {
		return nil
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil
	}
	return p
}

// lookup returns the first value found under any of the given keys, checking
// the top level first and then a nested "data" object.
func (p payload) lookup(keys ...string) (any, bool) {
	if p == nil {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := p[k]; ok {
			return v, true
		}
	}
	if nested, ok := p["data"].(map[string]any); ok {
		for _, k := range keys {
			if v, ok := nested[k]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (p payload) str(keys ...string) string {
	v, ok := p.lookup(keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (p payload) flag(keys ...string) bool {
	v, ok := p.lookup(keys...)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}

func (p payload) user() User {
	v, ok := p.lookup("user")
	if !ok {
		return User{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return User{}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return User{}
	}
	var u User
	_ = json.Unmarshal(raw, &u)
	return u
}

func (p payload) message() string {
	return p.str("message", "error", "msg")
}

// normalizeLogin classifies a raw login response into exactly one LoginResult
// variant. Rules apply in order; first match wins.
func normalizeLogin(status int, body []byte, submittedEmail string) LoginResult {
	p := parsePayload(body)
	code := p.str("code", "errorCode")

	// 1. Forced password reset trumps everything else in the body.
	if p.flag("passwordResetRequired") {
		return LoginResult{Kind: LoginPasswordResetRequired}
	}

	// 2. Second factor required. The user identifier travels under either of
	// two key spellings; if both are absent the login must fail loudly rather
	// than be treated as a success.
	if p.flag("mfaRequired") {
		if uid := p.str("userID", "userId"); uid != "" {
			return LoginResult{Kind: LoginMFARequired, UserID: uid}
		}
		return LoginResult{Kind: LoginFailure, Failure: &Failure{
			StatusCode: status,
			Code:       code,
			Message:    MsgUnexpectedResponse,
		}}
	}

	// 3. Unqualified success requires a token.
	if status >= 200 && status < 300 {
		if token := p.str("token", "accessToken"); token != "" {
			return LoginResult{Kind: LoginSuccess, Token: token, User: p.user()}
		}
		return LoginResult{Kind: LoginFailure, Failure: &Failure{
			StatusCode: status,
			Code:       code,
			Message:    MsgUnexpectedResponse,
		}}
	}

	// 4. Unverified email: 403, a dedicated code/flag, or a telltale message.
	if status == 403 || isUnverifiedEmail(p, code) {
		return LoginResult{Kind: LoginEmailUnverified, Email: submittedEmail}
	}

	// 5. Everything else is a classified failure.
	return LoginResult{Kind: LoginFailure, Failure: &Failure{
		StatusCode: status,
		Code:       code,
		Message:    classifyLoginMessage(status, p.message()),
	}}
}

func isUnverifiedEmail(p payload, code string) bool {
	switch code {
	case "EMAIL_NOT_VERIFIED", "EMAIL_UNVERIFIED":
		return true
	}
	if p.flag("emailNotVerified") {
		return true
	}
	msg := strings.ToLower(p.message())
	return strings.Contains(msg, "verify your email") ||
		strings.Contains(msg, "email not verified") ||
		strings.Contains(msg, "not verified")
}

// normalizeVerify classifies an MFA verification response. Success mirrors
// login success; anything else keeps the challenge alive for a retry.
func normalizeVerify(status int, body []byte) LoginResult {
	p := parsePayload(body)

	if status >= 200 && status < 300 {
		if token := p.str("token", "accessToken"); token != "" {
			return LoginResult{Kind: LoginSuccess, Token: token, User: p.user()}
		}
		return LoginResult{Kind: LoginFailure, Failure: &Failure{
			StatusCode: status,
			Message:    MsgUnexpectedResponse,
		}}
	}

	msg := p.message()
	if !looksUserSafe(msg) {
		if status == 400 || status == 401 {
			msg = MsgInvalidCode
		} else {
			msg = statusFallback(status)
		}
	}
	return LoginResult{Kind: LoginFailure, Failure: &Failure{
		StatusCode: status,
		Code:       p.str("code", "errorCode"),
		Message:    msg,
	}}
}

// normalizeSignup classifies a signup response.
func normalizeSignup(status int, body []byte) SignupResult {
	if status >= 200 && status < 300 {
		return SignupResult{Kind: SignupCreated}
	}

	p := parsePayload(body)
	code := p.str("code", "errorCode")
	msg := p.message()

	if code == "TURNSTILE_FAILED" {
		if msg == "" {
			msg = MsgSecurityCheck
		}
		return SignupResult{Kind: SignupSecurityCheckFailed, Message: msg}
	}

	if field := p.str("field"); field != "" {
		return SignupResult{Kind: SignupConflict, Conflict: &Conflict{
			Field:            field,
			Action:           p.str("action"),
			CanResetPassword: p.flag("canResetPassword"),
			Message:          msg,
		}}
	}

	if !looksUserSafe(msg) {
		msg = MsgSignupFailed
	}
	return SignupResult{Kind: SignupFailure, Failure: &Failure{
		StatusCode: status,
		Code:       code,
		Message:    msg,
	}}
}

// classifyLoginMessage maps backend message substrings to fixed user-facing
// text, passes through messages that look safe to show, and otherwise falls
// back to a status-derived generic.
func classifyLoginMessage(status int, msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "no account"),
		strings.Contains(lower, "user not found"),
		strings.Contains(lower, "account not found"):
		return MsgNoAccount
	case strings.Contains(lower, "incorrect password"),
		strings.Contains(lower, "wrong password"),
		strings.Contains(lower, "invalid password"):
		return MsgIncorrectPassword
	case strings.Contains(lower, "locked"):
		return MsgAccountLocked
	}
	if looksUserSafe(msg) {
		return msg
	}
	return statusFallback(status)
}

// looksUserSafe filters out messages that smell like leaked internals.
func looksUserSafe(msg string) bool {
	if msg == "" || len(msg) > 160 {
		return false
	}
	if strings.ContainsAny(msg, "\n\r") {
		return false
	}
	lower := strings.ToLower(msg)
	for _, marker := range []string{"sql", "stack", "panic", "exception", "<html", "{", "goroutine"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

func statusFallback(status int) string {
	switch {
	case status == 401:
		return MsgInvalidCredentials
	case status == 403:
		return MsgAccessDenied
	case status == 404:
		return MsgNoAccount
	case status == 429:
		return MsgRateLimited
	case status >= 500:
		return MsgServerError
	default:
		return MsgLoginFailed
	}
}
