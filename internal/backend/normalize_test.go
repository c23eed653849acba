package backend

import "testing"

func TestNormalizeLoginPasswordResetWins(t *testing.T) {
	// Other error fields present must not dilute the forced-reset outcome.
	body := []byte(`{"passwordResetRequired":true,"message":"invalid credentials","code":"AUTH_FAILED"}`)
	res := normalizeLogin(401, body, "a@b.com")
	if res.Kind != LoginPasswordResetRequired {
		t.Fatalf("expected password reset, got kind %d", res.Kind)
	}
	if res.Failure != nil {
		t.Fatalf("expected no failure payload, got %+v", res.Failure)
	}
}

func TestNormalizeLoginMFAKeyTolerance(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"upper id", `{"mfaRequired":true,"userID":"u-1"}`, "u-1"},
		{"lower id", `{"mfaRequired":true,"userId":"u-2"}`, "u-2"},
		{"nested under data", `{"data":{"mfaRequired":true,"userId":"u-3"}}`, "u-3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := normalizeLogin(200, []byte(tc.body), "a@b.com")
			if res.Kind != LoginMFARequired {
				t.Fatalf("expected mfa required, got kind %d", res.Kind)
			}
			if res.UserID != tc.want {
				t.Fatalf("expected user id %q, got %q", tc.want, res.UserID)
			}
		})
	}
}

func TestNormalizeLoginMFAWithoutUserIDFailsLoudly(t *testing.T) {
	res := normalizeLogin(200, []byte(`{"mfaRequired":true}`), "a@b.com")
	if res.Kind != LoginFailure {
		t.Fatalf("expected failure, got kind %d", res.Kind)
	}
	if res.Failure == nil || res.Failure.Message != MsgUnexpectedResponse {
		t.Fatalf("expected loud unexpected-response failure, got %+v", res.Failure)
	}
}

func TestNormalizeLoginSuccess(t *testing.T) {
	body := []byte(`{"token":"tok-1","user":{"id":"u-1","email":"a@b.com"}}`)
	res := normalizeLogin(200, body, "a@b.com")
	if res.Kind != LoginSuccess {
		t.Fatalf("expected success, got kind %d", res.Kind)
	}
	if res.Token != "tok-1" || res.User.ID != "u-1" {
		t.Fatalf("unexpected success payload: %+v", res)
	}
}

func TestNormalizeLoginSuccessNestedUnderData(t *testing.T) {
	body := []byte(`{"data":{"token":"tok-2","user":{"id":"u-2"}}}`)
	res := normalizeLogin(200, body, "a@b.com")
	if res.Kind != LoginSuccess || res.Token != "tok-2" {
		t.Fatalf("expected nested success, got %+v", res)
	}
}

func TestNormalizeLoginTwoHundredWithoutToken(t *testing.T) {
	res := normalizeLogin(200, []byte(`{}`), "a@b.com")
	if res.Kind != LoginFailure {
		t.Fatalf("tokenless 200 must not be treated as success, got kind %d", res.Kind)
	}
}

func TestNormalizeLoginUnverifiedEmail(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"status 403", 403, `{"message":"forbidden"}`},
		{"code", 401, `{"code":"EMAIL_NOT_VERIFIED"}`},
		{"flag", 401, `{"emailNotVerified":true}`},
		{"message", 401, `{"message":"Please verify your email before logging in"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := normalizeLogin(tc.status, []byte(tc.body), "User@Example.com")
			if res.Kind != LoginEmailUnverified {
				t.Fatalf("expected unverified email, got kind %d", res.Kind)
			}
			if res.Email != "User@Example.com" {
				t.Fatalf("expected submitted email retained, got %q", res.Email)
			}
		})
	}
}

func TestNormalizeLoginBareUnauthorizedFallback(t *testing.T) {
	// HTTP 401 with no structured body yields the exact fallback message.
	res := normalizeLogin(401, nil, "a@b.com")
	if res.Kind != LoginFailure {
		t.Fatalf("expected failure, got kind %d", res.Kind)
	}
	if res.Failure.Message != MsgInvalidCredentials {
		t.Fatalf("expected %q, got %q", MsgInvalidCredentials, res.Failure.Message)
	}
}

func TestClassifyLoginMessage(t *testing.T) {
	cases := []struct {
		name   string
		status int
		msg    string
		want   string
	}{
		{"no account substring", 400, "No account exists for that address", MsgNoAccount},
		{"incorrect password", 401, "Incorrect password entered", MsgIncorrectPassword},
		{"locked", 401, "account locked after repeated failures", MsgAccountLocked},
		{"user safe passthrough", 400, "Your session expired, please sign in again", "Your session expired, please sign in again"},
		{"leaky message falls back", 500, "pq: duplicate key value violates sql constraint", MsgServerError},
		{"rate limited", 429, "", MsgRateLimited},
		{"not found", 404, "", MsgNoAccount},
		{"server error", 503, "", MsgServerError},
		{"unknown status", 418, "", MsgLoginFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyLoginMessage(tc.status, tc.msg); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeVerify(t *testing.T) {
	ok := normalizeVerify(200, []byte(`{"token":"tok","user":{"id":"u-1"}}`))
	if ok.Kind != LoginSuccess || ok.Token != "tok" {
		t.Fatalf("expected success, got %+v", ok)
	}

	bad := normalizeVerify(401, []byte(`{}`))
	if bad.Kind != LoginFailure || bad.Failure.Message != MsgInvalidCode {
		t.Fatalf("expected invalid-code failure, got %+v", bad)
	}
}

func TestNormalizeSignupTurnstile(t *testing.T) {
	res := normalizeSignup(400, []byte(`{"code":"TURNSTILE_FAILED","message":"Security check failed."}`))
	if res.Kind != SignupSecurityCheckFailed {
		t.Fatalf("expected security check failure, got kind %d", res.Kind)
	}
	if res.Message != "Security check failed." {
		t.Fatalf("expected backend message verbatim, got %q", res.Message)
	}
}

func TestNormalizeSignupConflict(t *testing.T) {
	res := normalizeSignup(409, []byte(`{"field":"email","action":"login","canResetPassword":true,"message":"Email already registered"}`))
	if res.Kind != SignupConflict {
		t.Fatalf("expected conflict, got kind %d", res.Kind)
	}
	c := res.Conflict
	if c.Field != "email" || c.Action != "login" || !c.CanResetPassword {
		t.Fatalf("unexpected conflict payload: %+v", c)
	}
}

func TestNormalizeSignupGenericFallback(t *testing.T) {
	res := normalizeSignup(500, []byte(`{"message":"goroutine 12 panic at handler.go"}`))
	if res.Kind != SignupFailure {
		t.Fatalf("expected failure, got kind %d", res.Kind)
	}
	if res.Failure.Message != MsgSignupFailed {
		t.Fatalf("expected generic signup failure, got %q", res.Failure.Message)
	}
}

func TestNormalizeSignupCreated(t *testing.T) {
	if res := normalizeSignup(201, nil); res.Kind != SignupCreated {
		t.Fatalf("expected created, got kind %d", res.Kind)
	}
}
