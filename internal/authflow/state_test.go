package authflow

import "testing"

func TestFlowHappyPath(t *testing.T) {
	f := NewFlow()
	if err := f.BeginSubmit(); err != nil {
		t.Fatalf("begin submit: %v", err)
	}
	if err := f.Succeed("/dashboard"); err != nil {
		t.Fatalf("succeed: %v", err)
	}
	if f.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", f.State())
	}
}

func TestFlowDoubleSubmitRejected(t *testing.T) {
	f := NewFlow()
	if err := f.BeginSubmit(); err != nil {
		t.Fatalf("begin submit: %v", err)
	}
	if err := f.BeginSubmit(); err == nil {
		t.Fatalf("expected second submit while pending to be rejected")
	}
}

func TestFlowRetryAfterFailure(t *testing.T) {
	f := NewFlow()
	_ = f.BeginSubmit()
	if err := f.Fail("nope"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if f.Message() != "nope" {
		t.Fatalf("expected failure message retained, got %q", f.Message())
	}
	// User re-clicks submit.
	if err := f.BeginSubmit(); err != nil {
		t.Fatalf("resubmit after failure: %v", err)
	}
	if f.Message() != "" {
		t.Fatalf("expected failure message cleared on resubmit")
	}
}

func TestFlowVariantsAreExclusive(t *testing.T) {
	f := NewFlow()
	_ = f.BeginSubmit()
	if err := f.RequireMFA("ch-1"); err != nil {
		t.Fatalf("require mfa: %v", err)
	}
	if f.ChallengeID() != "ch-1" || f.Email() != "" || f.Message() != "" {
		t.Fatalf("expected only challenge data set: %+v", f)
	}

	if err := f.BeginMFASubmit(); err != nil {
		t.Fatalf("begin mfa submit: %v", err)
	}
	if err := f.Succeed("/next"); err != nil {
		t.Fatalf("mfa success: %v", err)
	}
	// Transitioning to authenticated clears the challenge.
	if f.ChallengeID() != "" {
		t.Fatalf("expected challenge cleared after success")
	}
}

func TestFlowMFARetainsChallengeOnRetry(t *testing.T) {
	f := NewFlow()
	_ = f.BeginSubmit()
	_ = f.RequireMFA("ch-1")
	_ = f.BeginMFASubmit()
	if err := f.RetryMFA("wrong code"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.State() != StateAwaitingMFA {
		t.Fatalf("expected to remain awaiting mfa, got %s", f.State())
	}
	if f.ChallengeID() != "ch-1" {
		t.Fatalf("expected challenge retained")
	}
	// And another attempt is allowed.
	if err := f.BeginMFASubmit(); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
}

func TestFlowBlockedStates(t *testing.T) {
	f := NewFlow()
	_ = f.BeginSubmit()
	if err := f.BlockEmailUnverified("a@b.com"); err != nil {
		t.Fatalf("block unverified: %v", err)
	}
	if f.Email() != "a@b.com" {
		t.Fatalf("expected submitted email captured")
	}
	// MFA cannot start from a blocked state.
	if err := f.BeginMFASubmit(); err == nil {
		t.Fatalf("expected transition out of blocked state to fail")
	}
}

func TestConsumeRedirectIsOneShot(t *testing.T) {
	f := NewFlow()
	_ = f.BeginSubmit()
	_ = f.Succeed("/wallet")

	if got := f.ConsumeRedirect(); got != "/wallet" {
		t.Fatalf("expected /wallet, got %q", got)
	}
	if got := f.ConsumeRedirect(); got != "" {
		t.Fatalf("expected second consume to be empty, got %q", got)
	}
}

func TestConsumeRedirectOnlyWhenAuthenticated(t *testing.T) {
	f := NewFlow()
	_ = f.BeginSubmit()
	_ = f.Fail("nope")
	if got := f.ConsumeRedirect(); got != "" {
		t.Fatalf("expected no redirect from failed flow, got %q", got)
	}
}
