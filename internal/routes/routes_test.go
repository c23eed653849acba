package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stakehub/stakehub_gateway/internal/backend"
	"github.com/stakehub/stakehub_gateway/internal/config"
	"github.com/stakehub/stakehub_gateway/internal/logging"
)

// fakePlatform stands in for the remote backend.
type fakePlatform struct {
	mux *http.ServeMux
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{mux: http.NewServeMux()}
}

func (f *fakePlatform) handle(path string, status int, body string) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

func newTestApp(t *testing.T, platform *fakePlatform) *fiber.App {
	t.Helper()
	ts := httptest.NewServer(platform.mux)
	t.Cleanup(ts.Close)

	cfg := config.Config{
		AppName:         "test",
		AppEnv:          "development",
		Port:            "0",
		BackendURL:      ts.URL,
		BackendTimeout:  5 * time.Second,
		SessionTTL:      time.Hour,
		RememberTTL:     24 * time.Hour,
		SessionWait:     2 * time.Second,
		SessionPoll:     10 * time.Millisecond,
		MFAChallengeTTL: 5 * time.Minute,
		LoginPerMinute:  100,
		DefaultRedirect: "/dashboard",
	}

	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test %s: %v", path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginBare401YieldsExactFallbackMessage(t *testing.T) {
	platform := newFakePlatform()
	platform.handle("/api/v1/auth/login", http.StatusUnauthorized, "")
	app := newTestApp(t, platform)

	resp := postJSON(t, app, "/api/v1/auth/login", `{"email":"a@b.com","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["message"] != backend.MsgInvalidCredentials {
		t.Fatalf("expected exact fallback message, got %q", body["message"])
	}
	if _, hasRedirect := body["redirect"]; hasRedirect {
		t.Fatalf("failed login must not carry a redirect")
	}
	if findCookie(resp, "shub_session") != nil {
		t.Fatalf("failed login must not set a session cookie")
	}
}

func TestLoginSuccessEstablishesReadableSession(t *testing.T) {
	platform := newFakePlatform()
	platform.handle("/api/v1/auth/login", http.StatusOK,
		`{"token":"jwt-1","user":{"id":"u1","email":"a@b.com"}}`)
	app := newTestApp(t, platform)

	resp := postJSON(t, app, "/api/v1/auth/login?redirect=/wallet", `{"email":"A@B.com","password":"secret123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["status"] != "authenticated" {
		t.Fatalf("expected authenticated, got %v", body["status"])
	}
	if body["redirect"] != "/wallet" {
		t.Fatalf("expected sanitized redirect /wallet, got %v", body["redirect"])
	}

	cookie := findCookie(resp, "shub_session")
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected session cookie")
	}

	// The committed session is immediately readable.
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/session/me", nil)
	req.AddCookie(cookie)
	meResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("session/me: %v", err)
	}
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from session/me got %d", meResp.StatusCode)
	}
	me := decode(t, meResp)
	user, _ := me["user"].(map[string]any)
	if user["id"] != "u1" {
		t.Fatalf("unexpected user in session: %v", me)
	}
}

func TestLoginMaliciousRedirectFallsBackToDefault(t *testing.T) {
	platform := newFakePlatform()
	platform.handle("/api/v1/auth/login", http.StatusOK,
		`{"token":"jwt-1","user":{"id":"u1","email":"a@b.com"}}`)
	app := newTestApp(t, platform)

	resp := postJSON(t, app, "/api/v1/auth/login?redirect=https://evil.example", `{"email":"a@b.com","password":"secret123"}`)
	body := decode(t, resp)
	if body["redirect"] != "/dashboard" {
		t.Fatalf("expected default redirect, got %v", body["redirect"])
	}
}

func TestMFAChallengeRoundTrip(t *testing.T) {
	platform := newFakePlatform()
	platform.handle("/api/v1/auth/login", http.StatusOK, `{"mfaRequired":true,"userId":"u42"}`)
	platform.handle("/api/v1/auth/mfa/verify", http.StatusOK,
		`{"token":"jwt-2","user":{"id":"u42","email":"a@b.com"}}`)
	app := newTestApp(t, platform)

	resp := postJSON(t, app, "/api/v1/auth/login", `{"email":"a@b.com","password":"secret123"}`)
	body := decode(t, resp)
	if body["status"] != "mfa_required" {
		t.Fatalf("expected mfa_required, got %v", body)
	}
	challengeID, _ := body["challengeId"].(string)
	if challengeID == "" {
		t.Fatalf("expected a challenge id")
	}

	verify := postJSON(t, app, "/api/v1/auth/mfa/verify",
		`{"challengeId":"`+challengeID+`","code":"123456"}`)
	verifyBody := decode(t, verify)
	if verifyBody["status"] != "authenticated" {
		t.Fatalf("expected authenticated after verify, got %v", verifyBody)
	}
	if findCookie(verify, "shub_session") == nil {
		t.Fatalf("expected session cookie after MFA verify")
	}
}

func TestSignupTurnstileFailureExactMessage(t *testing.T) {
	platform := newFakePlatform()
	platform.handle("/api/v1/auth/signup", http.StatusBadRequest,
		`{"code":"TURNSTILE_FAILED","message":"Security check failed."}`)
	app := newTestApp(t, platform)

	wizardCookie := runWizardToFinal(t, app)

	resp := postJSON(t, app, "/api/v1/signup/submit", `{}`, wizardCookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["message"] != "Security check failed." {
		t.Fatalf("expected exact backend message, got %q", body["message"])
	}
	if body["resetChallenge"] != true {
		t.Fatalf("expected resetChallenge flag")
	}
	if strings.Contains(body["message"].(string), backend.MsgSignupFailed) {
		t.Fatalf("generic signup failure must not overlay the security message")
	}
}

func TestSignupCreatedClearsWizard(t *testing.T) {
	platform := newFakePlatform()
	platform.handle("/api/v1/auth/signup", http.StatusCreated, `{}`)
	app := newTestApp(t, platform)

	wizardCookie := runWizardToFinal(t, app)

	resp := postJSON(t, app, "/api/v1/signup/submit", `{}`, wizardCookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["redirect"] != "/verify-email" {
		t.Fatalf("expected verify-email redirect, got %v", body)
	}

	// The wizard is gone; a second submit has nothing to send.
	second := postJSON(t, app, "/api/v1/signup/submit", `{}`, wizardCookie)
	if second.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after wizard cleanup, got %d", second.StatusCode)
	}
}

func TestReferralAppliedOncePerSession(t *testing.T) {
	platform := newFakePlatform()
	app := newTestApp(t, platform)

	start := postJSON(t, app, "/api/v1/signup/start?ref=REF123", `{}`)
	body := decode(t, start)
	if body["referralApplied"] != true {
		t.Fatalf("expected referral applied on start, got %v", body)
	}
	cookie := findCookie(start, "shub_signup")
	if cookie == nil {
		t.Fatalf("expected signup cookie")
	}

	// Re-applying the same code in the same session reports false.
	resp := postJSON(t, app, "/api/v1/signup/referral", `{"code":"REF123"}`, cookie)
	applied := decode(t, resp)
	if applied["applied"] != false {
		t.Fatalf("expected applied=false on repeat, got %v", applied)
	}
}

func TestReferralNotReappliedOnRestart(t *testing.T) {
	platform := newFakePlatform()
	app := newTestApp(t, platform)

	start := postJSON(t, app, "/api/v1/signup/start?ref=REF123", `{}`)
	first := decode(t, start)
	if first["referralApplied"] != true {
		t.Fatalf("expected referral applied on first start, got %v", first)
	}
	cookie := findCookie(start, "shub_signup")
	if cookie == nil {
		t.Fatalf("expected signup cookie")
	}

	// Navigating back to signup with the same link resumes the wizard and
	// must not re-notify.
	again := postJSON(t, app, "/api/v1/signup/start?ref=REF123", `{}`, cookie)
	if again.StatusCode != http.StatusOK {
		t.Fatalf("expected resumed wizard (200), got %d", again.StatusCode)
	}
	second := decode(t, again)
	if _, notified := second["referralApplied"]; notified {
		t.Fatalf("same code re-notified on a repeat start: %v", second)
	}
	if resumed := findCookie(again, "shub_signup"); resumed != nil && resumed.Value != cookie.Value {
		t.Fatalf("expected the wizard to be resumed, got a fresh id")
	}
}

// runWizardToFinal walks a wizard through all three steps and returns its
// cookie.
func runWizardToFinal(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()
	start := postJSON(t, app, "/api/v1/signup/start", `{}`)
	cookie := findCookie(start, "shub_signup")
	if cookie == nil {
		t.Fatalf("expected signup cookie")
	}

	steps := []string{
		`{"email":"a@b.com","password":"longenough1","confirmPassword":"longenough1"}`,
		`{"firstName":"Ada","lastName":"Lovelace","username":"ada_l","phone":"+447911123456"}`,
		`{"acceptTerms":true,"turnstileToken":"tok-1"}`,
	}
	for i, step := range steps {
		resp := postJSON(t, app, "/api/v1/signup/step", step, cookie)
		if resp.StatusCode != http.StatusOK {
			payload, _ := io.ReadAll(resp.Body)
			t.Fatalf("step %d: status %d body %s", i+1, resp.StatusCode, payload)
		}
		resp.Body.Close()
	}
	return cookie
}
