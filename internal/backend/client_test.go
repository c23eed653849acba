package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stakehub/stakehub_gateway/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, logging.Discard())
}

func TestLoginPayloadOmitsRememberMe(t *testing.T) {
	var captured map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":"u-1"}}`))
	})

	res, err := client.Login(context.Background(), "  User@Example.COM ", "secret", "")
	require.NoError(t, err)
	require.Equal(t, LoginSuccess, res.Kind)

	// The key must be absent entirely, not present as false.
	_, hasRemember := captured["rememberMe"]
	require.False(t, hasRemember)
	require.Len(t, captured, 2)

	var email string
	require.NoError(t, json.Unmarshal(captured["email"], &email))
	require.Equal(t, "user@example.com", email)
}

func TestLoginNetworkErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := New(srv.URL, time.Second, logging.Discard())
	srv.Close()

	_, err := client.Login(context.Background(), "a@b.com", "pw", "")
	require.Error(t, err)
	require.True(t, IsNetwork(err))
}

func TestSignupNormalizesEmail(t *testing.T) {
	var captured SignupPayload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	})

	res, err := client.Signup(context.Background(), SignupPayload{
		Email:    " Mixed@Case.IO ",
		Password: "pw123456",
	})
	require.NoError(t, err)
	require.Equal(t, SignupCreated, res.Kind)
	require.Equal(t, "mixed@case.io", captured.Email)
}

func TestVerifyMFASendsRetainedUserID(t *testing.T) {
	var captured verifyRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":"u-9"}}`))
	})

	res, err := client.VerifyMFA(context.Background(), "u-9", "123456")
	require.NoError(t, err)
	require.Equal(t, LoginSuccess, res.Kind)
	require.Equal(t, "u-9", captured.UserID)
	require.Equal(t, "123456", captured.Token)
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isHealthy":true,"message":"all systems go"}`))
	})

	h, err := client.HealthCheck(context.Background())
	require.NoError(t, err)
	require.True(t, h.IsHealthy)
	require.Equal(t, "all systems go", h.Message)
}

func TestProxyGetRejectsInvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	})

	_, err := client.Wallet(context.Background(), "tok")
	require.Error(t, err)
	var se *ServerError
	require.ErrorAs(t, err, &se)
}
