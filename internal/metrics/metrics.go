package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_login_outcomes_total",
		Help: "Login attempts by normalized outcome.",
	}, []string{"outcome"})

	signupOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_signup_outcomes_total",
		Help: "Signup submissions by normalized outcome.",
	}, []string{"outcome"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_backend_request_seconds",
		Help:    "Latency of calls to the platform backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "status"})
)

// Login outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomeMFARequired   = "mfa_required"
	OutcomeUnverified    = "email_unverified"
	OutcomePasswordReset = "password_reset_required"
	OutcomeFailed        = "failed"
	OutcomeNetworkError  = "network_error"
)

// LoginOutcome counts one login attempt.
func LoginOutcome(outcome string) {
	loginOutcomes.WithLabelValues(outcome).Inc()
}

// SignupOutcome counts one signup submission.
func SignupOutcome(outcome string) {
	signupOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveBackend records one backend call; status 0 means transport failure.
func ObserveBackend(op string, status int, elapsed time.Duration) {
	backendLatency.WithLabelValues(op, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the Prometheus scrape endpoint as a Fiber handler.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
