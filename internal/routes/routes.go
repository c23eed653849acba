package routes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stakehub/stakehub_gateway/internal/audit"
	"github.com/stakehub/stakehub_gateway/internal/authflow"
	"github.com/stakehub/stakehub_gateway/internal/backend"
	"github.com/stakehub/stakehub_gateway/internal/config"
	"github.com/stakehub/stakehub_gateway/internal/dashboard"
	"github.com/stakehub/stakehub_gateway/internal/logging"
	"github.com/stakehub/stakehub_gateway/internal/metrics"
	"github.com/stakehub/stakehub_gateway/internal/middleware"
	"github.com/stakehub/stakehub_gateway/internal/referral"
	"github.com/stakehub/stakehub_gateway/internal/session"
	"github.com/stakehub/stakehub_gateway/internal/signup"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all gateway routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(logging.Component(d.Logger, "http")))

	client := backend.New(d.Cfg.BackendURL, d.Cfg.BackendTimeout, logging.Component(d.Logger, "backend")).
		WithObserver(metrics.ObserveBackend)

	// Stores fall back to in-process memory without Redis (dev only).
	var (
		sessions   session.Store
		challenges authflow.ChallengeStore
		wizards    signup.Store
		tracker    referral.Tracker
		devices    authflow.DeviceTokens
	)
	if d.Cache != nil {
		sessions = session.NewRedisStore(d.Cache)
		challenges = authflow.NewRedisChallengeStore(d.Cache, d.Cfg.MFAChallengeTTL)
		wizards = signup.NewRedisStore(d.Cache, d.Cfg.SessionTTL)
		tracker = referral.NewRedisTracker(d.Cache, d.Cfg.SessionTTL)
		devices = session.NewDeviceStore(d.Cache, d.Cfg.RememberTTL)
	} else {
		sessions = session.NewMemoryStore()
		challenges = authflow.NewMemoryChallengeStore(d.Cfg.MFAChallengeTTL)
		wizards = signup.NewMemoryStore()
		tracker = referral.NewMemoryTracker()
	}

	var auditRepo audit.Repository
	if d.DB != nil {
		auditRepo = audit.NewPostgresRepository(d.DB)
	} else {
		auditRepo = audit.NewMemoryRepository()
	}
	recorder := audit.NewRecorder(auditRepo, logging.Component(d.Logger, "audit"))

	authSvc := authflow.NewService(client, sessions, challenges, devices, recorder,
		logging.Component(d.Logger, "authflow"), authflow.Options{
			SessionTTL:      d.Cfg.SessionTTL,
			RememberTTL:     d.Cfg.RememberTTL,
			SessionWait:     d.Cfg.SessionWait,
			SessionPoll:     d.Cfg.SessionPoll,
			DefaultRedirect: d.Cfg.DefaultRedirect,
		})
	signupSvc := signup.NewService(client, recorder, logging.Component(d.Logger, "signup"))

	var redisPing, dbPing dashboard.Pinger
	if d.Cache != nil {
		redisPing = func(ctx context.Context) error { return d.Cache.Ping(ctx).Err() }
	}
	if d.DB != nil {
		dbPing = func(ctx context.Context) error { return d.DB.Ping(ctx) }
	}
	dashSvc := dashboard.NewService(client, logging.Component(d.Logger, "dashboard"), redisPing, dbPing)

	registerHealthRoutes(app, dashSvc)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	registerAuthRoutes(api, authSvc, d.Cache, d.Cfg, d.Logger)
	registerSignupRoutes(api, signupSvc, wizards, tracker, d.Cache, d.Logger)

	protected := api.Group("", middleware.SessionAuth(sessions))
	registerSessionRoutes(protected)
	registerDashboardRoutes(protected, dashSvc)

	return nil
}
