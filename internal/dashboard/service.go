package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/stakehub/stakehub_gateway/internal/backend"
)

const (
	readTTL   = 15 * time.Second
	healthTTL = 5 * time.Second
)

// BackendReads is the slice of the backend client the dashboard uses.
type BackendReads interface {
	Wallet(ctx context.Context, token string) (backend.Raw, error)
	Team(ctx context.Context, token string) (backend.Raw, error)
	Signals(ctx context.Context, token, window string) (backend.Raw, error)
	AssistantMessage(ctx context.Context, token, text string) (string, error)
	HealthCheck(ctx context.Context) (backend.Health, error)
}

// Pinger reports whether an infrastructure dependency answers. A nil Pinger
// means the dependency is not configured and is skipped.
type Pinger func(ctx context.Context) error

// Service serves dashboard reads with a short per-user micro-cache. The
// cache only absorbs refresh storms; it is never a source of truth, so
// entries expire in seconds and errors are never cached.
type Service struct {
	backend BackendReads
	cache   *cache.Cache
	logger  *slog.Logger

	pingRedis    Pinger
	pingDatabase Pinger
}

// NewService wires the dashboard read service. redisPing and dbPing may be
// nil when the corresponding dependency is not configured.
func NewService(b BackendReads, logger *slog.Logger, redisPing, dbPing Pinger) *Service {
	return &Service{
		backend:      b,
		cache:        cache.New(readTTL, time.Minute),
		logger:       logger,
		pingRedis:    redisPing,
		pingDatabase: dbPing,
	}
}

// Wallet returns the caller's wallet summary.
func (s *Service) Wallet(ctx context.Context, userID, token string) (backend.Raw, error) {
	return s.cachedRead(ctx, "wallet:"+userID, token, s.backend.Wallet)
}

// Team returns the caller's referral team tree.
func (s *Service) Team(ctx context.Context, userID, token string) (backend.Raw, error) {
	return s.cachedRead(ctx, "team:"+userID, token, s.backend.Team)
}

// Signals returns trading-signal history for the given window selector.
func (s *Service) Signals(ctx context.Context, userID, token, window string) (backend.Raw, error) {
	key := "signals:" + userID + ":" + window
	return s.cachedRead(ctx, key, token, func(ctx context.Context, token string) (backend.Raw, error) {
		return s.backend.Signals(ctx, token, window)
	})
}

func (s *Service) cachedRead(ctx context.Context, key, token string, fetch func(context.Context, string) (backend.Raw, error)) (backend.Raw, error) {
	if hit, ok := s.cache.Get(key); ok {
		return hit.(backend.Raw), nil
	}
	payload, err := fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, payload, readTTL)
	return payload, nil
}

// Assistant relays one chat message and returns the reply. Replies are never
// cached.
func (s *Service) Assistant(ctx context.Context, token, text string) (string, error) {
	return s.backend.AssistantMessage(ctx, token, text)
}

// Component names used in health reports.
const (
	ComponentBackend  = "backend"
	ComponentRedis    = "redis"
	ComponentDatabase = "database"
)

// ComponentHealth is one dependency's slice of a health report.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthReport aggregates the gateway's dependencies. Healthy requires the
// backend and every configured infrastructure dependency to answer.
type HealthReport struct {
	Healthy    bool                       `json:"healthy"`
	Components map[string]ComponentHealth `json:"components"`
}

// Health builds the aggregate report. The backend probe is cached briefly so
// load-balancer polling does not hammer the backend; Redis and Postgres
// pings are local and always fresh.
func (s *Service) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Healthy:    true,
		Components: make(map[string]ComponentHealth),
	}

	report.Components[ComponentBackend] = s.backendHealth(ctx)

	if s.pingRedis != nil {
		report.Components[ComponentRedis] = pingHealth(ctx, s.pingRedis)
	}
	if s.pingDatabase != nil {
		report.Components[ComponentDatabase] = pingHealth(ctx, s.pingDatabase)
	}

	for _, c := range report.Components {
		if !c.Healthy {
			report.Healthy = false
		}
	}
	return report
}

const healthCacheKey = "health:backend"

func (s *Service) backendHealth(ctx context.Context) ComponentHealth {
	if hit, ok := s.cache.Get(healthCacheKey); ok {
		return hit.(ComponentHealth)
	}

	var c ComponentHealth
	h, err := s.backend.HealthCheck(ctx)
	if err != nil {
		s.logger.Warn("backend health check failed", slog.String("error", err.Error()))
		c = ComponentHealth{Healthy: false, Message: "backend unreachable"}
	} else {
		c = ComponentHealth{Healthy: h.IsHealthy, Message: h.Message}
	}

	s.cache.Set(healthCacheKey, c, healthTTL)
	return c
}

func pingHealth(ctx context.Context, ping Pinger) ComponentHealth {
	if err := ping(ctx); err != nil {
		return ComponentHealth{Healthy: false, Message: err.Error()}
	}
	return ComponentHealth{Healthy: true}
}
