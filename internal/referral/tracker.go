package referral

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// codePattern bounds what we accept from the query string before it is
// shown back to the user or stored.
var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Normalize trims and upper-cases a referral code from the URL. It returns
// false for anything that does not look like a code.
func Normalize(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" || !codePattern.MatchString(code) {
		return "", false
	}
	return code, true
}

// Tracker records which referral code a session has already applied, so the
// "code applied" notification fires exactly once per session.
type Tracker interface {
	// Apply marks the code as applied for the session. The boolean reports
	// whether this call was the first application; repeat calls with the
	// same session return false and must not notify again.
	Apply(ctx context.Context, sessionID, code string) (bool, error)

	// Applied returns the code already recorded for the session, if any.
	Applied(ctx context.Context, sessionID string) (string, bool, error)
}

const appliedKeyPrefix = "referral:applied:v1:"

// RedisTracker guards the once-per-session flag with SETNX so concurrent
// page loads cannot both claim the first application.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTracker builds a Redis-backed tracker. The TTL should match the
// session lifetime.
func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) Apply(ctx context.Context, sessionID, code string) (bool, error) {
	first, err := t.client.SetNX(ctx, appliedKeyPrefix+sessionID, code, t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark referral applied: %w", err)
	}
	return first, nil
}

func (t *RedisTracker) Applied(ctx context.Context, sessionID string) (string, bool, error) {
	code, err := t.client.Get(ctx, appliedKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read referral flag: %w", err)
	}
	return code, true, nil
}

// MemoryTracker is the in-process fallback for tests and dev runs.
type MemoryTracker struct {
	mu    sync.Mutex
	codes map[string]string
}

// NewMemoryTracker builds an in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{codes: make(map[string]string)}
}

func (t *MemoryTracker) Apply(_ context.Context, sessionID, code string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.codes[sessionID]; ok {
		return false, nil
	}
	t.codes[sessionID] = code
	return true, nil
}

func (t *MemoryTracker) Applied(_ context.Context, sessionID string) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	code, ok := t.codes[sessionID]
	return code, ok, nil
}
