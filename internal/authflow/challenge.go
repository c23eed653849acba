package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrChallengeNotFound is returned for unknown or expired MFA challenges.
var ErrChallengeNotFound = errors.New("mfa challenge not found")

// Challenge is a pending second-factor prompt: created when the backend
// answers mfa-required, consumed on a successful code submission. A failed
// submission leaves it in place.
type Challenge struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChallengeStore persists pending MFA challenges.
type ChallengeStore interface {
	Create(ctx context.Context, ch Challenge) error
	Get(ctx context.Context, id string) (Challenge, error)
	Delete(ctx context.Context, id string) error
}

const challengeKeyPrefix = "mfa:challenge:v1:"

// RedisChallengeStore keeps challenges in Redis with a bounded lifetime.
type RedisChallengeStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisChallengeStore builds a Redis-backed challenge store.
func NewRedisChallengeStore(client *redis.Client, ttl time.Duration) *RedisChallengeStore {
	return &RedisChallengeStore{client: client, ttl: ttl}
}

func (r *RedisChallengeStore) Create(ctx context.Context, ch Challenge) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := r.client.Set(ctx, challengeKeyPrefix+ch.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (r *RedisChallengeStore) Get(ctx context.Context, id string) (Challenge, error) {
	raw, err := r.client.Get(ctx, challengeKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, ErrChallengeNotFound
		}
		return Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	var ch Challenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return Challenge{}, fmt.Errorf("decode challenge: %w", err)
	}
	return ch, nil
}

func (r *RedisChallengeStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, challengeKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

// MemoryChallengeStore keeps challenges in a map for tests and dev runs.
type MemoryChallengeStore struct {
	mu         sync.RWMutex
	ttl        time.Duration
	challenges map[string]Challenge
}

// NewMemoryChallengeStore builds an in-memory challenge store.
func NewMemoryChallengeStore(ttl time.Duration) *MemoryChallengeStore {
	return &MemoryChallengeStore{ttl: ttl, challenges: make(map[string]Challenge)}
}

func (m *MemoryChallengeStore) Create(_ context.Context, ch Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[ch.ID] = ch
	return nil
}

func (m *MemoryChallengeStore) Get(_ context.Context, id string) (Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.challenges[id]
	if !ok {
		return Challenge{}, ErrChallengeNotFound
	}
	if m.ttl > 0 && time.Since(ch.CreatedAt) > m.ttl {
		return Challenge{}, ErrChallengeNotFound
	}
	return ch, nil
}

func (m *MemoryChallengeStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.challenges, id)
	return nil
}
