package signup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrWizardNotFound is returned for unknown or expired wizard sessions.
var ErrWizardNotFound = errors.New("signup wizard not found")

// Store persists in-progress wizards between steps.
type Store interface {
	Save(ctx context.Context, w *Wizard) error
	Load(ctx context.Context, id string) (*Wizard, error)
	Delete(ctx context.Context, id string) error
}

const wizardKeyPrefix = "signup:wizard:v1:"

// RedisStore keeps wizards in Redis so a user can resume across requests.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed wizard store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Save(ctx context.Context, w *Wizard) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode wizard: %w", err)
	}
	if err := r.client.Set(ctx, wizardKeyPrefix+w.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store wizard: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Wizard, error) {
	raw, err := r.client.Get(ctx, wizardKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrWizardNotFound
		}
		return nil, fmt.Errorf("load wizard: %w", err)
	}
	var w Wizard
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("decode wizard: %w", err)
	}
	return &w, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, wizardKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete wizard: %w", err)
	}
	return nil
}

// MemoryStore keeps wizards in a map for tests and dev runs.
type MemoryStore struct {
	mu      sync.RWMutex
	wizards map[string]Wizard
}

// NewMemoryStore builds an in-memory wizard store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wizards: make(map[string]Wizard)}
}

func (m *MemoryStore) Save(_ context.Context, w *Wizard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wizards[w.ID] = *w
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Wizard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wizards[id]
	if !ok {
		return nil, ErrWizardNotFound
	}
	return &w, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.wizards, id)
	return nil
}
