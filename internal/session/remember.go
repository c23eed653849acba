package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const deviceKeyPrefix = "device:trust:v1:"

// DeviceStore remembers trusted devices so a user who already completed an
// MFA challenge on a device can skip the next one. Only a bcrypt hash of the
// opaque token is kept at rest.
type DeviceStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeviceStore builds a Redis-backed trusted-device store.
func NewDeviceStore(client *redis.Client, ttl time.Duration) *DeviceStore {
	return &DeviceStore{client: client, ttl: ttl}
}

// Issue mints a fresh device token for the user and stores its hash.
func (d *DeviceStore) Issue(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate device token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash device token: %w", err)
	}
	if err := d.client.Set(ctx, deviceKeyPrefix+userID, hash, d.ttl).Err(); err != nil {
		return "", fmt.Errorf("store device token: %w", err)
	}
	return token, nil
}

// Verify reports whether the presented token matches the stored hash for the
// user. Any store error counts as not trusted.
func (d *DeviceStore) Verify(ctx context.Context, userID, token string) bool {
	if userID == "" || token == "" {
		return false
	}
	hash, err := d.client.Get(ctx, deviceKeyPrefix+userID).Result()
	if err != nil {
		// store errors count as not trusted; trusting on error would skip MFA
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// Revoke forgets the trusted device for a user.
func (d *DeviceStore) Revoke(ctx context.Context, userID string) error {
	if err := d.client.Del(ctx, deviceKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("revoke device token: %w", err)
	}
	return nil
}
