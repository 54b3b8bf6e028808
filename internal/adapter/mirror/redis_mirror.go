package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "profile-service/internal/domain/profile"
)

// RedisMirror keeps the profile as a JSON document under a single redis key.
// The key never expires.
type RedisMirror struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

// NewRedisMirror creates a redis-backed mirror.
func NewRedisMirror(client *redis.Client, key string, log *zap.Logger) *RedisMirror {
	return &RedisMirror{
		client: client,
		key:    key,
		log:    log,
	}
}

// Save stores p, replacing any previous value.
func (m *RedisMirror) Save(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return errors.New("cannot mirror nil profile")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := m.client.Set(ctx, m.key, data, 0).Err(); err != nil {
		m.log.Error("failed to save mirror", zap.String("key", m.key), zap.Error(err))
		return fmt.Errorf("save mirror: %w", err)
	}

	m.log.Debug("profile mirrored", zap.String("key", m.key), zap.String("profile_id", p.ID))
	return nil
}

// Load returns the mirrored profile, or nil when nothing is stored.
func (m *RedisMirror) Load(ctx context.Context) (*domain.Profile, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		m.log.Error("failed to load mirror", zap.String("key", m.key), zap.Error(err))
		return nil, fmt.Errorf("load mirror: %w", err)
	}

	return decodeProfile(data)
}

// Clear removes the mirrored profile.
func (m *RedisMirror) Clear(ctx context.Context) error {
	if err := m.client.Del(ctx, m.key).Err(); err != nil {
		m.log.Error("failed to clear mirror", zap.String("key", m.key), zap.Error(err))
		return fmt.Errorf("clear mirror: %w", err)
	}

	m.log.Debug("mirror cleared", zap.String("key", m.key))
	return nil
}

func decodeProfile(data []byte) (*domain.Profile, error) {
	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode mirrored profile: %w", err)
	}
	return &p, nil
}
