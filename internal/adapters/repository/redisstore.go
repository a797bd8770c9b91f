package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/okian/lensfit/internal/domain/model"
	"github.com/okian/lensfit/pkg/metrics"
)

const (
	pingTimeout   = 5 * time.Second
	scanBatchSize = 100
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisStore keeps sessions as JSON values under a key prefix. Expiry is
// delegated to Redis key TTLs and refreshed on every Get and Save. The
// session count is not bounded; WithMaxSessions is ignored.
type RedisStore struct {
	cfg    settings
	client redis.UniversalClient
}

// NewRedisStore wraps client and verifies the connection. The store owns the
// client and closes it on Close.
func NewRedisStore(ctx context.Context, client redis.UniversalClient, opts ...Option) (*RedisStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{cfg: cfg, client: client}, nil
}

func (s *RedisStore) key(id string) string {
	return s.cfg.keyPrefix + id
}

// Create implements Store.Create.
func (s *RedisStore) Create(ctx context.Context, session model.Session) error {
	defer observe("create", time.Now())
	if session.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSession)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	ok, err := s.client.SetNX(ctx, s.key(session.ID), data, s.cfg.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx %s: %w", session.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrExists, session.ID)
	}
	return nil
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, id string) (model.Session, error) {
	defer observe("get", time.Now())

	data, err := s.client.GetEx(ctx, s.key(id), s.cfg.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("redis get %s: %w", id, err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return model.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

// Save implements Store.Save.
func (s *RedisStore) Save(ctx context.Context, session model.Session) error {
	defer observe("save", time.Now())

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	ok, err := s.client.SetXX(ctx, s.key(session.ID), data, s.cfg.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setxx %s: %w", session.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, session.ID)
	}
	return nil
}

// Delete implements Store.Delete.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	defer observe("delete", time.Now())

	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count implements Store.Count by scanning the key prefix. Errors yield the
// partial count seen so far.
func (s *RedisStore) Count(ctx context.Context) int {
	total := 0
	iter := s.client.Scan(ctx, 0, s.cfg.keyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		total++
	}
	if iter.Err() != nil {
		metrics.RecordErrorByComponent("repository", "redis_scan")
	}
	metrics.UpdateSessionsActive(total)
	return total
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
