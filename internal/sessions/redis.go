package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vytor/sillychess/internal/logger"
	"github.com/vytor/sillychess/internal/models"
)

const keyPrefix = "sillychess:game:"

// RedisStore keeps game records as JSON values with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// OpenRedis parses url, connects and pings the server.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Default().WithPrefix("sessions").Info("connected to redis at %s", opts.Addr)
	return NewRedisStore(rdb, ttl), nil
}

func (s *RedisStore) key(id string) string { return keyPrefix + strings.TrimSpace(id) }

func (s *RedisStore) Get(ctx context.Context, id string) (*models.GameRecord, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec models.GameRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return ErrEmptyID
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(rec.ID), raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

// Ping is used by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
