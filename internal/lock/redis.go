// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only when it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// redisClient is the subset of *redis.Client used by RedisLocker.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisConfig configures the distributed locker.
type RedisConfig struct {
	// Addr is host:port of the Redis server.
	Addr     string `koanf:"addr" json:"addr"`
	Password string `koanf:"password" json:"-"`
	DB       int    `koanf:"db" json:"db"`

	// Prefix namespaces lock keys. Default: "tastegraph:lock:".
	Prefix string `koanf:"prefix" json:"prefix"`

	// TTL bounds how long a crashed holder keeps a key. Default: 5m.
	TTL time.Duration `koanf:"ttl" json:"ttl"`

	// RetryInterval is the polling interval while waiting. Default: 100ms.
	RetryInterval time.Duration `koanf:"retry_interval" json:"retry_interval"`
}

// RedisLocker is a Locker shared by every replica through Redis SET NX.
// Keys expire after TTL so a crashed holder cannot block a user forever.
type RedisLocker struct {
	client redisClient
	closer func() error
	cfg    RedisConfig
	logger zerolog.Logger
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker connects to Redis and verifies the connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRedisLocker(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	l := newRedisLocker(client, cfg, logger)
	l.closer = client.Close
	l.logger.Info().Str("addr", cfg.Addr).Msg("Redis locker connected")
	return l, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newRedisLocker(client redisClient, cfg RedisConfig, logger zerolog.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "tastegraph:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}
	return &RedisLocker{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "redis-lock").Logger(),
	}
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	fullKey := l.cfg.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		}
	}
}

func (l *RedisLocker) releaser(key, token string) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock, it will expire")
			}
		})
	}
}

// Close closes the Redis connection.
func (l *RedisLocker) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}
