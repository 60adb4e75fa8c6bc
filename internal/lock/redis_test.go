// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// fakeRedis emulates SET NX and the compare-and-delete script.
type fakeRedis struct {
	mu   sync.Mutex
	keys map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[keys[0]] == args[0].(string) {
		delete(f.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) held(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	fake := newFakeRedis()
	l := newRedisLocker(fake, RedisConfig{TTL: time.Minute, RetryInterval: 5 * time.Millisecond}, zerolog.Nop())
	ctx := context.Background()

	release, err := l.Acquire(ctx, "user:1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !fake.held("tastegraph:lock:user:1") {
		t.Fatal("key not set with default prefix")
	}
	if fake.ttls["tastegraph:lock:user:1"] != time.Minute {
		t.Errorf("ttl = %v, want 1m", fake.ttls["tastegraph:lock:user:1"])
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(waitCtx, "user:1"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("second Acquire() error = %v, want ErrNotAcquired", err)
	}

	release()
	release()
	if fake.held("tastegraph:lock:user:1") {
		t.Fatal("key still held after release")
	}
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	fake := newFakeRedis()
	l := newRedisLocker(fake, RedisConfig{RetryInterval: 2 * time.Millisecond}, zerolog.Nop())
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	second, err := l.Acquire(waitCtx, "k")
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	second()
}

func TestRedisLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	fake := newFakeRedis()
	l := newRedisLocker(fake, RedisConfig{}, zerolog.Nop())
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Simulate TTL expiry and a new holder.
	fake.mu.Lock()
	fake.keys["tastegraph:lock:k"] = "someone-else"
	fake.mu.Unlock()

	stale()
	if !fake.held("tastegraph:lock:k") {
		t.Fatal("stale release deleted another holder's key")
	}
}

func TestRedisLocker_ClientError(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	l := newRedisLocker(fake, RedisConfig{}, zerolog.Nop())

	if _, err := l.Acquire(context.Background(), "k"); err == nil || errors.Is(err, ErrNotAcquired) {
		t.Fatalf("Acquire() error = %v, want client error", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close() without client error = %v", err)
	}
}
