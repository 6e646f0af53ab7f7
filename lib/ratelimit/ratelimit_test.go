// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
	"github.com/boxoffice-pos/boxoffice/lib/testutil"
)

var testEpoch = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

// fakeScripter evaluates the bucket in Go with the same arithmetic as
// the Lua script, recording the keys and arguments it was given.
type fakeScripter struct {
	mu      sync.Mutex
	buckets map[string]*fakeBucket
	keys    []string
	args    [][]any
	err     error
	reply   any
}

type fakeBucket struct {
	tokens     int64
	lastRefill int64
}

func (f *fakeScripter) evaluate(keys []string, args ...any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, keys...)
	f.args = append(f.args, args)
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	if f.reply != nil {
		return redis.NewCmdResult(f.reply, nil)
	}

	now, capacity, refill, interval := args[0].(int64), args[1].(int64), args[2].(int64), args[3].(int64)
	if f.buckets == nil {
		f.buckets = make(map[string]*fakeBucket)
	}
	bucket, exists := f.buckets[keys[0]]
	if !exists {
		bucket = &fakeBucket{tokens: capacity, lastRefill: now}
		f.buckets[keys[0]] = bucket
	}
	if interval > 0 && refill > 0 {
		intervals := max(0, now-bucket.lastRefill) / interval
		if intervals > 0 {
			bucket.tokens = min(capacity, bucket.tokens+intervals*refill)
			bucket.lastRefill += intervals * interval
		}
	}
	if bucket.tokens > 0 {
		bucket.tokens--
		return redis.NewCmdResult([]any{int64(1), bucket.tokens, int64(0)}, nil)
	}
	return redis.NewCmdResult([]any{int64(0), int64(0), max(0, interval-(now-bucket.lastRefill))}, nil)
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.evaluate(keys, args...)
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return f.evaluate(keys, args...)
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.evaluate(keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return f.evaluate(keys, args...)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Capacity = 3
	cfg.RefillTokens = 1
	cfg.RefillInterval = time.Second
	return cfg
}

func TestLimiterBurstThenRefill(t *testing.T) {
	scripter := &fakeScripter{}
	fakeClock := clock.Fake(testEpoch)
	limiter := New(scripter, testConfig(), fakeClock, nil)
	ctx := context.Background()

	for request := range 3 {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil || !allowed {
			t.Fatalf("request %d within burst: allowed=%v err=%v", request, allowed, err)
		}
	}

	decision, err := limiter.Take(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if decision.Allowed {
		t.Fatal("fourth request allowed past capacity 3")
	}
	if decision.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", decision.RetryAfter)
	}

	fakeClock.Advance(time.Second)
	if allowed, err := limiter.Allow(ctx, "10.0.0.1"); err != nil || !allowed {
		t.Errorf("after refill: allowed=%v err=%v", allowed, err)
	}

	// Other peers have their own bucket.
	if allowed, err := limiter.Allow(ctx, "10.0.0.2"); err != nil || !allowed {
		t.Errorf("second peer: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterScriptArguments(t *testing.T) {
	scripter := &fakeScripter{}
	cfg := testConfig()
	cfg.TTL = 90 * time.Second
	limiter := New(scripter, cfg, clock.Fake(testEpoch), nil)

	if _, err := limiter.Take(context.Background(), "192.0.2.7"); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if len(scripter.keys) != 1 || scripter.keys[0] != "boxoffice:rl:ip:192.0.2.7" {
		t.Errorf("keys = %v", scripter.keys)
	}
	args := scripter.args[0]
	want := []any{testEpoch.UnixMilli(), int64(3), int64(1), int64(1000), int64(90)}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for index := range want {
		if args[index] != want[index] {
			t.Errorf("arg %d = %v (%T), want %v", index, args[index], args[index], want[index])
		}
	}
}

func TestLimiterFailsOpen(t *testing.T) {
	scripter := &fakeScripter{err: errors.New("dial tcp: connection refused")}
	limiter := New(scripter, testConfig(), clock.Fake(testEpoch), nil)

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	if err == nil {
		t.Error("Allow should report the redis failure")
	}
	if !allowed {
		t.Error("redis failure must allow the request")
	}
}

func TestLimiterRejectsUnexpectedReply(t *testing.T) {
	scripter := &fakeScripter{reply: "OK"}
	limiter := New(scripter, testConfig(), clock.Fake(testEpoch), nil)

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	if err == nil || !allowed {
		t.Errorf("unexpected reply: allowed=%v err=%v; want allowed with error", allowed, err)
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	scripter := &fakeScripter{}
	cfg := testConfig()
	cfg.Enabled = false

	for name, limiter := range map[string]*Limiter{
		"disabled":   New(scripter, cfg, nil, nil),
		"nil client": New(nil, testConfig(), nil, nil),
		"nil":        nil,
	} {
		for range 10 {
			allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
			if err != nil || !allowed {
				t.Fatalf("%s limiter: allowed=%v err=%v", name, allowed, err)
			}
		}
	}
	if len(scripter.args) != 0 {
		t.Errorf("disabled limiter called redis %d times", len(scripter.args))
	}
}

func TestKeyForEmptyPeer(t *testing.T) {
	limiter := New(nil, testConfig(), nil, nil)
	if key := limiter.Key(""); key != "boxoffice:rl:ip:unknown" {
		t.Errorf("Key(\"\") = %q", key)
	}
}

// TestTokenBucketAgainstRedis runs the Lua script on a real server when
// BOXOFFICE_TEST_REDIS_ADDR names one.
func TestTokenBucketAgainstRedis(t *testing.T) {
	addr := os.Getenv("BOXOFFICE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOXOFFICE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	cfg := testConfig()
	cfg.Prefix = testutil.UniqueID("boxoffice-test")
	limiter := New(client, cfg, clock.Fake(testEpoch), nil)

	for request := range 3 {
		if allowed, err := limiter.Allow(ctx, "10.0.0.1"); err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v", request, allowed, err)
		}
	}
	if allowed, err := limiter.Allow(ctx, "10.0.0.1"); err != nil || allowed {
		t.Errorf("over budget: allowed=%v err=%v", allowed, err)
	}
	client.Del(ctx, limiter.Key("10.0.0.1"))
}
