// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
)

// tokenBucket refills whole intervals since the last refill, then
// takes one token if any remain. Returns {allowed, remaining,
// retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// Config describes the bucket shape.
type Config struct {
	Enabled        bool
	Capacity       int64
	RefillTokens   int64
	RefillInterval time.Duration
	TTL            time.Duration

	// Prefix namespaces keys, e.g. "boxoffice:rl".
	Prefix string
}

// DefaultConfig allows bursts of 20 requests and 10 per second
// sustained.
func DefaultConfig() Config {
	return Config{
		Capacity:       20,
		RefillTokens:   10,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		Prefix:         "boxoffice:rl",
	}
}

// Decision is the outcome of one Take.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a Redis-backed token bucket keyed by peer.
type Limiter struct {
	client redis.Scripter
	config Config
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a limiter. A nil clock uses the wall clock; a nil logger
// discards.
func New(client redis.Scripter, cfg Config, clk clock.Clock, logger *slog.Logger) *Limiter {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Limiter{client: client, config: cfg, clock: clk, logger: logger}
}

// Allow consumes one token for peer. It satisfies service.Limiter.
func (l *Limiter) Allow(ctx context.Context, peer string) (bool, error) {
	decision, err := l.Take(ctx, peer)
	if err != nil {
		return true, err
	}
	if !decision.Allowed {
		l.logger.Debug("rate limit exceeded",
			"peer", peer,
			"retry_after", decision.RetryAfter,
		)
	}
	return decision.Allowed, nil
}

// Take runs the bucket script for peer and reports the decision.
func (l *Limiter) Take(ctx context.Context, peer string) (Decision, error) {
	if l == nil || l.client == nil || !l.config.Enabled {
		return Decision{Allowed: true}, nil
	}

	now := l.clock.Now()
	reply, err := tokenBucket.Run(ctx, l.client, []string{l.Key(peer)},
		now.UnixMilli(),
		l.config.Capacity,
		l.config.RefillTokens,
		l.config.RefillInterval.Milliseconds(),
		max(int64(l.config.TTL/time.Second), 1),
	).Result()
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit: running token bucket: %w", err)
	}

	values, ok := reply.([]any)
	if !ok || len(values) != 3 {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit: unexpected script reply %#v", reply)
	}
	return Decision{
		Allowed:    asInt64(values[0]) == 1,
		Remaining:  asInt64(values[1]),
		RetryAfter: time.Duration(asInt64(values[2])) * time.Millisecond,
	}, nil
}

// Key returns the Redis key for peer.
func (l *Limiter) Key(peer string) string {
	if peer == "" {
		peer = "unknown"
	}
	return l.config.Prefix + ":ip:" + peer
}

func asInt64(value any) int64 {
	switch number := value.(type) {
	case int64:
		return number
	case int:
		return int64(number)
	case float64:
		return int64(number)
	case string:
		if parsed, err := strconv.ParseInt(number, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

// RedisConfig locates the Redis server.
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL. When set it wins over Addr.
	URL      string
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	var options *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("ratelimit: parsing redis URL: %w", err)
		}
		options = parsed
	} else {
		addr := cfg.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		options = &redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB}
	}

	client := redis.NewClient(options)
	pingContext, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingContext).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ratelimit: connecting to redis at %s: %w", options.Addr, err)
	}
	return client, nil
}
