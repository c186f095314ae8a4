// Package ratelimit implements a Redis token bucket shared by all instances.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	cfgpkg "github.com/fatflowers/admeter/pkg/config"
)

const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local nowData = redis.call("TIME")
local now = (nowData[1] * 1000) + math.floor(nowData[2] / 1000)

local data = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if tokens == nil then
  tokens = burst
  ts = now
else
  local delta = math.max(0, now - ts)
  tokens = math.min(burst, tokens + (delta / 1000) * rate)
  ts = now
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HMSET", KEYS[1], "tokens", tokens, "ts", ts)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens)}
`

const keyTrackFingerprint = "admeter:ratelimit:track:"

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(tokenBucketScript)}
}

// Allow takes one token from key's bucket.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*Result, error) {
	if t == nil || t.client == nil {
		return nil, errors.New("rate limiter not configured")
	}
	if key == "" {
		return nil, errors.New("rate limiter key is empty")
	}
	if rate <= 0 || burst <= 0 {
		return nil, errors.New("rate limiter rate and burst must be positive")
	}

	res, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, bucketTTL(rate, burst).Milliseconds()).Slice()
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, errors.New("invalid rate limit script response")
	}

	allowed, _ := res[0].(int64)
	// Lua numbers are truncated to integers on the way out, so tokens come back as a string.
	s, _ := res[1].(string)
	remaining, _ := strconv.ParseFloat(s, 64)

	out := &Result{Allowed: allowed == 1, Remaining: int(remaining)}
	if !out.Allowed {
		out.RetryAfter = time.Duration((1 - remaining) / rate * float64(time.Second))
	}
	return out, nil
}

func bucketTTL(rate float64, burst int) time.Duration {
	seconds := math.Max(1, math.Ceil(float64(burst)/rate*2))
	return time.Duration(seconds) * time.Second
}

// TrackLimiter throttles tracking calls per viewer fingerprint. A nil or
// disabled limiter allows everything.
type TrackLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewTrackLimiter(cfg *cfgpkg.Config, client *redis.Client) *TrackLimiter {
	if !cfg.RateLimit.Enabled || client == nil || cfg.RateLimit.TrackRate <= 0 || cfg.RateLimit.TrackBurst <= 0 {
		return nil
	}
	return &TrackLimiter{bucket: NewTokenBucket(client), rate: cfg.RateLimit.TrackRate, burst: cfg.RateLimit.TrackBurst}
}

func (l *TrackLimiter) Enabled() bool { return l != nil && l.bucket != nil }

func (l *TrackLimiter) Allow(ctx context.Context, fingerprint string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, keyTrackFingerprint+fingerprint, l.rate, l.burst)
}

var Module = fx.Options(
	fx.Provide(NewTrackLimiter),
)
