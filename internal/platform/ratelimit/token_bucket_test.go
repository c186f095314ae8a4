package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/fatflowers/admeter/pkg/config"
)

func TestNewTrackLimiter_DisabledCases(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	tests := []struct {
		name   string
		cfg    cfgpkg.RateLimitConfig
		client *redis.Client
	}{
		{"disabled", cfgpkg.RateLimitConfig{Enabled: false, TrackRate: 1, TrackBurst: 1}, client},
		{"no redis", cfgpkg.RateLimitConfig{Enabled: true, TrackRate: 1, TrackBurst: 1}, nil},
		{"zero rate", cfgpkg.RateLimitConfig{Enabled: true, TrackBurst: 1}, client},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewTrackLimiter(&cfgpkg.Config{RateLimit: tt.cfg}, tt.client)
			require.False(t, l.Enabled())
			res, err := l.Allow(context.Background(), "fp")
			require.NoError(t, err)
			require.True(t, res.Allowed)
		})
	}
}

func TestTokenBucket_UnreachableRedisErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	l := NewTrackLimiter(&cfgpkg.Config{RateLimit: cfgpkg.RateLimitConfig{Enabled: true, TrackRate: 1, TrackBurst: 2}}, client)
	require.True(t, l.Enabled())
	_, err := l.Allow(context.Background(), "fp")
	require.Error(t, err)
}

func TestBucketTTL(t *testing.T) {
	require.Equal(t, 40*time.Second, bucketTTL(1, 20))
	require.Equal(t, time.Second, bucketTTL(100, 1))
}

func newMiniredisClient(t *testing.T, now time.Time) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	mr.SetTime(now)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTokenBucket_ExhaustsAndRefills(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mr, client := newMiniredisClient(t, t0)
	bucket := NewTokenBucket(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := bucket.Allow(ctx, "k", 0.5, 2)
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.Equal(t, 1-i, res.Remaining)
	}

	res, err := bucket.Allow(ctx, "k", 0.5, 2)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 2*time.Second, res.RetryAfter)

	// other keys have their own bucket
	res, err = bucket.Allow(ctx, "other", 0.5, 2)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	mr.SetTime(t0.Add(2 * time.Second))
	res, err = bucket.Allow(ctx, "k", 0.5, 2)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Zero(t, res.Remaining)

	require.True(t, mr.Exists("k"))
	require.Equal(t, bucketTTL(0.5, 2), mr.TTL("k"))
}

func TestTrackLimiter_KeysByFingerprint(t *testing.T) {
	mr, client := newMiniredisClient(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	l := NewTrackLimiter(&cfgpkg.Config{RateLimit: cfgpkg.RateLimitConfig{Enabled: true, TrackRate: 1, TrackBurst: 1}}, client)

	res, err := l.Allow(context.Background(), "fp-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.True(t, mr.Exists(keyTrackFingerprint+"fp-1"))

	res, err = l.Allow(context.Background(), "fp-1")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, time.Second, res.RetryAfter)
}
