package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/admeter/internal/platform/ratelimit"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logctx"
)

func serviceToken(t *testing.T, secret string, method jwt.SigningMethod, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, &jwt.StandardClaims{
		Subject:   subject,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter(cfg *config.Config, seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ServiceAuthMiddleware(cfg, zap.NewNop().Sugar()))
	r.POST("/ads/get", func(c *gin.Context) {
		*seen = logctx.Caller(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func TestServiceAuthMiddleware(t *testing.T) {
	const secret = "s3cret"
	tests := []struct {
		name   string
		cfg    *config.Config
		header string
		code   int
		caller string
	}{
		{"valid token", &config.Config{Auth: config.AuthConfig{ServiceTokenSecret: secret}}, "Bearer " + serviceToken(t, secret, jwt.SigningMethodHS256, "ad-manager"), http.StatusOK, "ad-manager"},
		{"wrong secret", &config.Config{Auth: config.AuthConfig{ServiceTokenSecret: secret}}, "Bearer " + serviceToken(t, "other", jwt.SigningMethodHS256, "ad-manager"), http.StatusUnauthorized, ""},
		{"wrong algorithm", &config.Config{Auth: config.AuthConfig{ServiceTokenSecret: secret}}, "Bearer " + serviceToken(t, secret, jwt.SigningMethodHS512, "ad-manager"), http.StatusUnauthorized, ""},
		{"missing subject", &config.Config{Auth: config.AuthConfig{ServiceTokenSecret: secret}}, "Bearer " + serviceToken(t, secret, jwt.SigningMethodHS256, ""), http.StatusUnauthorized, ""},
		{"missing header", &config.Config{Auth: config.AuthConfig{ServiceTokenSecret: secret}}, "", http.StatusUnauthorized, ""},
		{"dev without secret", &config.Config{Env: config.EnvDev}, "", http.StatusOK, ""},
		{"prod without secret", &config.Config{Env: config.EnvProd}, "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := newAuthRouter(tt.cfg, &seen)
			req := httptest.NewRequest(http.MethodPost, "/ads/get", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.code, w.Code)
			require.Equal(t, tt.caller, seen)
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(zap.NewNop().Sugar()))
	var traceID string
	r.GET("/healthz", func(c *gin.Context) {
		traceID = logctx.TraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "req-1", traceID)
	require.Equal(t, "req-1", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, w.Header().Get(HeaderRequestID))
	require.Equal(t, traceID, w.Header().Get(HeaderRequestID))
}

func TestTrackRateLimitMiddleware_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	limiters := map[string]*ratelimit.TrackLimiter{
		"disabled":    ratelimit.NewTrackLimiter(&config.Config{}, client),
		"unreachable": ratelimit.NewTrackLimiter(&config.Config{RateLimit: config.RateLimitConfig{Enabled: true, TrackRate: 1, TrackBurst: 1}}, client),
	}
	for name, limiter := range limiters {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.Use(TrackRateLimitMiddleware(limiter, zap.NewNop().Sugar()))
			r.POST("/track/click", func(c *gin.Context) {
				require.NotEmpty(t, Fingerprint(c))
				c.Status(http.StatusOK)
			})
			for i := 0; i < 3; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/track/click", nil))
				require.Equal(t, http.StatusOK, w.Code)
			}
		})
	}
}

func TestTrackRateLimitMiddleware_RejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	mr.SetTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.NewTrackLimiter(&config.Config{RateLimit: config.RateLimitConfig{Enabled: true, TrackRate: 0.5, TrackBurst: 2}}, client)
	require.True(t, limiter.Enabled())

	r := gin.New()
	r.Use(TrackRateLimitMiddleware(limiter, zap.NewNop().Sugar()))
	handled := 0
	r.POST("/track/impression", func(c *gin.Context) {
		handled++
		c.Status(http.StatusOK)
	})

	send := func(ua string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/track/impression", nil)
		req.Header.Set("User-Agent", ua)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, send("viewer-a").Code)
	require.Equal(t, http.StatusOK, send("viewer-a").Code)

	w := send("viewer-a")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "2", w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), `"code":42900`)
	require.Equal(t, 2, handled)

	// a different viewer is not throttled by viewer-a's bucket
	require.Equal(t, http.StatusOK, send("viewer-b").Code)
	require.Equal(t, 3, handled)
}
