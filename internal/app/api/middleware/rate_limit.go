package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/admeter/internal/platform/ratelimit"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/response"
	"github.com/fatflowers/admeter/pkg/tool"
)

const ContextKeyFingerprint = "fingerprint"

// Fingerprint returns the viewer fingerprint for the request, computing and
// caching it on first use.
func Fingerprint(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyFingerprint); ok {
		if fp, ok := v.(string); ok {
			return fp
		}
	}
	fp := tool.Fingerprint(c.ClientIP(), c.Request.UserAgent())
	c.Set(ContextKeyFingerprint, fp)
	return fp
}

// TrackRateLimitMiddleware throttles tracking calls per viewer. Limiter
// errors let the request through.
func TrackRateLimitMiddleware(limiter *ratelimit.TrackLimiter, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}
		res, err := limiter.Allow(c.Request.Context(), Fingerprint(c))
		if err != nil {
			logctx.FromGin(c, base).Warnw("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorT[any](response.APIResponseCodeTooManyReqs, nil))
			return
		}
		c.Next()
	}
}
