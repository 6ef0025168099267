package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/service"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/ratelimit"
	"github.com/noah-isme/coursehub-api/pkg/response"
)

// RateLimit rejects requests over the class threshold for the client IP with
// 429. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, class ratelimit.Class, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		result, err := limiter.Allow(c.Request.Context(), class, c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("class", string(class)), zap.Error(err))
			c.Next()
			return
		}

		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if result.Allowed {
			c.Next()
			return
		}

		retry := int(math.Ceil(result.RetryAfter.Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(retry)*time.Second).Unix(), 10))
		metrics.RecordRateLimited(string(class))
		response.Abort(c, appErrors.ErrRateLimited)
	}
}
