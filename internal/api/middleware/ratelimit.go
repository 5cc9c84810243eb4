package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/metrics"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/ratelimit"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

// RateClassKey is the context key under which the limiter class is exposed
// to the request logger.
const RateClassKey = "rate_class"

// RateLimit admits or rejects the request before any bytes of the body are
// processed. Rejections carry Retry-After pointing at the next window.
func RateLimit(limiter *ratelimit.Limiter, class ratelimit.Class, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RateClassKey, string(class))
		key := ratelimit.ClientKey(c.GetHeader("X-Forwarded-For"), c.ClientIP())

		if err := limiter.Admit(c.Request.Context(), key, class); err != nil {
			if m != nil {
				m.RateLimited.Inc()
			}

			retryAfter := 1
			var ae *utils.AppError
			if errors.As(err, &ae) && ae.RetryAfterSeconds > 0 {
				retryAfter = ae.RetryAfterSeconds
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apiError{
				Code:    utils.CodeResourceExhausted,
				Message: "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
