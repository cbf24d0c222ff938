package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/onixgym/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

type rateKeyContextKey struct{}

// RateLimitConfig configures a sliding window limiter
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc picks the bucket of a request. Defaults to the client IP
	// as resolved by gin's trusted proxy settings.
	KeyFunc func(*gin.Context) string
	Logger  *zap.Logger
}

// RateLimit adapts an httprate limiter to gin. Rejected requests get the
// ERR_RATE_LIMITED envelope; httprate sets the X-RateLimit-* and
// Retry-After headers.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	limiter := httprate.NewRateLimiter(cfg.Requests, cfg.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			key, _ := r.Context().Value(rateKeyContextKey{}).(string)
			return key, nil
		}),
		// The gin side writes the body once the chain reports a rejection.
		httprate.WithLimitHandler(func(http.ResponseWriter, *http.Request) {}),
	)

	return func(c *gin.Context) {
		key := keyFunc(c)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), rateKeyContextKey{}, key))

		passed := false
		limiter.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if passed {
			return
		}
		log.Warn("Rate limit exceeded",
			zap.String("key", key),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", GetRequestID(c)),
		)
		c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeRateLimited), dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRateLimited,
			"Too many requests. Please try again later.",
			GetRequestID(c),
		))
	}
}
