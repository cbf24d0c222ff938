package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ginLoggerKey = "logger"

// GinMiddleware writes one access log entry per request. It also stores a
// logger tagged with method, path and request ID in the request context so
// services reach it through L(ctx). RequestID must run first.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		log := base.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		ctx := c.Request.Context()
		if id := c.GetString("request_id"); id != "" {
			ctx, log = WithRequestID(ctx, log, id)
		} else {
			ctx = WithContext(ctx, log)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(ginLoggerKey, log)

		c.Next()

		status := c.Writer.Status()
		// the JWT middleware replaces the request context, so the user is
		// read after the chain ran
		log.Log(accessLevel(status), "HTTP Request", accessFields(c, status, time.Since(start))...)
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func accessFields(c *gin.Context, status int, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()),
		zap.Int("body_size", c.Writer.Size()),
	}
	if q := c.Request.URL.RawQuery; q != "" {
		fields = append(fields, zap.String("query", q))
	}
	if userID := GetUserID(c.Request.Context()); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// Recovery turns a handler panic into a logged 500 in the API's error
// envelope.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		requestID := c.GetString("request_id")
		log.Error("Panic recovered",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":       "ERR_INTERNAL",
				"message":    "An internal error occurred",
				"request_id": requestID,
				"timestamp":  time.Now().UTC(),
			},
		})
	})
}

// GetGinLogger returns the request logger set by GinMiddleware
func GetGinLogger(c *gin.Context) *zap.Logger {
	if log, ok := c.Value(ginLoggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}
