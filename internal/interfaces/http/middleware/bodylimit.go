package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onixgym/backend/internal/interfaces/http/dto"
)

// BodyLimit answers 413 when the declared Content-Length is above maxBytes
// and wraps the body so undeclared (chunked) bodies stop at the same size.
// maxBytes <= 0 turns the limit off.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeBodyTooLarge), dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBodyTooLarge, "Request body is too large", GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
