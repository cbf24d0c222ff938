package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/onixgym/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// echoLength reads the whole body and reports what happened
	echoLength := func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusBadRequest, "truncated at %d", tooLarge.Limit)
			return
		}
		c.String(http.StatusOK, "%d", len(data))
	}

	tests := []struct {
		name          string
		limit         int64
		body          string
		contentLength int64
		status        int
		contains      string
	}{
		{"payment form within limit", 1024, `{"client_id":"x","month":3}`, 27, http.StatusOK, "27"},
		{"declared length over limit", 100, strings.Repeat("x", 200), 200, http.StatusRequestEntityTooLarge, dto.ErrCodeBodyTooLarge},
		{"chunked body over limit", 50, strings.Repeat("x", 100), -1, http.StatusBadRequest, "truncated at 50"},
		{"limit disabled", 0, strings.Repeat("x", 500), 500, http.StatusOK, "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(BodyLimit(tt.limit))
			router.POST("/payments", echoLength)

			req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}
