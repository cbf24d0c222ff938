// Package testutil holds helpers shared by the integration tests: an HTTP
// client for the assembled API and polling helpers for the outbox.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ContextWithTimeout is cancelled at the deadline or when the test ends
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// WaitForCondition checks condition every interval until it holds. It
// reports false once timeout has passed, after one last check.
func WaitForCondition(condition func() bool, timeout, interval time.Duration) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for {
		if condition() {
			return true
		}
		select {
		case <-ticker.C:
		case <-deadline:
			return condition()
		}
	}
}
