package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/careops/scheduler-api/pkg/errors"
)

// TimeoutConfig represents timeout middleware configuration
type TimeoutConfig struct {
	Duration time.Duration
}

// DefaultTimeoutConfig returns default timeout configuration
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Duration: 30 * time.Second,
	}
}

// Timeout caps how long a request may run by replacing the request context
// with a deadline-bound one. The handler chain runs on the request goroutine;
// when the deadline fires, handlers observing ctx.Done() bail out and the
// middleware writes the 504 — nothing keeps writing after the response.
func Timeout(config TimeoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), config.Duration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			appErr := apperrors.Timeout()
			c.AbortWithStatusJSON(appErr.StatusCode(), gin.H{
				"error":   string(appErr.Kind),
				"message": appErr.Message,
			})
		}
	}
}
