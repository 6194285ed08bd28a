package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// RequestObserver logs each request and records it on m (m may be nil).
// Status and level endpoints are polled by dashboards, so only failures log above debug.
func RequestObserver(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		m.ObserveHTTPRequest(route, c.Request.Method, status, elapsed.Seconds())

		ctx := c.Request.Context()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.WarnCtx(ctx, "API request failed", fields...)
		default:
			logger.DebugCtx(ctx, "API request", fields...)
		}
	}
}

// Recovery turns a handler panic into the API's JSON error envelope
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.ErrorCtx(c.Request.Context(), fmt.Errorf("panic recovered: %v", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Internal server error",
				},
			})
		}()
		c.Next()
	}
}
