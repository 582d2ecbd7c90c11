// Package handler provides the HTTP host surface for the ChatGPT UDF.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hpn/hpn-chatgpt-udf/internal/ui"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// requestIDContextKey stores the request ID in the request context.
type requestIDContextKey struct{}

// Gin context keys set by handlers and read by LoggingMiddleware.
const (
	ctxKeyRequestID  = "request_id"
	ctxKeyRows       = "rows"
	ctxKeyFailedRows = "failed_rows"
	ctxKeyAttempts   = "attempts"
)

// RequestIDFromContext returns the request ID stored by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// CORSMiddleware returns a middleware that enables permissive CORS.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, "+RequestIDHeader)
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Header("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware reuses the client's X-Request-ID or generates one, stores
// it in the request context and echoes it in the response header.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(ctxKeyRequestID, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDContextKey{}, requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// LoggingMiddleware logs one structured line per request, including batch
// statistics when the handler recorded them. With console enabled it also
// prints a colored summary line.
func LoggingMiddleware(logger *slog.Logger, console bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		rows := c.GetInt(ctxKeyRows)
		failed := c.GetInt(ctxKeyFailedRows)

		logger.Info("request completed",
			slog.String("request_id", c.GetString(ctxKeyRequestID)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("rows", rows),
			slog.Int("failed_rows", failed),
			slog.Int("attempts", c.GetInt(ctxKeyAttempts)),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		if console {
			ui.PrintRequest(c.Request.Method, path, c.Writer.Status(), latency, rows, failed)
		}
	}
}

// RecoveryMiddleware recovers from panics and answers 500 in the same error
// envelope as every other failure.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
					slog.String("request_id", c.GetString(ctxKeyRequestID)),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(
					"Internal server error", "server_error", "internal_error"))
			}
		}()

		c.Next()
	}
}

// StripAuthHeadersMiddleware drops client-supplied credentials. The UDF only
// uses the key from its own credential chain.
func StripAuthHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range []string{"Authorization", "X-Api-Key", "Openai-Api-Key"} {
			c.Request.Header.Del(h)
		}
		c.Next()
	}
}
