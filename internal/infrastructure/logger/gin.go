package logger

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GinMiddleware attaches logger to the request context and writes one
// access line per request. 5xx is logged at error and 4xx at warn.
// Successful requests to quietPaths, such as probes, are logged at debug.
func GinMiddleware(logger *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), logger))

		c.Next()

		status := c.Writer.Status()
		level := accessLevel(status)
		if level == zapcore.InfoLevel && slices.Contains(quietPaths, c.Request.URL.Path) {
			level = zapcore.DebugLevel
		}

		// auth runs after this middleware, so the principal fields are
		// only on the context now
		log := FromContext(c.Request.Context())
		ce := log.Check(level, "HTTP Request")
		if ce == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if private := c.Errors.ByType(gin.ErrorTypeAny); len(private) > 0 {
			fields = append(fields, zap.Strings("errors", private.Errors()))
		}
		ce.Write(fields...)
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

// Recovery turns a panic into a logged 500 in the API error envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		FromContextOr(c.Request.Context(), logger).Error("Panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("error", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "An internal error occurred"},
		})
	})
}
