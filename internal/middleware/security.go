// Package middleware holds the gin middleware shared by the HTTP surface.
package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/symptom-intake-server/internal/logging"
)

// Header names carrying the request correlation id.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// CorrelationKey is the gin context key holding the correlation id.
const CorrelationKey = "correlation_id"

// SecurityHeaders adds security headers to all responses. Strict-Transport-Security
// is sent only when hsts is set.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")

		if hsts {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// CorrelationID tags every request with a correlation id. An incoming
// X-Request-ID or X-Correlation-ID header is reused, otherwise a new id is
// generated. The id is echoed in the response and attached to the request
// context for logging.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = c.GetHeader(HeaderCorrelationID)
		}
		if id == "" {
			id = logging.NewCorrelationID()
		}

		c.Set(CorrelationKey, id)
		c.Request = c.Request.WithContext(logging.WithCorrelationID(c.Request.Context(), id))
		c.Header(HeaderCorrelationID, id)

		c.Next()
	}
}

// CORS allows the configured origins. A "*" entry allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID, X-Correlation-ID")
			c.Header("Access-Control-Expose-Headers", "X-Correlation-ID, Content-Disposition")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AuditLogger writes one JSON line per request to out. Request bodies are
// never logged since they carry health information.
func AuditLogger(out io.Writer, skipPaths ...string) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    out,
		SkipPaths: skipPaths,
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf(`{"timestamp":"%s","correlation_id":"%s","method":"%s","path":"%s","status":%d,"latency":"%s","client_ip":"%s","response_size":%d}%s`,
				param.TimeStamp.Format(time.RFC3339),
				param.Keys[CorrelationKey],
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency,
				param.ClientIP,
				param.BodySize,
				"\n",
			)
		},
	})
}
