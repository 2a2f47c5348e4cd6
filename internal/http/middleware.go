package http

import (
	"net/http"
	"time"

	"fintrack/internal/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// trustedProxies may set X-Forwarded-For.
var trustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// requestID reuses an incoming X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = "req_" + uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// maxBody caps the request body at limit bytes. Reading past it fails with
// *http.MaxBytesError.
func maxBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// requestLogger logs the start and completion of each request.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		id := c.GetString(requestIDKey)

		fields := log.NewFields().WithHTTPRequest(c.Request.Method, c.Request.URL.Path, c.ClientIP())
		fields[log.FieldRequestID] = id
		logger.DebugContext(ctx, "Request started", fields.ToSlice()...)

		c.Next()

		fields = fields.WithHTTPResponse(c.Writer.Status(), time.Since(start).Milliseconds())
		logger.InfoContext(ctx, "Request completed", fields.ToSlice()...)
	}
}

// rateLimit throttles writes per client IP. Reads are not limited.
func rateLimit(rl *rateLimiter, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if !rl.allow(ip) {
			logger.WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldPath, c.Request.URL.Path)
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded, please try again later",
				Code:  CodeRateLimited,
			})
			return
		}
		c.Next()
	}
}
