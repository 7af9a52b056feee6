package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	grpcmiddleware "user-calc-service/internal/adapter/grpc/middleware"
	"user-calc-service/pkg/logger"
)

// RateLimitedMessage is the body of a 429 response.
const RateLimitedMessage = "Rate limit exceeded"

// RateLimiter returns a Gin middleware that shares the token bucket used by
// the gRPC interceptor. Buckets are keyed by method, route and client IP.
// Redis failures let the request through.
func RateLimiter(limiter *grpcmiddleware.RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		clientIP := c.ClientIP()
		key := fmt.Sprintf("%s:%s:%s", c.Request.Method, path, clientIP)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.WithContext(c.Request.Context(), log).Warn("rate limiter redis error, allowing request",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			cfg := limiter.Config()
			logger.WithContext(c.Request.Context(), log).Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("path", path),
				zap.Float64("limit", cfg.RequestsPerSecond),
				zap.Int("burst", cfg.BurstCapacity),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": RateLimitedMessage})
			return
		}

		c.Next()
	}
}
