package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/matchweek-backend/internal/clients/redis"
	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/requestdata"
	"github.com/yungbote/matchweek-backend/internal/utils"
)

type RateLimitMiddleware struct {
	log     *logger.Logger
	limiter redis.RateLimiter
	limit   int
	window  time.Duration
}

func NewRateLimitMiddleware(log *logger.Logger, limiter redis.RateLimiter) *RateLimitMiddleware {
	middlewareLogger := log.With("Middleware", "RateLimitMiddleware")
	limit := utils.GetEnvAsInt("RL_REQUESTS_PER_WINDOW", 120, log)
	windowSec := utils.GetEnvAsInt("RL_WINDOW_SECONDS", 60, log)
	return &RateLimitMiddleware{
		log:     middlewareLogger,
		limiter: limiter,
		limit:   limit,
		window:  time.Duration(windowSec) * time.Second,
	}
}

// Limit keys on the authenticated user when present, client IP otherwise.
// Redis failures fail open.
func (rm *RateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rm.limiter == nil {
			c.Next()
			return
		}
		key := c.ClientIP()
		if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			key = rd.UserID.String()
		}
		allowed, err := rm.limiter.Allow(c.Request.Context(), key, rm.limit, rm.window)
		if err != nil {
			rm.log.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
