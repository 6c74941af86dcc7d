package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gatherly/backend/pkg/response"
)

// RateLimitKey builds the Redis counter key for a per-user daily quota.
// Scope distinguishes limited operations (e.g. "qr_generate").
func RateLimitKey(scope string, userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", scope, userID, day.UTC().Format("2006-01-02"))
}

// RateLimitDaily returns a middleware enforcing a per-user daily quota via a
// Redis counter with a fixed window. The quota lives here, not inside the
// token service, which stays stateless. Fails open when Redis is unreachable.
func RateLimitDaily(rdb *redis.Client, logger *zap.Logger, scope string, limit int) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		userVal, ok := c.Get(ContextUserID)
		if !ok {
			c.Next()
			return
		}
		userID, ok := userVal.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		key := RateLimitKey(scope, userID, time.Now())
		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limit check failed", zap.Error(err), zap.String("scope", scope))
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(c.Request.Context(), key, 24*time.Hour)
		}
		if count > int64(limit) {
			response.TooManyRequests(c, "daily quota exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
