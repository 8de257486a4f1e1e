package middleware

import (
	"fmt"
	"net/http"

	"github.com/console-conteudo/backend/pkg/logger"
	"github.com/console-conteudo/backend/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimitMiddleware provides the same fixed-window limit shared across
// replicas. Algorithm: INCR a per-window key and compare against Max.
func RedisRateLimitMiddleware(client *redis.Client, opts RateLimitOptions) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(opts)
	}
	opts = opts.normalize()
	return func(c *gin.Context) {
		idx, left := opts.bucket(opts.Now())
		redisKey := fmt.Sprintf("rl:%s:%d", clientKey(c), idx)

		cnt, err := client.Incr(c.Request.Context(), redisKey).Result()
		if err != nil {
			logger.Errorf("rate limit check failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "rate limit check failed"})
			return
		}
		if cnt == 1 {
			_ = client.Expire(c.Request.Context(), redisKey, opts.Window+left).Err()
		}
		if int(cnt) > opts.Max {
			rejectRateLimited(c, left, "redis")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
