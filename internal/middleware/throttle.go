package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pixeldust/internal/config"
	"pixeldust/internal/netx"
)

// Throttle counts requests per client address and route in a fixed redis
// window. Redis failures let the request through.
func Throttle(client redis.Cmdable, cfg config.ThrottleConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("throttle:%s:%s", c.FullPath(), netx.ClientIP(c.Request))
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err == nil && count == 1 {
			err = client.Expire(ctx, key, cfg.Window).Err()
		}
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("throttle unavailable")
			c.Next()
			return
		}

		if count > int64(cfg.Requests) {
			retry := cfg.Window
			if ttl, err := client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retry = ttl
			}
			c.Header("Retry-After", strconv.Itoa(int((retry+time.Second-1)/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
			return
		}

		c.Next()
	}
}
