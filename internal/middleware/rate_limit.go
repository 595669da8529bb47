package middleware

import (
	"fmt"
	"net/http"
	"time"

	"clubhub/internal/errno"
	"clubhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// ComposeRateLimit 限制每个用户每分钟的发信次数，perMinute <= 0 时不限制
func ComposeRateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	counters, err := utils.NewTTLCache[int](4096)
	if err != nil {
		panic(err)
	}
	incr := func(n int) int { return n + 1 }

	return func(c *gin.Context) {
		viewer := CurrentViewer(c)
		if viewer == nil {
			c.Next()
			return
		}

		count, resetAt := counters.Hit("compose:"+viewer.Username, time.Minute, incr)
		if count > perMinute {
			retryAfter := time.Until(resetAt)
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       errno.KindRateLimited,
				"message":     "too many messages, try again later",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}
		c.Next()
	}
}
