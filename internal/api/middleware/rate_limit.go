package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sunilprojects/smart-campus-resource-management/pkg/redis"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/response"
)

// ipLimiter 进程内按 IP 的令牌桶
type ipLimiter struct {
	mu    sync.Mutex
	ips   map[string]*rate.Limiter
	r     rate.Limit
	burst int
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		ips:   make(map[string]*rate.Limiter),
		r:     rate.Every(window / time.Duration(limit)),
		burst: limit,
	}
}

func (l *ipLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.ips[key]
	if !ok {
		lim = rate.NewLimiter(l.r, l.burst)
		l.ips[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimit 速率限制中间件
// limit: 窗口内允许的最大请求数；window: 窗口时长。
// rdb 非 nil 时使用 Redis 滑动窗口（多实例共享计数），
// rdb 为 nil 或 Redis 出错时退化为进程内令牌桶
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	local := newIPLimiter(limit, window)

	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", c.ClientIP(), c.FullPath())

		var allowed bool
		if rdb != nil {
			ok, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err == nil {
				allowed = ok
			} else {
				allowed = local.allow(key)
			}
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			response.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
