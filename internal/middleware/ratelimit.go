package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nakupenda/backend/internal/monitoring"
	"nakupenda/backend/internal/storage"
)

// RateLimiter 按客户端 IP 限制请求频率。
// 配置了计数仓库（Redis 或内存存储）时使用固定窗口计数，
// 否则退化为进程内的令牌桶。
type RateLimiter struct {
	repo    storage.RateLimitRepository
	max     int64
	window  time.Duration
	metrics *monitoring.Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter 创建限流器。repo 和 metrics 可以为 nil。
func NewRateLimiter(repo storage.RateLimitRepository, max int64, window time.Duration, metrics *monitoring.Metrics, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		repo:    repo,
		max:     max,
		window:  window,
		metrics: metrics,
		logger:  logger,
		local:   make(map[string]*rate.Limiter),
	}
}

// Limit 返回限流中间件。limitType 用于区分指标标签。
func (rl *RateLimiter) Limit(limitType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitHit(limitType)
		}

		if !rl.allow(limitType + ":" + ip) {
			rl.logger.Warn("rate limit exceeded",
				zap.String("type", limitType),
				zap.String("ip", ip),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	if rl.repo != nil {
		count, err := rl.repo.IncrementRateLimit(key, rl.window)
		if err != nil {
			// 计数失败时放行，限流不应拦截正常流量
			rl.logger.Warn("rate limit counter unavailable", zap.Error(err))
			return true
		}
		return count <= rl.max
	}

	return rl.localLimiter(key).Allow()
}

func (rl *RateLimiter) localLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.local[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.max)), int(rl.max))
		rl.local[key] = limiter
	}
	return limiter
}
