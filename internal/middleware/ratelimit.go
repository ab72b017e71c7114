package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"Kindred/config"
	"Kindred/pkg/errors"
	"Kindred/pkg/logger"
	"Kindred/pkg/response"
	"Kindred/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 限流键前缀
	KeyPrefix string
	// 时间窗口
	Window time.Duration
	// 超限后禁止访问的时间
	BlockDuration time.Duration
	// 时间窗口内最大请求数
	MaxRequests int
	// 优先按会话限流，没有会话时按 IP
	BySession bool
}

// EventRateLimitConfig 事件接口的限流配置，每个会话每秒 RATE_LIMIT_RPS 次
func EventRateLimitConfig() RateLimitConfig {
	rps := config.Cfg.RateLimitRPS
	if rps <= 0 {
		rps = 20
	}
	return RateLimitConfig{
		KeyPrefix:     "ratelimit:events",
		Window:        time.Second,
		BlockDuration: 10 * time.Second,
		MaxRequests:   rps,
		BySession:     true,
	}
}

// CreateRateLimitConfig 新建会话按 IP 限流
var CreateRateLimitConfig = RateLimitConfig{
	KeyPrefix:     "ratelimit:create",
	Window:        time.Minute,
	BlockDuration: 5 * time.Minute,
	MaxRequests:   30,
}

// RateLimiter 基于 Redis zset 的滑动窗口限流
type RateLimiter struct {
	client redislib.Cmdable
	now    func() time.Time
	config RateLimitConfig
}

func NewRateLimiter(client redislib.Cmdable, cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		now:    time.Now,
		config: cfg,
	}
}

func (rl *RateLimiter) key(c *app.RequestContext) string {
	if rl.config.BySession {
		if sessionID, ok := GetSessionID(c); ok {
			return redis.Key(rl.config.KeyPrefix, "session", sessionID)
		}
	}
	return redis.Key(rl.config.KeyPrefix, "ip", c.ClientIP())
}

// Allow 记录本次请求并返回窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := rl.now()
	windowStart := now.Add(-rl.config.Window)

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcard := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window+10*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcard.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) blockKey(key string) string {
	return key + ":block"
}

func (rl *RateLimiter) Block(ctx context.Context, key string) error {
	return rl.client.Set(ctx, rl.blockKey(key), "1", rl.config.BlockDuration).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	n, err := rl.client.Exists(ctx, rl.blockKey(key)).Result()
	return n > 0, err
}

// Handle 限流检查；Redis 出错时放行，只记录日志
func (rl *RateLimiter) Handle(ctx context.Context, c *app.RequestContext) {
	key := rl.key(c)

	blocked, err := rl.IsBlocked(ctx, key)
	if err != nil {
		logger.Logger.Warn("Failed to check block status", zap.Error(err))
		c.Next(ctx)
		return
	}
	if blocked {
		response.Error(ctx, c, errors.TooManyRequests)
		c.Abort()
		return
	}

	allowed, count, err := rl.Allow(ctx, key)
	if err != nil {
		logger.Logger.Warn("Failed to check rate limit", zap.Error(err))
		c.Next(ctx)
		return
	}

	remaining := rl.config.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.MaxRequests))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

	if !allowed {
		if err := rl.Block(ctx, key); err != nil {
			logger.Logger.Warn("Failed to block client", zap.Error(err))
		}
		response.Error(ctx, c, errors.TooManyRequests)
		c.Abort()
		return
	}

	c.Next(ctx)
}

// RateLimitMiddleware 未启用 Redis 时直接放行
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	if !redis.Enabled() {
		return func(ctx context.Context, c *app.RequestContext) {
			c.Next(ctx)
		}
	}
	return NewRateLimiter(redis.Client(), cfg).Handle
}

func EventRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(EventRateLimitConfig())
}

func CreateRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(CreateRateLimitConfig)
}
