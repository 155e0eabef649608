package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateResult 一次限流判定的结果
type RateResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter 按 key 计数的限流器
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateResult, error)
}

// fixedWindowLimiter 固定窗口计数 (INCR + EXPIRE)，窗口起点对齐到 window 的整数倍
type fixedWindowLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
}

// NewRateLimiter max <= 0 时不限流
func NewRateLimiter(client *redis.Client, prefix string, max int, window time.Duration) RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &fixedWindowLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

func (l *fixedWindowLimiter) Allow(ctx context.Context, key string) (RateResult, error) {
	if l.max <= 0 {
		return RateResult{Allowed: true}, nil
	}
	winStart := time.Now().UTC().Truncate(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateResult{}, fmt.Errorf("rateLimiter.Allow: 计数失败 (Key: %s): %w", redisKey, err)
	}

	// 首次命中时设置过期
	if incr.Val() == 1 {
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
	}

	hits := incr.Val()
	res := RateResult{Allowed: hits <= l.max, Remaining: l.max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl.Val()
		if res.RetryAfter <= 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}
