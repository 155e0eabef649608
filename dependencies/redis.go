package dependencies

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/utils"
)

const (
	redisPingRetries  = 4
	redisPingInterval = 2 * time.Second
)

// InitRedis 连接 Redis 并确认可用。
// - Redis 保存会话令牌黑名单、限流计数和自动关联任务锁。
// - PoolSize / MinIdleConns 未配置时分别取 10 和 3。
// - 启动时 PING 失败按固定间隔重试，全部失败则关闭客户端并返回错误。
func InitRedis(cfg *config.RedisConfig, logger *core.ZapLogger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	if opts.MinIdleConns <= 0 {
		opts.MinIdleConns = 3
	}
	client := redis.NewClient(opts)

	attempt := 0
	err := utils.RetryOperation(context.Background(), redisPingInterval, redisPingRetries, func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis 暂不可用", zap.String("addr", opts.Addr), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("无法连接到 Redis (%s): %w", opts.Addr, err)
	}

	logger.Info("成功连接到 Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}
