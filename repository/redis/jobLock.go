package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// JobLock 跨进程互斥锁，用于批处理任务
type JobLock interface {
	// TryAcquire 获取成功返回释放函数；锁已被占用返回 ok=false
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type redisJobLock struct {
	client *redis.Client
}

func NewJobLock(client *redis.Client) JobLock {
	return &redisJobLock{client: client}
}

func (l *redisJobLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("jobLock.TryAcquire: 获取锁失败 (Key: %s): %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("jobLock.release: 释放锁失败 (Key: %s): %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
