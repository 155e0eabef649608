package testsupport

import (
	"context"
	"sync"
	"time"

	redisrepo "github.com/Xushengqwer/identity_link/repository/redis"
)

// MemoryBlacklist 内存版令牌黑名单
type MemoryBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{jtis: map[string]time.Time{}}
}

var _ redisrepo.TokenBlackRepo = (*MemoryBlacklist)(nil)

func (b *MemoryBlacklist) AddJtiToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = time.Now().Add(ttl)
	return nil
}

func (b *MemoryBlacklist) IsJtiBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.jtis[jti]
	return ok && time.Now().Before(exp), nil
}

// CountingLimiter 每个 key 允许 Max 次，Max <= 0 时不限流
type CountingLimiter struct {
	mu   sync.Mutex
	Max  int64
	hits map[string]int64
}

func NewCountingLimiter(max int64) *CountingLimiter {
	return &CountingLimiter{Max: max, hits: map[string]int64{}}
}

var _ redisrepo.RateLimiter = (*CountingLimiter)(nil)

func (l *CountingLimiter) Allow(_ context.Context, key string) (redisrepo.RateResult, error) {
	if l.Max <= 0 {
		return redisrepo.RateResult{Allowed: true}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key]++
	hits := l.hits[key]
	if hits > l.Max {
		return redisrepo.RateResult{Allowed: false, RetryAfter: time.Minute}, nil
	}
	return redisrepo.RateResult{Allowed: true, Remaining: l.Max - hits}, nil
}

// MemoryLock 进程内互斥锁
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: map[string]bool{}}
}

var _ redisrepo.JobLock = (*MemoryLock)(nil)

func (l *MemoryLock) TryAcquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, true, nil
}
