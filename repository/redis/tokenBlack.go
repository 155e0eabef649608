package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Xushengqwer/identity_link/constants"
)

// TokenBlackRepo 基于 JTI (JWT ID) 的 CMS 会话令牌黑名单。
// - 登出时拉黑刷新令牌，刷新轮换时拉黑旧的刷新令牌。
// - 刷新令牌时先查询此处，命中即拒绝。
type TokenBlackRepo interface {
	// AddJtiToBlacklist 将 JTI 写入黑名单。
	// - ttl: 应等于令牌的剩余有效期，到期后键自动消失。
	// - ttl <= 0 表示令牌已过期，不写入，返回 nil。
	AddJtiToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsJtiBlacklisted 查询 JTI 是否已被拉黑。
	// - JTI 不在黑名单中是常态，返回 false, nil，不返回 commonerrors.ErrRepoNotFound。
	// - 只有 Redis 访问失败才返回错误，调用方应按拒绝处理。
	IsJtiBlacklisted(ctx context.Context, jti string) (bool, error)
}

// tokenBlackRepo 是 TokenBlackRepo 基于 go-redis/v9 的实现。
type tokenBlackRepo struct {
	client *redis.Client
}

// NewTokenBlacklistRepo 创建黑名单仓库。
// - client: 与限流器、自动关联任务锁共用的 Redis 客户端。
func NewTokenBlacklistRepo(client *redis.Client) TokenBlackRepo {
	return &tokenBlackRepo{client: client}
}

// buildBlacklistKey 示例键: "identity_link:blacklist:jti:<uuid>"
func (r *tokenBlackRepo) buildBlacklistKey(jti string) string {
	return constants.BlacklistKeyPrefix + ":jti:" + jti
}

func (r *tokenBlackRepo) AddJtiToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	// 已过期的令牌无需拉黑
	if ttl <= 0 {
		return nil
	}
	key := r.buildBlacklistKey(jti)
	if err := r.client.Set(ctx, key, "blacklisted", ttl).Err(); err != nil {
		return fmt.Errorf("tokenBlackRepo.AddJtiToBlacklist: 将 JTI 加入黑名单失败 (JTI: %s): %w", jti, err)
	}
	return nil
}

func (r *tokenBlackRepo) IsJtiBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := r.buildBlacklistKey(jti)
	// EXISTS 比 GET 更轻
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("tokenBlackRepo.IsJtiBlacklisted: 检查 JTI 黑名单失败 (JTI: %s): %w", jti, err)
	}
	return exists == 1, nil
}
