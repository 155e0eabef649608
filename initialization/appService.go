package initialization

import (
	"context"
	"time"

	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/repository/redis"
	"github.com/Xushengqwer/identity_link/service/activity"
	"github.com/Xushengqwer/identity_link/service/autolink"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/service/reconcile"
	"github.com/Xushengqwer/identity_link/service/settings"
	"github.com/Xushengqwer/identity_link/service/token"
)

// AppServices 封装了应用所需的所有服务层实例。
type AppServices struct {
	LinkTable    linktable.LinkTableService
	Reconcile    reconcile.ReconcileService
	Activity     activity.ActivityService
	AutoLink     autolink.AutoLinkService
	Settings     settings.SettingsService
	TokenService token.AuthTokenService

	// ResetLimiter 公开忘记密码入口按邮箱限流
	ResetLimiter redis.RateLimiter
}

// SetupServices 初始化所有仓库层和服务层实例。
func SetupServices(deps *AppDependencies) *AppServices {
	cfg := deps.Config

	// 1. 仓库
	linkRepo := mysql.NewLinkRepository(deps.DB)
	userRepo := mysql.NewLocalUserRepository(deps.DB)
	settingsRepo := mysql.NewSettingsRepository(deps.DB)
	activityRepo := mysql.NewActivityRepository(deps.DB)

	tokenBlackRepo := redis.NewTokenBlacklistRepo(deps.RedisClient)
	jobLock := redis.NewJobLock(deps.RedisClient)
	exchangeLimiter := redis.NewRateLimiter(deps.RedisClient, constants.ExchangeRateKeyPrefix,
		cfg.RateLimitConfig.ExchangeMax, cfg.RateLimitConfig.ExchangeWindow)
	resetLimiter := redis.NewRateLimiter(deps.RedisClient, constants.ResetRateKeyPrefix,
		cfg.RateLimitConfig.ResetMax, cfg.RateLimitConfig.ResetWindow)

	// 2. 审计日志最先创建，其余服务都向它写入
	activityService := activity.NewActivityService(activityRepo, deps.Archive, cfg.ActivityConfig.QueueSize, deps.Logger)

	linkService := linktable.NewLinkTableService(linkRepo, userRepo, deps.DB, deps.Logger)

	reconcileService := reconcile.NewReconcileService(
		deps.Provider,
		linkService,
		linkRepo,
		userRepo,
		deps.DB,
		deps.Notifier,
		activityService,
		cfg.ReconcileConfig,
		deps.Logger,
	)

	autoLinkService := autolink.NewAutoLinkService(
		deps.Provider,
		linkService,
		linkRepo,
		userRepo,
		jobLock,
		activityService,
		cfg.ReconcileConfig.ProviderPageSize,
		deps.Logger,
	)

	settingsService := settings.NewSettingsService(settingsRepo, deps.SecretBox, deps.Provider, activityService, deps.Logger)

	tokenService := token.NewAuthTokenService(
		deps.Provider,
		reconcileService,
		userRepo,
		tokenBlackRepo,
		exchangeLimiter,
		deps.JwtToken,
		activityService,
		deps.Logger,
	)

	return &AppServices{
		LinkTable:    linkService,
		Reconcile:    reconcileService,
		Activity:     activityService,
		AutoLink:     autoLinkService,
		Settings:     settingsService,
		TokenService: tokenService,
		ResetLimiter: resetLimiter,
	}
}

// Close 停止后台 worker：游标缓存清理和审计日志写入队列
func (s *AppServices) Close(ctx context.Context) error {
	s.Reconcile.Close()
	return s.Activity.Close(ctx)
}

// shutdownTimeout 关停时等待审计日志队列写完的上限
const shutdownTimeout = 5 * time.Second

// CloseWithTimeout 使用默认超时关闭服务
func (s *AppServices) CloseWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Close(ctx)
}
