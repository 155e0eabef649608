// Package reconcile 把身份提供方用户与本地用户合并为统一视图，并负责首次登录建档、删除和重置密码。
package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/service/activity"
	"github.com/Xushengqwer/identity_link/service/linktable"
	"github.com/Xushengqwer/identity_link/service/notify"
)

// Notifier 通知发送链
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) (string, error)
}

// ReconcileService 合并视图与跨两端的用户操作。
type ReconcileService interface {
	// ListUsers 按输入选择精确查找、全量排序/搜索或单页三种策略之一
	ListUsers(ctx context.Context, query dto.ListUsersQuery) (*vo.UserListResult, error)

	// GetUser 单个用户的合并视图
	GetUser(ctx context.Context, uid string) (*vo.MergedUserView, error)

	// CreateOrLinkUser 令牌交换时调用：已关联直接返回，否则匹配历史账号或新建本地用户并建立关联
	CreateOrLinkUser(ctx context.Context, identity dto.DecodedIdentity) (*entities.LocalUser, error)

	// CreateUser 先在身份提供方创建，再建立本地用户；本地失败不回滚身份提供方
	CreateUser(ctx context.Context, req dto.CreateUserRequest, meta dto.RequestMeta) (*vo.CreateUserResult, error)

	// UpdateUser 更新身份提供方，并同步到已关联的本地用户
	UpdateUser(ctx context.Context, uid string, req dto.UpdateUserRequest, meta dto.RequestMeta) (*vo.MergedUserView, error)

	// DeleteUser / DeleteMany 两端结果分别报告
	DeleteUser(ctx context.Context, uid string, destination enums.DeleteDestination, meta dto.RequestMeta) (*vo.DeleteResult, error)
	DeleteMany(ctx context.Context, uids []string, destination enums.DeleteDestination, meta dto.RequestMeta) ([]vo.DeleteResult, error)

	// ResetPassword 管理员为指定用户发送重置密码邮件
	ResetPassword(ctx context.Context, uid string, meta dto.RequestMeta) (*vo.ResetLinkResult, error)

	// SendPasswordResetEmail 公开入口；邮箱不存在时静默成功
	SendPasswordResetEmail(ctx context.Context, email string, meta dto.RequestMeta) (*vo.ResetLinkResult, error)

	// Close 停止游标缓存的后台清理
	Close()
}

// cursorKey 页码到续页令牌的缓存键
type cursorKey struct {
	pageSize int
	page     int
}

type reconcileService struct {
	provider dependencies.IdentityProvider
	links    linktable.LinkTableService
	linkRepo mysql.LinkRepository
	userRepo mysql.LocalUserRepository
	db       *gorm.DB
	notifier Notifier
	recorder activity.Recorder
	cfg      config.ReconcileConfig
	order    []enums.ExactMatchKind
	logger   *core.ZapLogger

	cursors    *ttlcache.Cache[cursorKey, string]
	firstLogin singleflight.Group
}

func NewReconcileService(
	provider dependencies.IdentityProvider,
	links linktable.LinkTableService,
	linkRepo mysql.LinkRepository,
	userRepo mysql.LocalUserRepository,
	db *gorm.DB,
	notifier Notifier,
	recorder activity.Recorder,
	cfg config.ReconcileConfig,
	logger *core.ZapLogger,
) ReconcileService {
	cfg = withDefaults(cfg)
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	cursors := ttlcache.New(
		ttlcache.WithTTL[cursorKey, string](cfg.CursorTTL),
		ttlcache.WithDisableTouchOnHit[cursorKey, string](),
	)
	go cursors.Start()

	return &reconcileService{
		provider: provider,
		links:    links,
		linkRepo: linkRepo,
		userRepo: userRepo,
		db:       db,
		notifier: notifier,
		recorder: recorder,
		cfg:      cfg,
		order:    exactMatchOrder(cfg.ExactMatchOrder, logger),
		logger:   logger,
		cursors:  cursors,
	}
}

func (s *reconcileService) Close() {
	s.cursors.Stop()
}

func withDefaults(cfg config.ReconcileConfig) config.ReconcileConfig {
	if cfg.ProviderPageSize <= 0 || cfg.ProviderPageSize > 1000 {
		cfg.ProviderPageSize = 1000
	}
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = "authenticated"
	}
	if cfg.PlaceholderEmailPattern == "" {
		cfg.PlaceholderEmailPattern = "phone_{phoneNumber}_{random}@placeholder.local"
	}
	if cfg.PlaceholderMaxAttempts <= 0 {
		cfg.PlaceholderMaxAttempts = 5
	}
	if cfg.UsernameMaxAttempts <= 0 {
		cfg.UsernameMaxAttempts = 5
	}
	if cfg.AppleRelayDomain == "" {
		cfg.AppleRelayDomain = "privaterelay.appleid.com"
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 5 * time.Second
	}
	if cfg.FirstLoginTimeout <= 0 {
		cfg.FirstLoginTimeout = 15 * time.Second
	}
	if cfg.CursorTTL <= 0 {
		cfg.CursorTTL = 10 * time.Minute
	}
	return cfg
}

func exactMatchOrder(raw []string, logger *core.ZapLogger) []enums.ExactMatchKind {
	if len(raw) == 0 {
		return enums.DefaultExactMatchOrder
	}
	order := make([]enums.ExactMatchKind, 0, len(raw))
	for _, r := range raw {
		kind, ok := enums.ParseExactMatchKind(strings.TrimSpace(r))
		if !ok {
			logger.Warn("忽略未知的精确搜索方式", zap.String("kind", r))
			continue
		}
		order = append(order, kind)
	}
	return order
}

// isRelayEmail 邮件中继 (Apple 隐藏邮箱) 地址
func (s *reconcileService) isRelayEmail(email string) bool {
	return email != "" && strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(s.cfg.AppleRelayDomain))
}

// providerError 把身份提供方错误映射到服务层分类
func providerError(err error, msg string) error {
	switch {
	case errors.Is(err, dependencies.ErrProviderUserNotFound):
		return apperrors.NotFound("身份提供方中不存在该用户")
	case errors.Is(err, dependencies.ErrProviderNotConfigured):
		return apperrors.Configuration("identity provider not configured: 请先在设置中上传服务账号")
	default:
		return apperrors.Application(msg, err)
	}
}
