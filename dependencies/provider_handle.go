package dependencies

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/models/dto"
)

// ProviderFactory 根据服务账号凭证构建身份提供方客户端
type ProviderFactory func(ctx context.Context, credentialsJSON []byte, projectID string) (IdentityProvider, error)

// FirebaseFactory 返回使用 Firebase Admin SDK 的工厂
func FirebaseFactory(callTimeout time.Duration) ProviderFactory {
	return func(ctx context.Context, credentialsJSON []byte, projectID string) (IdentityProvider, error) {
		return NewFirebaseProvider(ctx, credentialsJSON, projectID, callTimeout)
	}
}

type providerSlot struct {
	provider  IdentityProvider
	projectID string
}

// ProviderHandle 进程内共享的身份提供方客户端句柄。
// 凭证变更时 Reinit 原子地替换内部客户端，正在进行的调用继续使用旧客户端完成。
// ProviderHandle 本身实现 IdentityProvider，通过构造函数注入给各个服务。
type ProviderHandle struct {
	current atomic.Pointer[providerSlot]
	factory ProviderFactory
	logger  *core.ZapLogger
}

// NewProviderHandle 创建一个尚未配置的句柄。
// - factory: 凭证到客户端的构建函数，测试中可替换为内存实现。
// - 首次 Reinit 或 Swap 之前，所有调用都返回 ErrProviderNotConfigured。
func NewProviderHandle(factory ProviderFactory, logger *core.ZapLogger) *ProviderHandle {
	return &ProviderHandle{factory: factory, logger: logger}
}

// Reinit 用新凭证构建客户端并替换当前客户端。
// - 构建失败时保留原客户端并返回错误，已有调用不受影响。
func (h *ProviderHandle) Reinit(ctx context.Context, credentialsJSON []byte, projectID string) error {
	p, err := h.factory(ctx, credentialsJSON, projectID)
	if err != nil {
		h.logger.Error("身份提供方客户端重新初始化失败，保留当前客户端", zap.String("projectId", projectID), zap.Error(err))
		return err
	}
	h.Swap(p, projectID)
	return nil
}

// Swap 直接替换客户端
func (h *ProviderHandle) Swap(p IdentityProvider, projectID string) {
	h.current.Store(&providerSlot{provider: p, projectID: projectID})
	h.logger.Info("身份提供方客户端已切换", zap.String("projectId", projectID))
}

// Clear 清空客户端，之后的调用返回 ErrProviderNotConfigured
func (h *ProviderHandle) Clear() {
	h.current.Store(nil)
	h.logger.Warn("身份提供方客户端已清空")
}

func (h *ProviderHandle) Configured() bool { return h.current.Load() != nil }

// ProjectID 当前客户端对应的项目 ID
func (h *ProviderHandle) ProjectID() string {
	if slot := h.current.Load(); slot != nil {
		return slot.projectID
	}
	return ""
}

func (h *ProviderHandle) get() (IdentityProvider, error) {
	slot := h.current.Load()
	if slot == nil {
		return nil, ErrProviderNotConfigured
	}
	return slot.provider, nil
}

func (h *ProviderHandle) VerifyIDToken(ctx context.Context, idToken string) (*dto.DecodedIdentity, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.VerifyIDToken(ctx, idToken)
}

func (h *ProviderHandle) GetUser(ctx context.Context, uid string) (*dto.IdentityRecord, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.GetUser(ctx, uid)
}

func (h *ProviderHandle) GetUserByEmail(ctx context.Context, email string) (*dto.IdentityRecord, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.GetUserByEmail(ctx, email)
}

func (h *ProviderHandle) GetUserByPhoneNumber(ctx context.Context, phone string) (*dto.IdentityRecord, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.GetUserByPhoneNumber(ctx, phone)
}

func (h *ProviderHandle) ListUsers(ctx context.Context, pageSize int, pageToken string) (*dto.ProviderPage, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.ListUsers(ctx, pageSize, pageToken)
}

func (h *ProviderHandle) CreateUser(ctx context.Context, user dto.ProviderUserToCreate) (*dto.IdentityRecord, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.CreateUser(ctx, user)
}

func (h *ProviderHandle) UpdateUser(ctx context.Context, uid string, update dto.ProviderUserToUpdate) (*dto.IdentityRecord, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.UpdateUser(ctx, uid, update)
}

func (h *ProviderHandle) DeleteUser(ctx context.Context, uid string) error {
	p, err := h.get()
	if err != nil {
		return err
	}
	return p.DeleteUser(ctx, uid)
}

func (h *ProviderHandle) DeleteUsers(ctx context.Context, uids []string) (*dto.DeleteUsersResult, error) {
	p, err := h.get()
	if err != nil {
		return nil, err
	}
	return p.DeleteUsers(ctx, uids)
}

func (h *ProviderHandle) PasswordResetLink(ctx context.Context, email, continueURL string) (string, error) {
	p, err := h.get()
	if err != nil {
		return "", err
	}
	return p.PasswordResetLink(ctx, email, continueURL)
}
