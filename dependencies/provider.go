package dependencies

import (
	"context"
	"errors"

	"github.com/Xushengqwer/identity_link/models/dto"
)

var (
	// ErrProviderUserNotFound 身份提供方中不存在目标用户，可与其他失败区分
	ErrProviderUserNotFound = errors.New("identity provider: user not found")
	// ErrProviderNotConfigured 尚未上传服务账号，身份提供方客户端未初始化
	ErrProviderNotConfigured = errors.New("identity provider not configured")
	// ErrInvalidIDToken ID Token 无效或已过期
	ErrInvalidIDToken = errors.New("identity provider: invalid id token")
)

// IdentityProvider 对身份提供方 (Firebase Authentication) 的全部调用。
// 所有方法都是阻塞 I/O，调用方负责传入带超时的 ctx。
type IdentityProvider interface {
	// VerifyIDToken 校验 ID Token，失败返回包装了 ErrInvalidIDToken 的错误
	VerifyIDToken(ctx context.Context, idToken string) (*dto.DecodedIdentity, error)

	// GetUser / GetUserByEmail / GetUserByPhoneNumber 找不到时返回 ErrProviderUserNotFound
	GetUser(ctx context.Context, uid string) (*dto.IdentityRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*dto.IdentityRecord, error)
	GetUserByPhoneNumber(ctx context.Context, phone string) (*dto.IdentityRecord, error)

	// ListUsers 游标分页列举；pageToken 为空表示第一页
	ListUsers(ctx context.Context, pageSize int, pageToken string) (*dto.ProviderPage, error)

	CreateUser(ctx context.Context, user dto.ProviderUserToCreate) (*dto.IdentityRecord, error)
	UpdateUser(ctx context.Context, uid string, update dto.ProviderUserToUpdate) (*dto.IdentityRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	DeleteUsers(ctx context.Context, uids []string) (*dto.DeleteUsersResult, error)

	// PasswordResetLink 生成重置密码链接，continueURL 为完成后的跳转地址
	PasswordResetLink(ctx context.Context, email, continueURL string) (string, error)
}

// ListAllUsers 跟随续页令牌直到耗尽，返回身份提供方的全部用户。
// 全部拉取完成后才返回，调用方不会拿到部分结果。
func ListAllUsers(ctx context.Context, provider IdentityProvider, pageSize int) ([]dto.IdentityRecord, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}
	var (
		all   []dto.IdentityRecord
		token string
	)
	for {
		page, err := provider.ListUsers(ctx, pageSize, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Users...)
		if page.PageToken == "" {
			return all, nil
		}
		token = page.PageToken
	}
}
