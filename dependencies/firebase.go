package dependencies

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Xushengqwer/identity_link/models/dto"
)

// firebaseProvider 基于 Firebase Admin SDK 的 IdentityProvider 实现
type firebaseProvider struct {
	client      *auth.Client
	callTimeout time.Duration
}

// NewFirebaseProvider 使用服务账号 JSON 初始化 Firebase Auth 客户端。
// - projectID 为空时由凭证推断。
// - callTimeout: 每次 Admin API 调用的超时，叠加在调用方 ctx 之上。
func NewFirebaseProvider(ctx context.Context, credentialsJSON []byte, projectID string, callTimeout time.Duration) (IdentityProvider, error) {
	var fbCfg *firebase.Config
	if projectID != "" {
		fbCfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("初始化 Firebase App 失败: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化 Firebase Auth 客户端失败: %w", err)
	}
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &firebaseProvider{client: client, callTimeout: callTimeout}, nil
}

func (p *firebaseProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.callTimeout)
}

func (p *firebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*dto.DecodedIdentity, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	decoded := &dto.DecodedIdentity{
		UID:            token.UID,
		SignInProvider: token.Firebase.SignInProvider,
	}
	if v, ok := token.Claims["email"].(string); ok {
		decoded.Email = v
	}
	if v, ok := token.Claims["email_verified"].(bool); ok {
		decoded.EmailVerified = v
	}
	if v, ok := token.Claims["phone_number"].(string); ok {
		decoded.PhoneNumber = v
	}
	if v, ok := token.Claims["name"].(string); ok {
		decoded.Name = v
	}
	return decoded, nil
}

func (p *firebaseProvider) GetUser(ctx context.Context, uid string) (*dto.IdentityRecord, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	u, err := p.client.GetUser(ctx, uid)
	return toRecordOrErr(u, err)
}

func (p *firebaseProvider) GetUserByEmail(ctx context.Context, email string) (*dto.IdentityRecord, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	u, err := p.client.GetUserByEmail(ctx, email)
	return toRecordOrErr(u, err)
}

func (p *firebaseProvider) GetUserByPhoneNumber(ctx context.Context, phone string) (*dto.IdentityRecord, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	u, err := p.client.GetUserByPhoneNumber(ctx, phone)
	return toRecordOrErr(u, err)
}

func (p *firebaseProvider) ListUsers(ctx context.Context, pageSize int, pageToken string) (*dto.ProviderPage, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	pager := iterator.NewPager(p.client.Users(ctx, ""), pageSize, pageToken)
	var users []*auth.ExportedUserRecord
	next, err := pager.NextPage(&users)
	if err != nil {
		return nil, fmt.Errorf("列举 Firebase 用户失败: %w", err)
	}
	page := &dto.ProviderPage{Users: make([]dto.IdentityRecord, 0, len(users)), PageToken: next}
	for _, u := range users {
		if u == nil || u.UserRecord == nil {
			continue
		}
		page.Users = append(page.Users, toIdentityRecord(u.UserRecord))
	}
	return page, nil
}

func (p *firebaseProvider) CreateUser(ctx context.Context, user dto.ProviderUserToCreate) (*dto.IdentityRecord, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	params := (&auth.UserToCreate{}).EmailVerified(user.EmailVerified).Disabled(user.Disabled)
	if user.UID != "" {
		params = params.UID(user.UID)
	}
	if user.Email != "" {
		params = params.Email(user.Email)
	}
	if user.PhoneNumber != "" {
		params = params.PhoneNumber(user.PhoneNumber)
	}
	if user.DisplayName != "" {
		params = params.DisplayName(user.DisplayName)
	}
	if user.Password != "" {
		params = params.Password(user.Password)
	}
	u, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("创建 Firebase 用户失败: %w", err)
	}
	r := toIdentityRecord(u)
	return &r, nil
}

func (p *firebaseProvider) UpdateUser(ctx context.Context, uid string, update dto.ProviderUserToUpdate) (*dto.IdentityRecord, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	params := &auth.UserToUpdate{}
	if update.Email != nil {
		params = params.Email(*update.Email)
	}
	if update.PhoneNumber != nil {
		params = params.PhoneNumber(*update.PhoneNumber)
	}
	if update.DisplayName != nil {
		params = params.DisplayName(*update.DisplayName)
	}
	if update.Password != nil {
		params = params.Password(*update.Password)
	}
	if update.EmailVerified != nil {
		params = params.EmailVerified(*update.EmailVerified)
	}
	if update.Disabled != nil {
		params = params.Disabled(*update.Disabled)
	}
	u, err := p.client.UpdateUser(ctx, uid, params)
	return toRecordOrErr(u, err)
}

func (p *firebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrProviderUserNotFound
		}
		return fmt.Errorf("删除 Firebase 用户失败: %w", err)
	}
	return nil
}

func (p *firebaseProvider) DeleteUsers(ctx context.Context, uids []string) (*dto.DeleteUsersResult, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	res, err := p.client.DeleteUsers(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("批量删除 Firebase 用户失败: %w", err)
	}
	out := &dto.DeleteUsersResult{SuccessCount: res.SuccessCount, FailureCount: res.FailureCount}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, dto.DeleteUserError{Index: e.Index, Reason: e.Reason})
	}
	return out, nil
}

func (p *firebaseProvider) PasswordResetLink(ctx context.Context, email, continueURL string) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	var (
		link string
		err  error
	)
	if continueURL != "" {
		link, err = p.client.PasswordResetLinkWithSettings(ctx, email, &auth.ActionCodeSettings{URL: continueURL})
	} else {
		link, err = p.client.PasswordResetLink(ctx, email)
	}
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ErrProviderUserNotFound
		}
		return "", fmt.Errorf("生成重置密码链接失败: %w", err)
	}
	return link, nil
}

func toRecordOrErr(u *auth.UserRecord, err error) (*dto.IdentityRecord, error) {
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrProviderUserNotFound
		}
		return nil, fmt.Errorf("查询 Firebase 用户失败: %w", err)
	}
	if u == nil || u.UserInfo == nil {
		return nil, errors.New("Firebase 返回了空用户记录")
	}
	r := toIdentityRecord(u)
	return &r, nil
}

func toIdentityRecord(u *auth.UserRecord) dto.IdentityRecord {
	r := dto.IdentityRecord{
		EmailVerified: u.EmailVerified,
		Disabled:      u.Disabled,
		ProviderData:  make([]dto.ProviderInfo, 0, len(u.ProviderUserInfo)),
	}
	if u.UserInfo != nil {
		r.UID = u.UID
		r.Email = u.Email
		r.PhoneNumber = u.PhoneNumber
		r.DisplayName = u.DisplayName
		r.PhotoURL = u.PhotoURL
	}
	for _, info := range u.ProviderUserInfo {
		if info == nil {
			continue
		}
		r.ProviderData = append(r.ProviderData, dto.ProviderInfo{
			ProviderID:  info.ProviderID,
			UID:         info.UID,
			Email:       info.Email,
			PhoneNumber: info.PhoneNumber,
			DisplayName: info.DisplayName,
		})
	}
	if u.UserMetadata != nil {
		r.Metadata.CreationTime = formatMillis(u.UserMetadata.CreationTimestamp)
		r.Metadata.LastSignInTime = formatMillis(u.UserMetadata.LastLogInTimestamp)
	}
	r.TokensValidAfterTime = formatMillis(u.TokensValidAfterMillis)
	return r
}

// formatMillis 毫秒时间戳转为 HTTP 日期格式；0 表示未知
func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(http.TimeFormat)
}
