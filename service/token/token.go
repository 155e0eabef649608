package token

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/dependencies"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/repository/mysql"
	"github.com/Xushengqwer/identity_link/repository/redis"
	"github.com/Xushengqwer/identity_link/service/activity"
)

// UserLinker 首次登录建档或关联本地用户
type UserLinker interface {
	CreateOrLinkUser(ctx context.Context, identity dto.DecodedIdentity) (*entities.LocalUser, error)
}

// AuthTokenService 身份提供方 ID Token 与 CMS 会话令牌之间的转换，以及会话的续期和吊销。
type AuthTokenService interface {
	// Exchange 校验 ID Token，建档或关联本地用户后签发令牌对。
	// 同一 IP 的调用受限流保护。
	Exchange(ctx context.Context, idToken string, platform enums.Platform, meta dto.RequestMeta) (*vo.ExchangeResponse, error)

	// RefreshToken 使用未吊销的刷新令牌换取新令牌对，旧刷新令牌随即吊销。
	RefreshToken(ctx context.Context, refreshToken string) (vo.TokenPair, error)

	// Logout 吊销传入的会话令牌和刷新令牌；无法解析的令牌直接忽略。
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

type authTokenService struct {
	provider       dependencies.IdentityProvider
	linker         UserLinker
	userRepo       mysql.LocalUserRepository
	tokenBlackRepo redis.TokenBlackRepo
	limiter        redis.RateLimiter
	jwtUtil        dependencies.JWTTokenInterface
	recorder       activity.Recorder
	logger         *core.ZapLogger
}

func NewAuthTokenService(
	provider dependencies.IdentityProvider,
	linker UserLinker,
	userRepo mysql.LocalUserRepository,
	tokenBlackRepo redis.TokenBlackRepo,
	limiter redis.RateLimiter,
	jwtUtil dependencies.JWTTokenInterface,
	recorder activity.Recorder,
	logger *core.ZapLogger,
) AuthTokenService {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &authTokenService{
		provider:       provider,
		linker:         linker,
		userRepo:       userRepo,
		tokenBlackRepo: tokenBlackRepo,
		limiter:        limiter,
		jwtUtil:        jwtUtil,
		recorder:       recorder,
		logger:         logger,
	}
}

func (s *authTokenService) Exchange(ctx context.Context, idToken string, platform enums.Platform, meta dto.RequestMeta) (*vo.ExchangeResponse, error) {
	const operation = "AuthTokenService.Exchange"

	if s.limiter != nil && meta.IP != "" {
		res, err := s.limiter.Allow(ctx, meta.IP)
		if err != nil {
			// 限流器不可用时放行
			s.logger.Warn("限流检查失败，放行请求", zap.String("operation", operation), zap.Error(err))
		} else if !res.Allowed {
			dependencies.TokenExchanges.WithLabelValues("rate_limited").Inc()
			return nil, apperrors.TooManyRequests("请求过于频繁，请稍后再试")
		}
	}

	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperrors.Validation("idToken 不能为空")
	}
	identity, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, dependencies.ErrProviderNotConfigured) {
			dependencies.TokenExchanges.WithLabelValues("error").Inc()
			return nil, apperrors.Configuration(dependencies.ErrProviderNotConfigured.Error())
		}
		s.logger.Warn("ID Token 校验失败", zap.String("operation", operation), zap.String("ip", meta.IP), zap.Error(err))
		dependencies.TokenExchanges.WithLabelValues("invalid_token").Inc()
		return nil, apperrors.Unauthorized("ID Token 无效或已过期", err)
	}

	user, err := s.linker.CreateOrLinkUser(ctx, *identity)
	if err != nil {
		dependencies.TokenExchanges.WithLabelValues("error").Inc()
		return nil, err
	}
	if user.Blocked {
		s.logger.Warn("已封禁的本地用户尝试登录",
			zap.String("operation", operation),
			zap.String("uid", identity.UID),
			zap.Uint("localUserID", user.ID),
		)
		dependencies.TokenExchanges.WithLabelValues("blocked").Inc()
		return nil, apperrors.Unauthorized("账号已被封禁", nil)
	}

	pair, err := s.issue(subjectOf(user, identity.UID, platform))
	if err != nil {
		dependencies.TokenExchanges.WithLabelValues("error").Inc()
		return nil, err
	}

	s.recorder.Record(dto.ActivityEntry{
		FirebaseUID: identity.UID,
		Action:      constants.ActionTokenExchange,
		ActorType:   "user",
		ActorID:     identity.UID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details:     map[string]any{"platform": platform, "signInProvider": identity.SignInProvider},
	})
	dependencies.TokenExchanges.WithLabelValues("success").Inc()

	return &vo.ExchangeResponse{User: sessionUser(user, identity.UID), Token: pair}, nil
}

func (s *authTokenService) RefreshToken(ctx context.Context, refreshToken string) (vo.TokenPair, error) {
	const operation = "AuthTokenService.RefreshToken"

	claims, err := s.jwtUtil.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("解析 Refresh Token 失败或令牌无效", zap.String("operation", operation), zap.Error(err))
		return vo.TokenPair{}, apperrors.Unauthorized("无效的刷新令牌", err)
	}

	blacklisted, err := s.tokenBlackRepo.IsJtiBlacklisted(ctx, claims.ID)
	if err != nil {
		return vo.TokenPair{}, apperrors.Application("检查令牌黑名单失败", err)
	}
	if blacklisted {
		s.logger.Warn("尝试使用已吊销的 Refresh Token",
			zap.String("operation", operation),
			zap.String("jti", claims.ID),
			zap.Uint("localUserID", claims.LocalUserID),
		)
		return vo.TokenPair{}, apperrors.Unauthorized("刷新令牌已失效", nil)
	}

	user, err := s.userRepo.GetByID(ctx, claims.LocalUserID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return vo.TokenPair{}, apperrors.Unauthorized("用户不存在，无法刷新令牌", nil)
		}
		return vo.TokenPair{}, apperrors.Application("查询本地用户失败", err)
	}
	if user.Blocked {
		return vo.TokenPair{}, apperrors.Unauthorized("账号已被封禁", nil)
	}

	pair, err := s.issue(subjectOf(user, claims.FirebaseUID, claims.Platform))
	if err != nil {
		return vo.TokenPair{}, err
	}
	s.revoke(ctx, operation, claims)
	return pair, nil
}

func (s *authTokenService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	const operation = "AuthTokenService.Logout"

	if accessToken != "" {
		if claims, err := s.jwtUtil.ParseAccessToken(accessToken); err == nil {
			s.revoke(ctx, operation, claims)
		} else {
			s.logger.Debug("退出登录时会话令牌无效，忽略", zap.String("operation", operation), zap.Error(err))
		}
	}
	if refreshToken != "" {
		if claims, err := s.jwtUtil.ParseRefreshToken(refreshToken); err == nil {
			s.revoke(ctx, operation, claims)
		} else {
			s.logger.Debug("退出登录时刷新令牌无效，忽略", zap.String("operation", operation), zap.Error(err))
		}
	}
	return nil
}

// revoke 按剩余有效期把 JTI 加入黑名单；失败只记录日志
func (s *authTokenService) revoke(ctx context.Context, operation string, claims *dependencies.CustomClaims) {
	if claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.tokenBlackRepo.AddJtiToBlacklist(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("将 JTI 加入黑名单失败",
			zap.String("operation", operation),
			zap.String("jti", claims.ID),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)
	}
}

func (s *authTokenService) issue(subject dependencies.SessionSubject) (vo.TokenPair, error) {
	access, err := s.jwtUtil.GenerateAccessToken(subject)
	if err != nil {
		return vo.TokenPair{}, apperrors.Application("生成会话令牌失败", err)
	}
	refresh, err := s.jwtUtil.GenerateRefreshToken(subject)
	if err != nil {
		return vo.TokenPair{}, apperrors.Application("生成刷新令牌失败", err)
	}
	return vo.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func subjectOf(user *entities.LocalUser, uid string, platform enums.Platform) dependencies.SessionSubject {
	role := enums.RoleUser
	if strings.Contains(strings.ToLower(user.RoleType), "admin") {
		role = enums.RoleAdmin
	}
	status := enums.StatusActive
	if user.Blocked {
		status = enums.StatusBlacklisted
	}
	return dependencies.SessionSubject{
		LocalUserID: user.ID,
		DocumentID:  user.DocumentID,
		FirebaseUID: uid,
		Role:        role,
		Status:      status,
		Platform:    platform,
	}
}

func sessionUser(user *entities.LocalUser, uid string) vo.SessionUser {
	su := vo.SessionUser{
		ID:          user.ID,
		DocumentID:  user.DocumentID,
		Username:    user.Username,
		Role:        user.RoleType,
		Confirmed:   user.Confirmed,
		FirebaseUID: uid,
	}
	if user.Email != nil {
		su.Email = *user.Email
	}
	if user.PhoneNumber != nil {
		su.PhoneNumber = *user.PhoneNumber
	}
	return su
}
