package controller

import (
	"net/http"
	"strings"

	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/repository/redis"
	"github.com/Xushengqwer/identity_link/service/reconcile"
	"github.com/Xushengqwer/identity_link/service/token"
	"github.com/Xushengqwer/identity_link/utils"
)

// AuthTokenController 处理令牌交换、刷新、退出登录以及公开的忘记密码入口。
// Web 平台的刷新令牌写在 HttpOnly Cookie 中，其余平台放在响应体里。
type AuthTokenController struct {
	tokenService     token.AuthTokenService
	reconcileService reconcile.ReconcileService
	resetLimiter     redis.RateLimiter
	logger           *core.ZapLogger
	cookieConfig     config.CookieConfig
}

func NewAuthTokenController(
	tokenService token.AuthTokenService,
	reconcileService reconcile.ReconcileService,
	resetLimiter redis.RateLimiter,
	logger *core.ZapLogger,
	cookieCfg config.CookieConfig,
) *AuthTokenController {
	return &AuthTokenController{
		tokenService:     tokenService,
		reconcileService: reconcileService,
		resetLimiter:     resetLimiter,
		logger:           logger,
		cookieConfig:     cookieCfg,
	}
}

// Exchange 使用身份提供方的 ID Token 换取 CMS 会话。
// @Summary 令牌交换
// @Description 校验 ID Token；首次登录时按 UID、邮箱、手机号依次查找本地用户并建立关联，找不到则新建本地用户。
// @Tags 认证管理 (Auth)
// @Accept json
// @Produce json
// @Param X-Platform header string true "客户端平台 (web, app)" example("web")
// @Param request body dto.TokenExchangeRequest true "ID Token"
// @Success 200 {object} docs.SwaggerAPIExchangeResponse "交换成功"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "请求参数无效"
// @Failure 401 {object} docs.SwaggerAPIErrorResponseString "ID Token 无效或账号已被封禁"
// @Failure 429 {object} docs.SwaggerAPIErrorResponseString "请求过于频繁"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/auth/exchange [post]
func (ctrl *AuthTokenController) Exchange(c *gin.Context) {
	const operation = "AuthTokenController.Exchange"

	platform, err := enums.PlatformFromString(c.GetHeader("X-Platform"))
	if err != nil {
		ctrl.logger.Warn("平台类型无效", zap.String("operation", operation), zap.String("platformHeader", c.GetHeader("X-Platform")))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的平台类型")
		return
	}

	var req dto.TokenExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}

	result, err := ctrl.tokenService.Exchange(c.Request.Context(), req.IDToken, platform, requestMeta(c))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}

	if platform == enums.PlatformWeb {
		ctrl.setRefreshCookie(c, result.Token.RefreshToken)
		result.Token.RefreshToken = ""
	}
	response.RespondSuccess(c, result, "登录成功")
}

// RefreshToken 使用刷新令牌获取新的令牌对。
// @Summary 刷新令牌
// @Description Web 平台从 Cookie 读取刷新令牌，其余平台从请求体读取。旧刷新令牌随即失效。
// @Tags 认证管理 (Auth)
// @Accept json
// @Produce json
// @Param X-Platform header string false "客户端平台 (web, app)"
// @Param request body dto.RefreshTokenRequest false "非 Web 平台传入 refreshToken"
// @Success 200 {object} docs.SwaggerAPITokenPairResponse "刷新成功"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "未提供刷新令牌"
// @Failure 401 {object} docs.SwaggerAPIErrorResponseString "刷新令牌无效、已吊销或账号已被封禁"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/auth/refresh [post]
func (ctrl *AuthTokenController) RefreshToken(c *gin.Context) {
	const operation = "AuthTokenController.RefreshToken"

	platform, err := enums.PlatformFromString(c.GetHeader("X-Platform"))
	if err != nil {
		platform = enums.PlatformApp
	}

	refreshToken := ctrl.refreshTokenFrom(c, platform)
	if refreshToken == "" {
		ctrl.logger.Warn("刷新令牌请求未携带刷新令牌", zap.String("operation", operation))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "未提供有效的刷新令牌")
		return
	}

	pair, err := ctrl.tokenService.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}

	if platform == enums.PlatformWeb {
		ctrl.setRefreshCookie(c, pair.RefreshToken)
		response.RespondSuccess(c, vo.TokenPair{AccessToken: pair.AccessToken}, "刷新成功")
		return
	}
	response.RespondSuccess(c, pair, "刷新成功")
}

// Logout 吊销会话令牌和刷新令牌。
// @Summary 退出登录
// @Description 吊销 Authorization 头中的会话令牌，以及 Cookie 或请求体中的刷新令牌。客户端随后应清除本地令牌。
// @Tags 认证管理 (Auth)
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer <会话令牌>"
// @Param request body dto.RefreshTokenRequest false "非 Web 平台传入 refreshToken"
// @Success 200 {object} docs.SwaggerAPIEmptyResponse "退出成功"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/auth/logout [post]
func (ctrl *AuthTokenController) Logout(c *gin.Context) {
	const operation = "AuthTokenController.Logout"

	platform, err := enums.PlatformFromString(c.GetHeader("X-Platform"))
	if err != nil {
		platform = enums.PlatformApp
	}

	accessToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if accessToken == c.GetHeader("Authorization") {
		accessToken = ""
	}
	refreshToken := ctrl.refreshTokenFrom(c, platform)

	if err := ctrl.tokenService.Logout(c.Request.Context(), accessToken, refreshToken); err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}

	if platform == enums.PlatformWeb {
		ctrl.clearRefreshCookie(c)
	}
	response.RespondSuccess(c, vo.Empty{}, "退出成功")
}

// ForgotPassword 公开的忘记密码入口。
// @Summary 忘记密码
// @Description 向邮箱发送重置密码邮件。无论邮箱是否存在、是否被限流，都返回成功。
// @Tags 认证管理 (Auth)
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "邮箱"
// @Success 200 {object} docs.SwaggerAPIEmptyResponse "请求已受理"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "邮箱格式无效"
// @Router /api/v1/identity-link/auth/forgot-password [post]
func (ctrl *AuthTokenController) ForgotPassword(c *gin.Context) {
	const operation = "AuthTokenController.ForgotPassword"

	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if ctrl.resetLimiter != nil {
		res, err := ctrl.resetLimiter.Allow(c.Request.Context(), email)
		if err != nil {
			ctrl.logger.Warn("重置密码限流检查失败，放行", zap.String("operation", operation), zap.Error(err))
		} else if !res.Allowed {
			ctrl.logger.Warn("重置密码请求被限流", zap.String("operation", operation), zap.Duration("retryAfter", res.RetryAfter))
			response.RespondSuccess(c, vo.Empty{}, "如果该邮箱已注册，将收到重置密码邮件")
			return
		}
	}

	result, err := ctrl.reconcileService.SendPasswordResetEmail(c.Request.Context(), email, requestMeta(c))
	if err != nil {
		ctrl.logger.Error("发送重置密码邮件失败", zap.String("operation", operation), zap.Error(err))
	} else if !result.Delivered {
		ctrl.logger.Info("重置密码邮件未发送", zap.String("operation", operation))
	}
	response.RespondSuccess(c, vo.Empty{}, "如果该邮箱已注册，将收到重置密码邮件")
}

// refreshTokenFrom Web 平台读 Cookie，其余平台读请求体
func (ctrl *AuthTokenController) refreshTokenFrom(c *gin.Context, platform enums.Platform) string {
	if platform == enums.PlatformWeb {
		rt, err := c.Cookie(ctrl.cookieConfig.RefreshTokenName)
		if err != nil {
			return ""
		}
		return rt
	}
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength == 0 {
		return ""
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func (ctrl *AuthTokenController) setRefreshCookie(c *gin.Context, value string) {
	http.SetCookie(c.Writer, utils.RefreshTokenCookie(ctrl.cookieConfig, value, constants.RefreshTokenTTL))
}

func (ctrl *AuthTokenController) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, utils.RefreshTokenCookie(ctrl.cookieConfig, "", 0))
}

// RegisterRoutes 认证相关路由均为公开接口，令牌本身即凭证
func (ctrl *AuthTokenController) RegisterRoutes(group *gin.RouterGroup) {
	authRoutes := group.Group("/auth")
	{
		authRoutes.POST("/exchange", ctrl.Exchange)
		authRoutes.POST("/refresh", ctrl.RefreshToken)
		authRoutes.POST("/logout", ctrl.Logout)
		authRoutes.POST("/forgot-password", ctrl.ForgotPassword)
	}
}
