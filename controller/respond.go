package controller

import (
	"net/http"

	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/apperrors"
	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/models/dto"
)

// errCodeClientConflict 资源状态冲突；公共错误码表没有对应项，按同一编码规则补充
const errCodeClientConflict = 40901

// respondServiceError 按错误分类映射 HTTP 状态码；500 只返回通用消息，细节写日志
func respondServiceError(c *gin.Context, logger *core.ZapLogger, operation string, err error) {
	msg := apperrors.PublicMessage(err)
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		logger.Warn("请求参数无效", zap.String("operation", operation), zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, msg)
	case apperrors.KindNotFound:
		response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, msg)
	case apperrors.KindUnauthorized:
		logger.Warn("认证失败", zap.String("operation", operation), zap.Error(err))
		response.RespondError(c, http.StatusUnauthorized, response.ErrCodeClientUnauthorized, msg)
	case apperrors.KindConflict:
		response.RespondError(c, http.StatusConflict, errCodeClientConflict, msg)
	case apperrors.KindTooManyRequests:
		response.RespondError(c, http.StatusTooManyRequests, response.ErrCodeClientRateLimitExceeded, msg)
	default:
		logger.Error("服务处理失败", zap.String("operation", operation), zap.Error(err))
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, msg)
	}
}

// respondBindError 请求绑定失败统一返回 400
func respondBindError(c *gin.Context, logger *core.ZapLogger, operation string, err error) {
	logger.Warn("请求参数绑定失败", zap.String("operation", operation), zap.Error(err))
	response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求数据无效")
}

// requestMeta 审计日志所需的请求来源；ActorID 由网关注入
func requestMeta(c *gin.Context) dto.RequestMeta {
	return dto.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		ActorID:   c.GetString(constants.UserIDKey),
	}
}
