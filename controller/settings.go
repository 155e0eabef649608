package controller

import (
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/service/settings"
)

// SettingsController 服务账号凭证的上传、查看与删除
type SettingsController struct {
	settingsService settings.SettingsService
	logger          *core.ZapLogger
}

func NewSettingsController(settingsService settings.SettingsService, logger *core.ZapLogger) *SettingsController {
	return &SettingsController{settingsService: settingsService, logger: logger}
}

// Get 查看配置状态。
// @Summary 查看服务账号状态 (管理员)
// @Tags 插件配置 (Settings)
// @Produce json
// @Success 200 {object} docs.SwaggerAPISettingsStatusResponse "查询成功，不包含私钥"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/settings [get]
func (ctrl *SettingsController) Get(c *gin.Context) {
	status, err := ctrl.settingsService.GetStatus(c.Request.Context())
	if err != nil {
		respondServiceError(c, ctrl.logger, "SettingsController.Get", err)
		return
	}
	response.RespondSuccess(c, status, "查询成功")
}

// Save 上传服务账号 JSON。
// @Summary 上传服务账号 (管理员)
// @Description 凭证加密后保存，并立即切换身份提供方客户端；凭证无效时保持原客户端。
// @Tags 插件配置 (Settings)
// @Accept json
// @Produce json
// @Param body body dto.ServiceAccountUpload true "服务账号 JSON 原文"
// @Success 200 {object} docs.SwaggerAPISettingsStatusResponse "保存成功"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "凭证格式错误或无法初始化"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "主密钥未配置或系统内部错误"
// @Router /api/v1/identity-link/admin/settings [put]
func (ctrl *SettingsController) Save(c *gin.Context) {
	const operation = "SettingsController.Save"

	var req dto.ServiceAccountUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	status, err := ctrl.settingsService.SaveServiceAccount(c.Request.Context(), req.ServiceAccountJSON, requestMeta(c))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, status, "保存成功")
}

// Delete 删除服务账号。
// @Summary 删除服务账号 (管理员)
// @Tags 插件配置 (Settings)
// @Produce json
// @Success 200 {object} docs.SwaggerAPIEmptyResponse "删除成功"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/settings [delete]
func (ctrl *SettingsController) Delete(c *gin.Context) {
	if err := ctrl.settingsService.DeleteServiceAccount(c.Request.Context(), requestMeta(c)); err != nil {
		respondServiceError(c, ctrl.logger, "SettingsController.Delete", err)
		return
	}
	response.RespondSuccess(c, vo.Empty{}, "删除成功")
}

func (ctrl *SettingsController) RegisterRoutes(group *gin.RouterGroup) {
	s := group.Group("/admin/settings")
	{
		s.GET("", ctrl.Get)
		s.PUT("", ctrl.Save)
		s.DELETE("", ctrl.Delete)
	}
}
