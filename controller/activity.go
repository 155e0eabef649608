package controller

import (
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/service/activity"
)

type ActivityController struct {
	activityService activity.ActivityService
	logger          *core.ZapLogger
}

func NewActivityController(activityService activity.ActivityService, logger *core.ZapLogger) *ActivityController {
	return &ActivityController{activityService: activityService, logger: logger}
}

// List 查询审计日志。
// @Summary 审计日志 (管理员)
// @Tags 审计日志 (Activity)
// @Produce json
// @Param uid query string false "身份提供方 UID"
// @Param action query string false "动作，例如 token_exchange"
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页大小" default(20)
// @Success 200 {object} docs.SwaggerAPIActivityListResponse "查询成功，按时间倒序"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "请求参数无效"
// @Router /api/v1/identity-link/admin/activity [get]
func (ctrl *ActivityController) List(c *gin.Context) {
	const operation = "ActivityController.List"

	var query dto.ActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	list, err := ctrl.activityService.List(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, list, "查询成功")
}

func (ctrl *ActivityController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/admin/activity", ctrl.List)
}
