package controller

import (
	"net/http"

	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/enums"
	"github.com/Xushengqwer/identity_link/service/reconcile"
)

// AdminUserController 管理后台的合并用户视图：列表、详情、创建、更新、删除和重置密码。
// 认证与管理员权限由上游网关负责。
type AdminUserController struct {
	reconcileService reconcile.ReconcileService
	logger           *core.ZapLogger
}

func NewAdminUserController(reconcileService reconcile.ReconcileService, logger *core.ZapLogger) *AdminUserController {
	return &AdminUserController{reconcileService: reconcileService, logger: logger}
}

// ListUsers 分页查询合并后的用户视图。
// @Summary 用户列表 (管理员)
// @Description 搜索词像手机号/邮箱/UID/本地 ID 时先做精确查找；带搜索或排序时全量拉取后过滤排序；否则按身份提供方游标分页。
// @Tags 用户管理 (Admin Users)
// @Produce json
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页大小" default(10)
// @Param sort query string false "排序，例如 createdAt:DESC"
// @Param search query string false "搜索词"
// @Param pageToken query string false "身份提供方续页令牌"
// @Success 200 {object} docs.SwaggerAPIUserListResponse "查询成功"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "请求参数无效"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/users [get]
func (ctrl *AdminUserController) ListUsers(c *gin.Context) {
	const operation = "AdminUserController.ListUsers"

	var query dto.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	result, err := ctrl.reconcileService.ListUsers(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, result, "查询成功")
}

// GetUser 获取单个用户的合并视图。
// @Summary 用户详情 (管理员)
// @Tags 用户管理 (Admin Users)
// @Produce json
// @Param uid path string true "身份提供方 UID"
// @Success 200 {object} docs.SwaggerAPIMergedUserResponse "查询成功"
// @Failure 404 {object} docs.SwaggerAPIErrorResponseString "用户不存在"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/users/{uid} [get]
func (ctrl *AdminUserController) GetUser(c *gin.Context) {
	const operation = "AdminUserController.GetUser"

	view, err := ctrl.reconcileService.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, view, "查询成功")
}

// CreateUser 在身份提供方创建用户并建立本地用户。
// @Summary 创建用户 (管理员)
// @Description 本地建档失败不会回滚身份提供方，结果中 local.status 为 rejected。
// @Tags 用户管理 (Admin Users)
// @Accept json
// @Produce json
// @Param body body dto.CreateUserRequest true "创建用户请求"
// @Success 200 {object} docs.SwaggerAPICreateUserResponse "创建完成，两端结果分别报告"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "请求参数无效"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/users [post]
func (ctrl *AdminUserController) CreateUser(c *gin.Context) {
	const operation = "AdminUserController.CreateUser"

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	result, err := ctrl.reconcileService.CreateUser(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	ctrl.logger.Info("管理员创建用户",
		zap.String("operation", operation),
		zap.String("uid", result.User.UID),
		zap.String("local", string(result.Local.Status)),
	)
	response.RespondSuccess(c, result, "用户创建成功")
}

// UpdateUser 更新身份提供方用户，并同步已关联的本地用户。
// @Summary 更新用户 (管理员)
// @Tags 用户管理 (Admin Users)
// @Accept json
// @Produce json
// @Param uid path string true "身份提供方 UID"
// @Param body body dto.UpdateUserRequest true "为空的字段保持不变"
// @Success 200 {object} docs.SwaggerAPIMergedUserResponse "更新成功；本地同步失败时 warnings 含 local_sync_failed"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "请求参数无效"
// @Failure 404 {object} docs.SwaggerAPIErrorResponseString "用户不存在"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/users/{uid} [put]
func (ctrl *AdminUserController) UpdateUser(c *gin.Context) {
	const operation = "AdminUserController.UpdateUser"

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	view, err := ctrl.reconcileService.UpdateUser(c.Request.Context(), c.Param("uid"), req, requestMeta(c))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, view, "更新成功")
}

// DeleteUser 删除用户，两端结果分别报告。
// @Summary 删除用户 (管理员)
// @Tags 用户管理 (Admin Users)
// @Produce json
// @Param uid path string true "身份提供方 UID"
// @Param destination query string false "provider / local，为空表示两端"
// @Success 200 {object} docs.SwaggerAPIDeleteResponse "删除完成，每端为 fulfilled / rejected / skipped"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "请求参数无效"
// @Router /api/v1/identity-link/admin/users/{uid} [delete]
func (ctrl *AdminUserController) DeleteUser(c *gin.Context) {
	const operation = "AdminUserController.DeleteUser"

	destination := enums.DeleteDestination(c.Query("destination"))
	result, err := ctrl.reconcileService.DeleteUser(c.Request.Context(), c.Param("uid"), destination, requestMeta(c))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, result, "删除完成")
}

// DeleteMany 批量删除。
// @Summary 批量删除用户 (管理员)
// @Tags 用户管理 (Admin Users)
// @Accept json
// @Produce json
// @Param body body dto.DeleteManyRequest true "待删除的 UID 列表"
// @Success 200 {object} docs.SwaggerAPIDeleteManyResponse "删除完成，按输入顺序返回每个用户的结果"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "请求参数无效"
// @Router /api/v1/identity-link/admin/users/delete-many [post]
func (ctrl *AdminUserController) DeleteMany(c *gin.Context) {
	const operation = "AdminUserController.DeleteMany"

	var req dto.DeleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	results, err := ctrl.reconcileService.DeleteMany(c.Request.Context(), req.UIDs, enums.DeleteDestination(req.Destination), requestMeta(c))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, results, "删除完成")
}

// ResetPassword 为指定用户发送重置密码邮件。
// @Summary 发送重置密码邮件 (管理员)
// @Description 生成链接超时时使用降级链接，degraded 为 true。
// @Tags 用户管理 (Admin Users)
// @Produce json
// @Param uid path string true "身份提供方 UID"
// @Success 200 {object} docs.SwaggerAPIResetLinkResponse "处理完成"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "用户没有邮箱"
// @Failure 404 {object} docs.SwaggerAPIErrorResponseString "用户不存在"
// @Router /api/v1/identity-link/admin/users/{uid}/reset-password [post]
func (ctrl *AdminUserController) ResetPassword(c *gin.Context) {
	const operation = "AdminUserController.ResetPassword"

	result, err := ctrl.reconcileService.ResetPassword(c.Request.Context(), c.Param("uid"), requestMeta(c))
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	if !result.Delivered {
		response.RespondError(c, http.StatusBadGateway, response.ErrCodeThirdPartyServiceError, "重置密码邮件投递失败")
		return
	}
	response.RespondSuccess(c, result, "重置密码邮件已发送")
}

// RegisterRoutes 注册到 /admin/users
func (ctrl *AdminUserController) RegisterRoutes(group *gin.RouterGroup) {
	users := group.Group("/admin/users")
	{
		users.GET("", ctrl.ListUsers)
		users.POST("", ctrl.CreateUser)
		users.POST("/delete-many", ctrl.DeleteMany)
		users.GET("/:uid", ctrl.GetUser)
		users.PUT("/:uid", ctrl.UpdateUser)
		users.DELETE("/:uid", ctrl.DeleteUser)
		users.POST("/:uid/reset-password", ctrl.ResetPassword)
	}
}
