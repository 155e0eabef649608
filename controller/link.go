package controller

import (
	"net/http"
	"strconv"

	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/constants"
	"github.com/Xushengqwer/identity_link/models/dto"
	"github.com/Xushengqwer/identity_link/models/entities"
	"github.com/Xushengqwer/identity_link/models/vo"
	"github.com/Xushengqwer/identity_link/service/autolink"
	"github.com/Xushengqwer/identity_link/service/linktable"
)

// LinkController 关联表维护：手动关联、解除关联、重复检查和自动关联。
type LinkController struct {
	linkService     linktable.LinkTableService
	autoLinkService autolink.AutoLinkService
	logger          *core.ZapLogger
}

func NewLinkController(linkService linktable.LinkTableService, autoLinkService autolink.AutoLinkService, logger *core.ZapLogger) *LinkController {
	return &LinkController{linkService: linkService, autoLinkService: autoLinkService, logger: logger}
}

func toLinkVO(link *entities.UserLink) vo.LinkVO {
	out := vo.LinkVO{
		ID:          link.ID,
		LocalUserID: link.LocalUserID,
		FirebaseUID: link.FirebaseUID,
		UpdatedAt:   link.UpdatedAt,
	}
	if link.AppleEmail != nil {
		out.AppleEmail = *link.AppleEmail
	}
	return out
}

func parseLocalUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("localUserId"), 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "localUserId 必须为正整数")
		return 0, false
	}
	return uint(id), true
}

// AutoLink 按邮箱/手机号为历史本地用户建立关联。
// @Summary 自动关联 (管理员)
// @Description 一次性迁移任务；dryRun=true 时只返回匹配结果不写入。同一时间只允许一个任务运行。
// @Tags 关联管理 (Links)
// @Accept json
// @Produce json
// @Param body body dto.AutoLinkOptions false "运行选项"
// @Success 200 {object} docs.SwaggerAPIAutoLinkResponse "执行完成"
// @Failure 409 {object} docs.SwaggerAPIErrorResponseString "已有任务在运行"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/links/auto-link [post]
func (ctrl *LinkController) AutoLink(c *gin.Context) {
	const operation = "LinkController.AutoLink"

	var opts dto.AutoLinkOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			respondBindError(c, ctrl.logger, operation, err)
			return
		}
	}
	result, err := ctrl.autoLinkService.LinkAllUsers(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	ctrl.logger.Info("管理员触发自动关联",
		zap.String("operation", operation),
		zap.String("actor", c.GetString(constants.UserIDKey)),
		zap.Bool("dryRun", opts.DryRun),
		zap.Int("linked", result.Linked),
	)
	response.RespondSuccess(c, result, "自动关联完成")
}

// Duplicates 列出同一本地用户的重复关联。
// @Summary 重复关联检查 (管理员)
// @Tags 关联管理 (Links)
// @Produce json
// @Success 200 {object} docs.SwaggerAPIDuplicateLinksResponse "查询成功"
// @Failure 500 {object} docs.SwaggerAPIErrorResponseString "系统内部错误"
// @Router /api/v1/identity-link/admin/links/duplicates [get]
func (ctrl *LinkController) Duplicates(c *gin.Context) {
	const operation = "LinkController.Duplicates"

	dups, err := ctrl.linkService.FindDuplicates(c.Request.Context())
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, dups, "查询成功")
}

// UpdateLink 为本地用户建立或更新关联。
// @Summary 更新关联 (管理员)
// @Tags 关联管理 (Links)
// @Accept json
// @Produce json
// @Param localUserId path int true "本地用户 ID"
// @Param body body dto.LinkUpdate true "首次关联必须提供 firebaseUID"
// @Success 200 {object} docs.SwaggerAPILinkResponse "更新成功"
// @Failure 400 {object} docs.SwaggerAPIErrorResponseString "参数无效或 UID 已关联其他用户"
// @Failure 404 {object} docs.SwaggerAPIErrorResponseString "本地用户不存在"
// @Router /api/v1/identity-link/admin/links/{localUserId} [put]
func (ctrl *LinkController) UpdateLink(c *gin.Context) {
	const operation = "LinkController.UpdateLink"

	localUserID, ok := parseLocalUserID(c)
	if !ok {
		return
	}
	var req dto.LinkUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, ctrl.logger, operation, err)
		return
	}
	link, err := ctrl.linkService.UpdateForUser(c.Request.Context(), localUserID, req)
	if err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, toLinkVO(link), "更新成功")
}

// Unlink 解除本地用户的关联。
// @Summary 解除关联 (管理员)
// @Tags 关联管理 (Links)
// @Produce json
// @Param localUserId path int true "本地用户 ID"
// @Success 200 {object} docs.SwaggerAPIEmptyResponse "解除成功"
// @Failure 404 {object} docs.SwaggerAPIErrorResponseString "关联不存在"
// @Router /api/v1/identity-link/admin/links/{localUserId} [delete]
func (ctrl *LinkController) Unlink(c *gin.Context) {
	const operation = "LinkController.Unlink"

	localUserID, ok := parseLocalUserID(c)
	if !ok {
		return
	}
	if err := ctrl.linkService.Unlink(c.Request.Context(), localUserID); err != nil {
		respondServiceError(c, ctrl.logger, operation, err)
		return
	}
	response.RespondSuccess(c, vo.Empty{}, "解除成功")
}

// RegisterRoutes 注册到 /admin/links
func (ctrl *LinkController) RegisterRoutes(group *gin.RouterGroup) {
	links := group.Group("/admin/links")
	{
		links.POST("/auto-link", ctrl.AutoLink)
		links.GET("/duplicates", ctrl.Duplicates)
		links.PUT("/:localUserId", ctrl.UpdateLink)
		links.DELETE("/:localUserId", ctrl.Unlink)
	}
}
