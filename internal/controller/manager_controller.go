package controller

import (
	"copilot_inside_backend/internal/service"
	"copilot_inside_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ManagerController 主管端：学员名单与培训完成度概览
type ManagerController struct {
	AnalyticsService *service.AnalyticsService
	UserService      *service.UserService
}

func NewManagerController(analyticsService *service.AnalyticsService, userService *service.UserService) *ManagerController {
	return &ManagerController{
		AnalyticsService: analyticsService,
		UserService:      userService,
	}
}

// GetOverview godoc
// @Summary 培训完成度概览
// @Description 逐学员的课程/模块完成度、事件量、最近活跃与评分统计
// @Tags 管理端
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Overview} "Success"
// @Failure 403 {object} util.Response "需要主管或管理员角色"
// @Router /api/manager/overview [get]
func (c *ManagerController) GetOverview(ctx *gin.Context) {
	overview, err := c.AnalyticsService.Overview()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// ListLearners godoc
// @Summary 学员名单
// @Description 返回全部学员账号
// @Tags 管理端
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User} "Success"
// @Failure 403 {object} util.Response "需要主管或管理员角色"
// @Router /api/manager/learners [get]
func (c *ManagerController) ListLearners(ctx *gin.Context) {
	learners, err := c.UserService.ListLearners()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, learners)
}
