package controller

import (
	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/progress"
	"copilot_inside_backend/internal/service"
	"copilot_inside_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ProgressController 原始进度契约：整条记录直写/读取，
// 面向需要自管进度语义的前端或导入工具
type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// UpsertRequest 整条进度记录，按调用方给的值覆盖
type UpsertRequest struct {
	LessonID         string               `json:"lessonId" binding:"required"`
	Percent          int                  `json:"percent"`
	LastActivity     string               `json:"lastActivity"`
	LastStep         *int                 `json:"lastStep"`
	ActivityProgress progress.ActivityMap `json:"activityProgress"`
}

// Upsert godoc
// @Summary 直写进度记录
// @Description 按 (用户, 课程) 整条覆盖；percent 超界会被截断到 0-100
// @Tags 进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpsertRequest true "进度记录"
// @Success 200 {object} util.Response{data=model.ProgressRecord} "Success"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 503 {object} util.Response "存储暂不可用，可重试"
// @Router /api/progress [post]
func (c *ProgressController) Upsert(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req UpsertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.ProgressService.RawUpsert(claims.UserID, req.LessonID, req.Percent, req.LastActivity, req.LastStep, req.ActivityProgress)
	if err != nil {
		util.RetryableError(ctx, "进度写入失败，请重试")
		return
	}
	util.Success(ctx, record)
}

// GetByUser godoc
// @Summary 读取某用户的全部进度记录
// @Description 学员只能读自己的，主管和管理员可以读任意学员的
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   userId path int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.ProgressRecord} "Success"
// @Failure 403 {object} util.Response "无权查看他人进度"
// @Failure 503 {object} util.Response "存储暂不可用"
// @Router /api/progress/{userId} [get]
func (c *ProgressController) GetByUser(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	userID, err := strconv.ParseUint(ctx.Param("userId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}

	if uint(userID) != claims.UserID && claims.Role != model.Manager && claims.Role != model.Admin {
		util.Forbidden(ctx)
		return
	}

	records, err := c.ProgressService.Records(uint(userID))
	if err != nil {
		util.RetryableError(ctx, "进度存储暂不可用，请稍后重试")
		return
	}
	if records == nil {
		records = []model.ProgressRecord{}
	}
	util.Success(ctx, records)
}
