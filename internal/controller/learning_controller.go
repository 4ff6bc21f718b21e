package controller

import (
	"copilot_inside_backend/internal/service"
	"copilot_inside_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// LearningController 学习主流程：目录、续学、活动事件、序列推进
type LearningController struct {
	ProgressService *service.ProgressService
	RatingService   *service.RatingService
}

func NewLearningController(progressService *service.ProgressService, ratingService *service.RatingService) *LearningController {
	return &LearningController{
		ProgressService: progressService,
		RatingService:   ratingService,
	}
}

// GetCatalog godoc
// @Summary 获取课程目录
// @Description 目录树、各课程完成百分比、模块汇总与续学位置一次取齐
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.CatalogView} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 503 {object} util.Response "存储暂不可用"
// @Router /api/learning/catalog [get]
func (c *LearningController) GetCatalog(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	view, err := c.ProgressService.CatalogForUser(claims.UserID)
	if err != nil {
		util.RetryableError(ctx, "进度存储暂不可用，请稍后重试")
		return
	}
	util.Success(ctx, view)
}

// GetPosition godoc
// @Summary 冷启动续学位置
// @Description 有保存的指针回到该活动，否则落到模块第一课的默认活动
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   moduleId query string false "模块ID，缺省取第一个模块"
// @Success 200 {object} util.Response{data=progress.Position} "Success"
// @Failure 503 {object} util.Response "存储暂不可用"
// @Router /api/learning/position [get]
func (c *LearningController) GetPosition(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	pos, err := c.ProgressService.ResumePosition(claims.UserID, ctx.Query("moduleId"))
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
			return
		}
		util.RetryableError(ctx, "进度存储暂不可用，请稍后重试")
		return
	}
	util.Success(ctx, pos)
}

// PostEvent godoc
// @Summary 上报活动事件
// @Description 布尔完成或步骤/卡片下标；返回重算后的百分比和下一个位置
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ActivityEventRequest true "活动事件"
// @Success 200 {object} util.Response{data=service.EventResult} "Success"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "课程或活动不存在"
// @Failure 503 {object} util.Response "存储暂不可用，可重试"
// @Router /api/learning/events [post]
func (c *LearningController) PostEvent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.ActivityEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.ApplyEvent(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound), errors.Is(err, util.ErrActivityNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStoreUnavailable):
			util.RetryableError(ctx, "进度写入失败，请重试")
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Success(ctx, result)
}

// AdvanceRequest 当前所在位置
type AdvanceRequest struct {
	LessonID   string `json:"lessonId" binding:"required"`
	ActivityID string `json:"activityId" binding:"required"`
}

// Advance godoc
// @Summary 推进到下一个活动
// @Description 课内顺序推进，课尾跨到下一课；模块耗尽时 exhausted=true
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AdvanceRequest true "当前位置"
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/learning/advance [post]
func (c *LearningController) Advance(ctx *gin.Context) {
	var req AdvanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pos, ok := c.ProgressService.Advance(req.LessonID, req.ActivityID)
	if !ok {
		util.Success(ctx, gin.H{"exhausted": true})
		return
	}
	util.Success(ctx, gin.H{"exhausted": false, "position": pos})
}

// JumpToConclusion godoc
// @Summary 跳到本课总结页
// @Description 无论当前在哪个活动都直达总结，并持久化续学指针
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   lessonId path string true "课程ID"
// @Success 200 {object} util.Response{data=progress.Position} "Success"
// @Failure 404 {object} util.Response "课程不存在或没有总结活动"
// @Router /api/learning/lessons/{lessonId}/conclusion [post]
func (c *LearningController) JumpToConclusion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	pos, ok := c.ProgressService.JumpToConclusion(claims.UserID, ctx.Param("lessonId"))
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, pos)
}

// SelectRequest 直接导航目标
type SelectRequest struct {
	LessonID   string `json:"lessonId" binding:"required"`
	ActivityID string `json:"activityId" binding:"required"`
}

// SelectActivity godoc
// @Summary 直接导航到指定活动
// @Description 序列器不做解锁门控，任意目录内活动可直达
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SelectRequest true "导航目标"
// @Success 200 {object} util.Response{data=progress.Position} "Success"
// @Failure 404 {object} util.Response "课程或活动不存在"
// @Router /api/learning/select [post]
func (c *LearningController) SelectActivity(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req SelectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pos, ok := c.ProgressService.SelectActivity(claims.UserID, req.LessonID, req.ActivityID)
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, pos)
}

// RatingRequest 总结页星级评分
type RatingRequest struct {
	LessonID string `json:"lessonId" binding:"required"`
	Stars    int    `json:"stars" binding:"required"`
	Comment  string `json:"comment"`
}

// RateLesson godoc
// @Summary 提交课程评分
// @Description 总结页 1-5 星评分，重复提交覆盖旧值；评分不影响进度百分比
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body RatingRequest true "评分"
// @Success 200 {object} util.Response{data=model.ConclusionRating} "Success"
// @Failure 400 {object} util.Response "星级超出范围"
// @Failure 404 {object} util.Response "课程不存在或没有总结活动"
// @Router /api/learning/ratings [post]
func (c *LearningController) RateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req RatingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rating, err := c.RatingService.Rate(claims.UserID, req.LessonID, req.Stars, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrRatingOutOfRange):
			util.BadRequest(ctx, "星级必须在 1 到 5 之间")
		case errors.Is(err, util.ErrLessonNotFound), errors.Is(err, util.ErrNoConclusion):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, rating)
}
