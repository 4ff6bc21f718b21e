package controller

import (
	"copilot_inside_backend/internal/service"
	"copilot_inside_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubmissionController 文件上传练习：上传 + 阻塞式批改
type SubmissionController struct {
	SubmissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{SubmissionService: submissionService}
}

// Upload godoc
// @Summary 上传练习文件
// @Description 文件进对象存储，正文随表单提交，返回待批改的提交记录
// @Tags 上传练习
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   lessonId formData string true "课程ID"
// @Param   activityId formData string true "活动ID"
// @Param   cardIndex formData int false "卡片下标"
// @Param   content formData string true "已提取的文档正文"
// @Param   file formData file false "原始文件"
// @Success 201 {object} util.Response{data=model.UploadSubmission} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误或非法文件"
// @Router /api/submissions [post]
func (c *SubmissionController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.SubmitRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	file, _ := ctx.FormFile("file")

	sub, err := c.SubmissionService.Upload(ctx.Request.Context(), claims.UserID, req, file)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, sub)
}

// GradeRequest 批改参数
type GradeRequest struct {
	SubmissionID string `json:"submissionId" binding:"required"`
	Exercise     string `json:"exercise"`
}

// Grade godoc
// @Summary 批改提交
// @Description 阻塞式调用外部批改；通过后自动记一个卡片完成事件。
// @Description 超时返回 503，前端展示重试入口。
// @Tags 上传练习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body GradeRequest true "批改参数"
// @Success 200 {object} util.Response{data=service.GradeOutcome} "Success"
// @Failure 403 {object} util.Response "不是本人的提交"
// @Failure 404 {object} util.Response "提交不存在"
// @Failure 503 {object} util.Response "批改超时或服务不可用，可重试"
// @Router /api/submissions/grade [post]
func (c *SubmissionController) Grade(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.SubmissionService.Grade(ctx.Request.Context(), claims.UserID, req.SubmissionID, req.Exercise)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrGradingTimeout):
			util.RetryableError(ctx, "批改超时，请重试")
		case errors.Is(err, util.ErrGradingUnavailable):
			util.RetryableError(ctx, "批改服务暂不可用，请稍后重试")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, outcome)
}
