package controller

import (
	"copilot_inside_backend/internal/service"
	"copilot_inside_backend/internal/util"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// ChatController 聊天练习的流式端点。回复以 SSE token 流下发，
// 客户端断开时上游请求一并取消。
type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

// StreamRequest 一轮聊天输入
type StreamRequest struct {
	LessonID   string `json:"lessonId" binding:"required"`
	ActivityID string `json:"activityId" binding:"required"`
	Prompt     string `json:"prompt" binding:"required"`
}

// Stream godoc
// @Summary 聊天练习流式回复
// @Description 保存用户消息后按 SSE 推送助手回复 token，流尾发送 [DONE]
// @Tags 聊天练习
// @Accept  json
// @Produce  text/event-stream
// @Security ApiKeyAuth
// @Param   body body StreamRequest true "聊天输入"
// @Success 200 {string} string "SSE token 流"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 503 {object} util.Response "大模型服务暂不可用"
// @Router /api/chat/stream [post]
func (c *ChatController) Stream(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req StreamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	tokens, errChan, err := c.ChatService.StreamTurn(ctx.Request.Context(), claims.UserID, req.LessonID, req.ActivityID, req.Prompt)
	if err != nil {
		util.RetryableError(ctx, "聊天服务暂不可用，请稍后重试")
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	ctx.Stream(func(w io.Writer) bool {
		select {
		case token, ok := <-tokens:
			if !ok {
				if err, ok := <-errChan; ok && err != nil {
					fmt.Fprintf(w, "event: error\ndata: %s\n\n", "上游中断，请重试")
				} else {
					fmt.Fprint(w, "data: [DONE]\n\n")
				}
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", token)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

// GetHistory godoc
// @Summary 获取聊天历史
// @Description 返回该课程活动下当前用户的全部已存消息
// @Tags 聊天练习
// @Produce  json
// @Security ApiKeyAuth
// @Param   lessonId query string true "课程ID"
// @Param   activityId query string true "活动ID"
// @Success 200 {object} util.Response{data=[]model.ChatMessage} "Success"
// @Router /api/chat/history [get]
func (c *ChatController) GetHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	lessonID := ctx.Query("lessonId")
	activityID := ctx.Query("activityId")
	if lessonID == "" || activityID == "" {
		util.BadRequest(ctx, "lessonId 和 activityId 不能为空")
		return
	}

	messages, err := c.ChatService.History(claims.UserID, lessonID, activityID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, messages)
}
