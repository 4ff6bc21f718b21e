package service

import (
	"context"
	"strings"

	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/repository"
	"copilot_inside_backend/pkg/logger"

	"go.uber.org/zap"
)

// ChatService 聊天练习：历史落库，流式回复走外部大模型代理
type ChatService struct {
	ChatRepo *repository.ChatRepository
	Grading  *GradingService
}

func NewChatService(chatRepo *repository.ChatRepository, grading *GradingService) *ChatService {
	return &ChatService{ChatRepo: chatRepo, Grading: grading}
}

// StreamTurn 一轮对话：保存用户消息，按历史续流，流结束后保存助手回复。
// ctx 取消（用户导航离开）时丢弃未完成的回复，不再写任何东西。
func (s *ChatService) StreamTurn(ctx context.Context, userID uint, lessonID, activityID, prompt string) (<-chan string, <-chan error, error) {
	conv, err := s.ChatRepo.FindOrCreateConversation(userID, lessonID, activityID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.ChatRepo.History(conv.ID)
	if err != nil {
		return nil, nil, err
	}

	turns := make([]AIChatMessage, 0, len(history))
	for _, h := range history {
		turns = append(turns, AIChatMessage{Role: h.Role, Content: h.Content})
	}

	if err := s.ChatRepo.AppendMessage(&model.ChatMessage{
		ConversationID: conv.ID,
		Role:           "user",
		Content:        prompt,
	}); err != nil {
		return nil, nil, err
	}

	tokens, errChan := s.Grading.ChatStream(ctx, "", turns, prompt)

	out := make(chan string)
	outErr := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(outErr)

		var full strings.Builder
		for token := range tokens {
			full.WriteString(token)
			select {
			case out <- token:
			case <-ctx.Done():
				return
			}
		}

		if err, ok := <-errChan; ok && err != nil {
			outErr <- err
			return
		}
		if ctx.Err() != nil {
			return // 放弃的请求不落库
		}

		if full.Len() > 0 {
			if err := s.ChatRepo.AppendMessage(&model.ChatMessage{
				ConversationID: conv.ID,
				Role:           "assistant",
				Content:        full.String(),
			}); err != nil {
				logger.Log.Warn("assistant message write failed", zap.Error(err))
			}
		}
	}()

	return out, outErr, nil
}

// History 返回该活动会话的全部已存消息
func (s *ChatService) History(userID uint, lessonID, activityID string) ([]model.ChatMessage, error) {
	conv, err := s.ChatRepo.FindOrCreateConversation(userID, lessonID, activityID)
	if err != nil {
		return nil, err
	}
	return s.ChatRepo.History(conv.ID)
}
