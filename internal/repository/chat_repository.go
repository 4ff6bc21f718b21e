package repository

import (
	"copilot_inside_backend/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	historyCacheKeyPrefix = "chat:history:"
	historyCacheTTL       = 30 * time.Minute
	historyLimit          = 40
)

// ChatRepository 会话落 MySQL，最近历史走 Redis 缓存
type ChatRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewChatRepository(db *gorm.DB, rdb *redis.Client) *ChatRepository {
	return &ChatRepository{DB: db, Redis: rdb}
}

func (r *ChatRepository) FindOrCreateConversation(userID uint, lessonID, activityID string) (*model.ChatConversation, error) {
	var conv model.ChatConversation
	err := r.DB.Where("user_id = ? AND lesson_id = ? AND activity_id = ?", userID, lessonID, activityID).
		First(&conv).Error
	if err == gorm.ErrRecordNotFound {
		conv = model.ChatConversation{
			UserID:     userID,
			LessonID:   lessonID,
			ActivityID: activityID,
			Title:      fmt.Sprintf("%s/%s", lessonID, activityID),
		}
		if err := r.DB.Create(&conv).Error; err != nil {
			return nil, err
		}
		return &conv, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ChatRepository) AppendMessage(msg *model.ChatMessage) error {
	if err := r.DB.Create(msg).Error; err != nil {
		return err
	}
	// 写入后让缓存失效，下次读取时重建
	if r.Redis != nil {
		r.Redis.Del(context.Background(), historyCacheKeyPrefix+msg.ConversationID)
	}
	return nil
}

// History 返回会话的最近消息，按时间升序。优先读 Redis，未命中回源 MySQL。
func (r *ChatRepository) History(conversationID string) ([]model.ChatMessage, error) {
	ctx := context.Background()
	cacheKey := historyCacheKeyPrefix + conversationID

	if r.Redis != nil {
		if cached, err := r.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var msgs []model.ChatMessage
			if err := json.Unmarshal([]byte(cached), &msgs); err == nil {
				return msgs, nil
			}
		}
	}

	// 截断要留最新的 N 条，所以先倒序取再翻回升序
	var msgs []model.ChatMessage
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if r.Redis != nil {
		if data, err := json.Marshal(msgs); err == nil {
			r.Redis.Set(ctx, cacheKey, data, historyCacheTTL)
		}
	}

	return msgs, nil
}
