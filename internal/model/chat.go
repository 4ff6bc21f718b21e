package model

// ChatConversation 一个聊天练习活动对应的会话
type ChatConversation struct {
	UUIDBase
	UserID     uint          `gorm:"index;type:bigint unsigned" json:"userId"`
	LessonID   string        `gorm:"size:64;index" json:"lessonId"`
	ActivityID string        `gorm:"size:64" json:"activityId"`
	Title      string        `gorm:"size:255" json:"title"`
	Messages   []ChatMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (ChatConversation) TableName() string {
	return "chat_conversations"
}

type ChatMessage struct {
	UUIDBase
	ConversationID string `gorm:"size:36;index" json:"conversationId"`
	Role           string `gorm:"size:16" json:"role"` // user / assistant / system
	Content        string `gorm:"type:text" json:"content"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
