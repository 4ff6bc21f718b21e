package model

// ActivityEvent 已处理的进度事件流水，只追加，供管理端分析用
type ActivityEvent struct {
	BaseModel
	UserID     uint   `gorm:"index;type:bigint unsigned" json:"userId"`
	LessonID   string `gorm:"size:64;index" json:"lessonId"`
	ActivityID string `gorm:"size:64" json:"activityId"`
	EventType  string `gorm:"size:32" json:"eventType"` // completed 或 step
	StepIndex  *int   `json:"stepIndex,omitempty"`
	Percent    int    `gorm:"default:0" json:"percent"` // 事件处理后的课程百分比
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}
