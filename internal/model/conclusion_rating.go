package model

// ConclusionRating 课程总结页的 1-5 星评分，仅用于展示/分析，不回流进度百分比
// swagger:model ConclusionRating
type ConclusionRating struct {
	UUIDBase
	UserID   uint   `gorm:"index:idx_user_lesson_rating,unique;type:bigint unsigned" json:"userId"`
	LessonID string `gorm:"size:64;index:idx_user_lesson_rating,unique" json:"lessonId"`
	Stars    int    `gorm:"not null" json:"stars"`
	Comment  string `gorm:"type:text" json:"comment,omitempty"`
}

func (ConclusionRating) TableName() string {
	return "conclusion_ratings"
}
