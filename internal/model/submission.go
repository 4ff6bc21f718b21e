package model

type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionGraded  SubmissionStatus = "graded"
	SubmissionFailed  SubmissionStatus = "failed"
)

// UploadSubmission 文件上传练习的提交：文件进对象存储，正文送外部批改
type UploadSubmission struct {
	UUIDBase
	UserID     uint             `gorm:"index;type:bigint unsigned" json:"userId"`
	LessonID   string           `gorm:"size:64;index" json:"lessonId"`
	ActivityID string           `gorm:"size:64" json:"activityId"`
	CardIndex  int              `gorm:"default:0" json:"cardIndex"`
	FileName   string           `gorm:"size:255" json:"fileName"`
	FileURL    string           `gorm:"size:512" json:"fileUrl"`
	Content    string           `gorm:"type:text" json:"content"` // 提取出的正文，由前端/转换器提供
	Feedback   string           `gorm:"type:text" json:"feedback,omitempty"`
	Status     SubmissionStatus `gorm:"type:enum('pending','graded','failed');default:'pending'" json:"status"`
}

func (UploadSubmission) TableName() string {
	return "upload_submissions"
}
