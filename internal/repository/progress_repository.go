package repository

import (
	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/progress"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressRepository 进度存储的持久化适配器。
// Upsert 对 activityProgress 是整体替换语义，读-改-写由上层服务负责。
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Upsert 不存在则创建，存在则覆盖列出的字段，返回落库后的记录
func (r *ProgressRepository) Upsert(userID uint, lessonID string, percent int, lastActivity string, lastStep *int, m progress.ActivityMap) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&record).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		record.UserID = userID
		record.LessonID = lessonID
		record.Percent = percent
		record.LastActivity = lastActivity
		record.LastStep = lastStep
		record.ActivityProgress = datatypes.NewJSONType(m)

		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByLesson 记录不存在时返回 gorm.ErrRecordNotFound
func (r *ProgressRepository) GetByLesson(userID uint, lessonID string) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetAll 用户的完整进度快照，供续学解析和模块汇总用
func (r *ProgressRepository) GetAll(userID uint) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.DB.Where("user_id = ?", userID).Order("lesson_id ASC").Find(&records).Error
	return records, err
}
