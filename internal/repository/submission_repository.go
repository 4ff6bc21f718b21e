package repository

import (
	"copilot_inside_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(sub *model.UploadSubmission) error {
	return r.DB.Create(sub).Error
}

func (r *SubmissionRepository) Save(sub *model.UploadSubmission) error {
	return r.DB.Save(sub).Error
}

func (r *SubmissionRepository) FindByID(id string) (*model.UploadSubmission, error) {
	var sub model.UploadSubmission
	err := r.DB.First(&sub, "id = ?", id).Error
	return &sub, err
}

func (r *SubmissionRepository) FindByUserAndActivity(userID uint, lessonID, activityID string) ([]model.UploadSubmission, error) {
	var subs []model.UploadSubmission
	err := r.DB.Where("user_id = ? AND lesson_id = ? AND activity_id = ?", userID, lessonID, activityID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}
