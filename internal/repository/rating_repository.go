package repository

import (
	"copilot_inside_backend/internal/model"

	"gorm.io/gorm"
)

type RatingRepository struct {
	DB *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{DB: db}
}

// Upsert 同一 (用户, 课程) 重复评分按覆盖处理
func (r *RatingRepository) Upsert(rating *model.ConclusionRating) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.ConclusionRating
		err := tx.Where("user_id = ? AND lesson_id = ?", rating.UserID, rating.LessonID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(rating).Error
		}
		if err != nil {
			return err
		}
		existing.Stars = rating.Stars
		existing.Comment = rating.Comment
		*rating = existing
		return tx.Save(&existing).Error
	})
}

type LessonRatingStat struct {
	LessonID string  `json:"lessonId"`
	Average  float64 `json:"average"`
	Count    int64   `json:"count"`
}

// StatsByLesson 各课程评分均值，管理端展示用
func (r *RatingRepository) StatsByLesson() ([]LessonRatingStat, error) {
	var stats []LessonRatingStat
	err := r.DB.Model(&model.ConclusionRating{}).
		Select("lesson_id, AVG(stars) AS average, COUNT(*) AS count").
		Group("lesson_id").
		Scan(&stats).Error
	return stats, err
}
