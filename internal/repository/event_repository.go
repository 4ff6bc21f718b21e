package repository

import (
	"copilot_inside_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) Create(ev *model.ActivityEvent) error {
	return r.DB.Create(ev).Error
}

func (r *EventRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ActivityEvent{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountSince 最近一段时间的事件量，管理端活跃度展示用
func (r *EventRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ActivityEvent{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *EventRepository) LastEventTime(userID uint) (*time.Time, error) {
	var ev model.ActivityEvent
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").First(&ev).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev.CreatedAt, nil
}
