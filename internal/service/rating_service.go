package service

import (
	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/repository"
	"copilot_inside_backend/internal/util"
)

// RatingService 总结页的星级评分。评分只进分析，不回流进度百分比。
type RatingService struct {
	RatingRepo *repository.RatingRepository
	Progress   *ProgressService
}

func NewRatingService(ratingRepo *repository.RatingRepository, progress *ProgressService) *RatingService {
	return &RatingService{RatingRepo: ratingRepo, Progress: progress}
}

func (s *RatingService) Rate(userID uint, lessonID string, stars int, comment string) (*model.ConclusionRating, error) {
	if stars < 1 || stars > 5 {
		return nil, util.ErrRatingOutOfRange
	}

	cat := s.Progress.Catalog()
	lesson, ok := cat.Lesson(lessonID)
	if !ok {
		return nil, util.ErrLessonNotFound
	}
	if _, ok := lesson.ConclusionActivity(); !ok {
		return nil, util.ErrNoConclusion
	}

	rating := &model.ConclusionRating{
		UserID:   userID,
		LessonID: lessonID,
		Stars:    stars,
		Comment:  comment,
	}
	if err := s.RatingRepo.Upsert(rating); err != nil {
		return nil, err
	}
	return rating, nil
}
