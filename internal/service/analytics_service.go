package service

import (
	"time"

	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/progress"
	"copilot_inside_backend/internal/repository"
)

// AnalyticsService 管理端汇总：逐学员的模块完成度、评分统计、活跃度
type AnalyticsService struct {
	UserRepo     *repository.UserRepository
	ProgressRepo *repository.ProgressRepository
	RatingRepo   *repository.RatingRepository
	EventRepo    *repository.EventRepository
	Progress     *ProgressService
}

func NewAnalyticsService(
	userRepo *repository.UserRepository,
	progressRepo *repository.ProgressRepository,
	ratingRepo *repository.RatingRepository,
	eventRepo *repository.EventRepository,
	progressService *ProgressService,
) *AnalyticsService {
	return &AnalyticsService{
		UserRepo:     userRepo,
		ProgressRepo: progressRepo,
		RatingRepo:   ratingRepo,
		EventRepo:    eventRepo,
		Progress:     progressService,
	}
}

type LearnerOverview struct {
	UserID        uint           `json:"userId"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	ModulePercent map[string]int `json:"modulePercent"` // moduleID -> 完成度
	LessonPercent map[string]int `json:"lessonPercent"` // lessonID -> 完成度
	EventCount    int64          `json:"eventCount"`
	LastActive    *time.Time     `json:"lastActive,omitempty"`
}

type Overview struct {
	Learners     []LearnerOverview             `json:"learners"`
	Ratings      []repository.LessonRatingStat `json:"ratings"`
	ActiveLast7d int64                         `json:"activeLast7d"`
}

func (s *AnalyticsService) Overview() (*Overview, error) {
	learners, err := s.UserRepo.FindAll(model.Learner)
	if err != nil {
		return nil, err
	}

	cat := s.Progress.Catalog()

	out := &Overview{}
	for _, u := range learners {
		records, err := s.ProgressRepo.GetAll(u.ID)
		if err != nil {
			return nil, err
		}

		byLesson := make(map[string]int, len(records))
		for i := range records {
			byLesson[records[i].LessonID] = records[i].Percent
		}

		lo := LearnerOverview{
			UserID:        u.ID,
			Name:          u.Name,
			Email:         u.Email,
			ModulePercent: make(map[string]int),
			LessonPercent: byLesson,
		}

		for _, m := range cat.Modules {
			percents := make([]int, 0, len(m.Lessons))
			for _, l := range m.Lessons {
				percents = append(percents, byLesson[l.ID])
			}
			lo.ModulePercent[m.ID] = progress.ComputeModulePercent(percents)
		}

		if count, err := s.EventRepo.CountByUser(u.ID); err == nil {
			lo.EventCount = count
		}
		if last, err := s.EventRepo.LastEventTime(u.ID); err == nil {
			lo.LastActive = last
		}

		out.Learners = append(out.Learners, lo)
	}

	if stats, err := s.RatingRepo.StatsByLesson(); err == nil {
		out.Ratings = stats
	}
	if active, err := s.EventRepo.CountSince(time.Now().AddDate(0, 0, -7)); err == nil {
		out.ActiveLast7d = active
	}

	return out, nil
}
