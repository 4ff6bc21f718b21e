package service

import (
	"context"
	"fmt"
	"sync"

	"copilot_inside_backend/internal/catalog"
	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/progress"
	"copilot_inside_backend/internal/util"
	"copilot_inside_backend/pkg/logger"
	"copilot_inside_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressStore 进度存储契约。生产实现是 repository.ProgressRepository，
// 测试注入内存假实现。
type ProgressStore interface {
	Upsert(userID uint, lessonID string, percent int, lastActivity string, lastStep *int, m progress.ActivityMap) (*model.ProgressRecord, error)
	GetByLesson(userID uint, lessonID string) (*model.ProgressRecord, error)
	GetAll(userID uint) ([]model.ProgressRecord, error)
}

// EventSink 已处理事件的流水记录，写失败不阻塞主流程
type EventSink interface {
	Create(ev *model.ActivityEvent) error
}

// ProgressService 把纯函数核心（计算器/序列器/续学解析）和进度存储接起来。
// 同一 (用户, 课程) 的写入按事件到达顺序串行化，不同课程之间不排序。
type ProgressService struct {
	store  ProgressStore
	events EventSink

	catMu sync.RWMutex
	cat   *catalog.Catalog

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewProgressService(store ProgressStore, events EventSink, cat *catalog.Catalog) *ProgressService {
	return &ProgressService{
		store:  store,
		events: events,
		cat:    cat,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Catalog 当前生效的课程目录
func (s *ProgressService) Catalog() *catalog.Catalog {
	s.catMu.RLock()
	defer s.catMu.RUnlock()
	return s.cat
}

// SetCatalog 热更新课程目录（configwatcher 回调）
func (s *ProgressService) SetCatalog(cat *catalog.Catalog) {
	s.catMu.Lock()
	s.cat = cat
	s.catMu.Unlock()
}

func (s *ProgressService) lessonLock(userID uint, lessonID string) *sync.Mutex {
	key := fmt.Sprintf("%d:%s", userID, lessonID)
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if mu, ok := s.locks[key]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	s.locks[key] = mu
	return mu
}

// ActivityEventRequest 一次活动事件：布尔完成或一个步骤/卡片下标
type ActivityEventRequest struct {
	LessonID   string `json:"lessonId" binding:"required"`
	ActivityID string `json:"activityId" binding:"required"`
	Completed  bool   `json:"completed"`
	StepIndex  *int   `json:"stepIndex"`
}

type EventResult struct {
	Record          *model.ProgressRecord `json:"record"`
	LessonPercent   int                   `json:"lessonPercent"`
	ModulePercent   int                   `json:"modulePercent"`
	Next            *progress.Position    `json:"next,omitempty"`
	ModuleExhausted bool                  `json:"moduleExhausted"`
}

// ApplyEvent 进度写入的唯一入口：读出当前 activityProgress，套用这一个
// 活动的变化，课程百分比和映射一起重算后整体写回。重复的步骤下标是无操作。
// ctx 已取消（用户离开）时不再写存储。
func (s *ProgressService) ApplyEvent(ctx context.Context, userID uint, req ActivityEventRequest) (*EventResult, error) {
	cat := s.Catalog()

	lesson, ok := cat.Lesson(req.LessonID)
	if !ok {
		return nil, util.ErrLessonNotFound
	}
	if _, ok := cat.Activity(req.LessonID, req.ActivityID); !ok {
		return nil, util.ErrActivityNotFound
	}
	if !req.Completed && req.StepIndex == nil {
		return nil, fmt.Errorf("event carries no completion signal")
	}

	mu := s.lessonLock(userID, req.LessonID)
	mu.Lock()
	defer mu.Unlock()

	var m progress.ActivityMap
	record, err := s.store.GetByLesson(userID, req.LessonID)
	switch err {
	case nil:
		m = record.ActivityMap().Clone()
	case gorm.ErrRecordNotFound:
		m = progress.ActivityMap{} // 首个事件时创建记录
	default:
		return nil, util.ErrStoreUnavailable
	}

	state := m[req.ActivityID]
	if req.StepIndex != nil {
		state.AddStep(*req.StepIndex)
	}
	if req.Completed {
		state.MarkDone()
	}
	m[req.ActivityID] = state

	percent := progress.ComputeLessonPercent(lesson, m)

	// 请求已被放弃时不落库
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	record, err = s.store.Upsert(userID, req.LessonID, percent, req.ActivityID, req.StepIndex, m)
	if err != nil {
		return nil, util.ErrStoreUnavailable
	}

	eventType := "step"
	if req.Completed {
		eventType = "completed"
	}
	monitoring.ProgressEventCounter.WithLabelValues(req.LessonID, eventType).Inc()
	if s.events != nil {
		ev := &model.ActivityEvent{
			UserID:     userID,
			LessonID:   req.LessonID,
			ActivityID: req.ActivityID,
			EventType:  eventType,
			StepIndex:  req.StepIndex,
			Percent:    percent,
		}
		if err := s.events.Create(ev); err != nil {
			logger.Log.Warn("activity event log write failed", zap.Error(err))
		}
	}

	result := &EventResult{
		Record:        record,
		LessonPercent: percent,
	}
	result.ModulePercent, _ = s.modulePercent(userID, req.LessonID)

	if next, ok := progress.Advance(cat, req.LessonID, req.ActivityID); ok {
		result.Next = &next
	} else {
		result.ModuleExhausted = true
	}

	return result, nil
}

func (s *ProgressService) modulePercent(userID uint, lessonID string) (int, error) {
	cat := s.Catalog()
	module, ok := cat.ModuleOfLesson(lessonID)
	if !ok {
		return 0, util.ErrLessonNotFound
	}

	records, err := s.store.GetAll(userID)
	if err != nil {
		return 0, util.ErrStoreUnavailable
	}
	byLesson := make(map[string]int, len(records))
	for i := range records {
		byLesson[records[i].LessonID] = records[i].Percent
	}

	percents := make([]int, 0, len(module.Lessons))
	for _, l := range module.Lessons {
		percents = append(percents, byLesson[l.ID])
	}
	return progress.ComputeModulePercent(percents), nil
}

// ResumePosition 冷启动续学：有保存的指针就回到那里，否则落到模块起点
func (s *ProgressService) ResumePosition(userID uint, moduleID string) (progress.Position, error) {
	cat := s.Catalog()

	var module *catalog.Module
	if moduleID != "" {
		m, ok := cat.Module(moduleID)
		if !ok {
			return progress.Position{}, util.ErrLessonNotFound
		}
		module = m
	} else {
		module = &cat.Modules[0]
	}

	records, err := s.store.GetAll(userID)
	if err != nil {
		return progress.Position{}, util.ErrStoreUnavailable
	}

	resume := make([]progress.ResumeRecord, 0, len(records))
	for i := range records {
		resume = append(resume, records[i].ResumeRecord())
	}

	return progress.ResolveStartPosition(cat, module, resume), nil
}

// Advance 序列器推进；ok=false 表示模块耗尽，前端转完成页
func (s *ProgressService) Advance(lessonID, activityID string) (progress.Position, bool) {
	return progress.Advance(s.Catalog(), lessonID, activityID)
}

// JumpToConclusion 跳到总结页并持久化续学指针
func (s *ProgressService) JumpToConclusion(userID uint, lessonID string) (progress.Position, bool) {
	pos, ok := progress.JumpToConclusion(s.Catalog(), lessonID)
	if ok {
		s.persistPointer(userID, pos)
	}
	return pos, ok
}

// SelectActivity 直接导航并持久化续学指针。序列器不做解锁门控。
func (s *ProgressService) SelectActivity(userID uint, lessonID, activityID string) (progress.Position, bool) {
	pos, ok := progress.SelectActivity(s.Catalog(), lessonID, activityID)
	if ok {
		s.persistPointer(userID, pos)
	}
	return pos, ok
}

// persistPointer 导航只更新 lastActivity，百分比与映射原样保留。
// 写失败不阻塞导航，下一个进度事件会重新落库。
func (s *ProgressService) persistPointer(userID uint, pos progress.Position) {
	cat := s.Catalog()
	if _, ok := cat.Lesson(pos.LessonID); !ok {
		return
	}

	mu := s.lessonLock(userID, pos.LessonID)
	mu.Lock()
	defer mu.Unlock()

	m := progress.ActivityMap{}
	percent := 0
	record, err := s.store.GetByLesson(userID, pos.LessonID)
	switch err {
	case nil:
		m = record.ActivityMap()
		percent = record.Percent
	case gorm.ErrRecordNotFound:
		// 首次导航，尚无记录，空映射落库即可
	default:
		// 读失败时禁止覆盖写，否则会把真实进度清零
		logger.Log.Warn("resume pointer read failed, skipping pointer write",
			zap.Uint("user", userID), zap.String("lesson", pos.LessonID), zap.Error(err))
		return
	}

	if _, err := s.store.Upsert(userID, pos.LessonID, percent, pos.ActivityID, nil, m); err != nil {
		logger.Log.Warn("resume pointer write failed, navigation continues locally",
			zap.Uint("user", userID), zap.String("lesson", pos.LessonID), zap.Error(err))
	}
}

// RawUpsert §4.5 的原始存储契约：整条记录按调用方给的值覆盖
func (s *ProgressService) RawUpsert(userID uint, lessonID string, percent int, lastActivity string, lastStep *int, m progress.ActivityMap) (*model.ProgressRecord, error) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if m == nil {
		m = progress.ActivityMap{}
	}

	mu := s.lessonLock(userID, lessonID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.store.Upsert(userID, lessonID, percent, lastActivity, lastStep, m)
	if err != nil {
		return nil, util.ErrStoreUnavailable
	}
	return record, nil
}

func (s *ProgressService) Records(userID uint) ([]model.ProgressRecord, error) {
	records, err := s.store.GetAll(userID)
	if err != nil {
		return nil, util.ErrStoreUnavailable
	}
	return records, nil
}

// LessonView 目录里的一课加上该用户的完成百分比
type LessonView struct {
	catalog.Lesson
	Percent int `json:"percent"`
}

type ModuleView struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Percent int          `json:"percent"`
	Lessons []LessonView `json:"lessons"`
}

type CatalogView struct {
	Modules  []ModuleView      `json:"modules"`
	Position progress.Position `json:"position"`
}

// CatalogForUser 目录树 + 各课程百分比 + 模块汇总 + 续学位置，一次取齐
func (s *ProgressService) CatalogForUser(userID uint) (*CatalogView, error) {
	cat := s.Catalog()

	records, err := s.store.GetAll(userID)
	if err != nil {
		return nil, util.ErrStoreUnavailable
	}
	byLesson := make(map[string]int, len(records))
	resume := make([]progress.ResumeRecord, 0, len(records))
	for i := range records {
		byLesson[records[i].LessonID] = records[i].Percent
		resume = append(resume, records[i].ResumeRecord())
	}

	view := &CatalogView{}
	for _, m := range cat.Modules {
		mv := ModuleView{ID: m.ID, Title: m.Title}
		percents := make([]int, 0, len(m.Lessons))
		for _, l := range m.Lessons {
			p := byLesson[l.ID]
			mv.Lessons = append(mv.Lessons, LessonView{Lesson: l, Percent: p})
			percents = append(percents, p)
		}
		mv.Percent = progress.ComputeModulePercent(percents)
		view.Modules = append(view.Modules, mv)
	}

	view.Position = progress.ResolveStartPosition(cat, &cat.Modules[0], resume)
	return view, nil
}
