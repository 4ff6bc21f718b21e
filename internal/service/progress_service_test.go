package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"copilot_inside_backend/internal/catalog"
	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/progress"
	"copilot_inside_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() {
	logger.Log = zap.NewNop()
}

// fakeStore 纯内存的进度存储，替代 MySQL 适配器
type fakeStore struct {
	mu         sync.Mutex
	records    map[string]*model.ProgressRecord
	failWrites bool
	failReads  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*model.ProgressRecord)}
}

func (f *fakeStore) Upsert(userID uint, lessonID string, percent int, lastActivity string, lastStep *int, m progress.ActivityMap) (*model.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return nil, errors.New("store down")
	}
	rec := &model.ProgressRecord{
		UserID:           userID,
		LessonID:         lessonID,
		Percent:          percent,
		LastActivity:     lastActivity,
		LastStep:         lastStep,
		ActivityProgress: datatypes.NewJSONType(m.Clone()),
	}
	f.records[lessonID] = rec
	return rec, nil
}

func (f *fakeStore) GetByLesson(userID uint, lessonID string) (*model.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errors.New("store down")
	}
	rec, ok := f.records[lessonID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeStore) GetAll(userID uint) ([]model.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errors.New("store down")
	}
	var out []model.ProgressRecord
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, nil
}

type fakeSink struct {
	events []*model.ActivityEvent
}

func (f *fakeSink) Create(ev *model.ActivityEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func serviceCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Module{
		{
			ID:    "copilot-basics",
			Title: "Copilot 基础",
			Lessons: []catalog.Lesson{
				{
					ID: "l1",
					Activities: []catalog.Activity{
						{ID: "video", Type: catalog.Video},
						{ID: "tutor", Type: catalog.Tutor, TotalUnits: 3},
						{ID: "conclusion", Type: catalog.Conclusion},
					},
				},
				{
					ID: "l2",
					Activities: []catalog.Activity{
						{ID: "video", Type: catalog.Video},
						{ID: "prompt", Type: catalog.Chat},
						{ID: "conclusion", Type: catalog.Conclusion},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

func newTestService(t *testing.T) (*ProgressService, *fakeStore, *fakeSink) {
	store := newFakeStore()
	sink := &fakeSink{}
	svc := NewProgressService(store, sink, serviceCatalog(t))
	return svc, store, sink
}

func TestApplyEvent_ScenarioA(t *testing.T) {
	svc, _, sink := newTestService(t)
	ctx := context.Background()
	const userID = 7

	// 无任何记录时，续学位置是第一课的 video
	pos, err := svc.ResumePosition(userID, "")
	require.NoError(t, err)
	assert.Equal(t, progress.Position{LessonID: "l1", ActivityID: "video"}, pos)

	// video 看完
	res, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
		LessonID: "l1", ActivityID: "video", Completed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "video", res.Record.LastActivity)
	m := res.Record.ActivityMap()
	assert.True(t, m["video"].Done)
	// video=100, tutor=0, conclusion=0 -> 33
	assert.Equal(t, 33, res.LessonPercent)
	require.NotNil(t, res.Next)
	assert.Equal(t, progress.Position{LessonID: "l1", ActivityID: "tutor"}, *res.Next)

	// tutor 完成步骤 1 和 2（共 3 步）
	for _, step := range []int{1, 2} {
		step := step
		res, err = svc.ApplyEvent(ctx, userID, ActivityEventRequest{
			LessonID: "l1", ActivityID: "tutor", StepIndex: &step,
		})
		require.NoError(t, err)
	}
	// video=100, tutor=round(2/3*100)=67, conclusion=0 -> round(167/3)=56
	assert.Equal(t, 56, res.LessonPercent)
	assert.Equal(t, 56, res.Record.Percent)

	// 步骤 2 重复提交不改变百分比
	step := 2
	res2, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
		LessonID: "l1", ActivityID: "tutor", StepIndex: &step,
	})
	require.NoError(t, err)
	assert.Equal(t, res.LessonPercent, res2.LessonPercent)

	// percent 字段始终能由 activityProgress 重新推导出来
	cat := svc.Catalog()
	lesson, _ := cat.Lesson("l1")
	assert.Equal(t, res2.Record.Percent, progress.ComputeLessonPercent(lesson, res2.Record.ActivityMap()))

	// 事件流水被记录
	assert.Len(t, sink.events, 4)
}

func TestApplyEvent_ResumeAfterReload(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	const userID = 7

	// L2 有记录（lastActivity=prompt），L1 没有
	_, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
		LessonID: "l2", ActivityID: "prompt", Completed: true,
	})
	require.NoError(t, err)

	// 模拟重新加载：保存的位置优先于目录首位
	pos, err := svc.ResumePosition(userID, "")
	require.NoError(t, err)
	assert.Equal(t, progress.Position{LessonID: "l2", ActivityID: "prompt"}, pos)
}

func TestJumpToConclusion_IgnoresCurrentActivity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	const userID = 3

	// tutor 还没完成
	step := 1
	_, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
		LessonID: "l1", ActivityID: "tutor", StepIndex: &step,
	})
	require.NoError(t, err)

	pos, ok := svc.JumpToConclusion(userID, "l1")
	require.True(t, ok)
	assert.Equal(t, progress.Position{LessonID: "l1", ActivityID: "conclusion"}, pos)

	// 跳转后的续学指针也落了库
	resumed, err := svc.ResumePosition(userID, "")
	require.NoError(t, err)
	assert.Equal(t, pos, resumed)
}

func TestModulePercent_ScenarioC(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	const userID = 5

	// 两课都 100%
	for _, lessonID := range []string{"l1", "l2"} {
		lesson, _ := svc.Catalog().Lesson(lessonID)
		for _, a := range lesson.Activities {
			if a.Type.Stepped() {
				for i := 0; i < a.TotalUnits; i++ {
					i := i
					_, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
						LessonID: lessonID, ActivityID: a.ID, StepIndex: &i,
					})
					require.NoError(t, err)
				}
			} else {
				_, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
					LessonID: lessonID, ActivityID: a.ID, Completed: true,
				})
				require.NoError(t, err)
			}
		}
	}

	res, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
		LessonID: "l2", ActivityID: "conclusion", Completed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, res.ModulePercent)
	assert.True(t, res.ModuleExhausted)

	// 一课 50%、一课 100% -> round(75) = 75
	store.records["l1"].Percent = 50
	view, err := svc.CatalogForUser(userID)
	require.NoError(t, err)
	assert.Equal(t, 75, view.Modules[0].Percent)
}

func TestApplyEvent_UnknownIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyEvent(ctx, 1, ActivityEventRequest{
		LessonID: "ghost", ActivityID: "video", Completed: true,
	})
	assert.Error(t, err)

	_, err = svc.ApplyEvent(ctx, 1, ActivityEventRequest{
		LessonID: "l1", ActivityID: "ghost", Completed: true,
	})
	assert.Error(t, err)
}

func TestApplyEvent_StoreWriteFailureIsRetryable(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	store.failWrites = true

	_, err := svc.ApplyEvent(ctx, 1, ActivityEventRequest{
		LessonID: "l1", ActivityID: "video", Completed: true,
	})
	require.Error(t, err)

	// 存储恢复后同一事件可以重放成功
	store.failWrites = false
	res, err := svc.ApplyEvent(ctx, 1, ActivityEventRequest{
		LessonID: "l1", ActivityID: "video", Completed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 33, res.LessonPercent)
}

func TestApplyEvent_CancelledContextSkipsWrite(t *testing.T) {
	svc, store, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ApplyEvent(ctx, 1, ActivityEventRequest{
		LessonID: "l1", ActivityID: "video", Completed: true,
	})
	require.Error(t, err)
	assert.Empty(t, store.records, "abandoned request must not write the store")
}

func TestSelectActivity_PersistsPointerOnly(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	const userID = 9

	_, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
		LessonID: "l1", ActivityID: "video", Completed: true,
	})
	require.NoError(t, err)
	before := store.records["l1"].Percent

	pos, ok := svc.SelectActivity(userID, "l1", "tutor")
	require.True(t, ok)
	assert.Equal(t, "tutor", pos.ActivityID)
	assert.Equal(t, before, store.records["l1"].Percent, "navigation must not change percent")
	assert.Equal(t, "tutor", store.records["l1"].LastActivity)
}

func TestSelectActivity_ReadFailureDoesNotClobberRecord(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	const userID = 11

	_, err := svc.ApplyEvent(ctx, userID, ActivityEventRequest{
		LessonID: "l1", ActivityID: "video", Completed: true,
	})
	require.NoError(t, err)
	require.Equal(t, 33, store.records["l1"].Percent)

	// 读故障期间导航：指针写必须跳过，不能用空映射覆盖真实记录
	store.failReads = true
	pos, ok := svc.SelectActivity(userID, "l1", "tutor")
	require.True(t, ok)
	assert.Equal(t, "tutor", pos.ActivityID)

	store.failReads = false
	rec := store.records["l1"]
	assert.Equal(t, 33, rec.Percent)
	assert.True(t, rec.ActivityMap()["video"].Done)
	assert.Equal(t, "video", rec.LastActivity, "pointer write must be skipped while reads fail")
}

func TestRawUpsert_ClampsPercent(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec, err := svc.RawUpsert(1, "l1", 150, "video", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.Percent)

	rec, err = svc.RawUpsert(1, "l1", -3, "video", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Percent)
}
