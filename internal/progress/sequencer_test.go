package progress

import (
	"testing"

	"copilot_inside_backend/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
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
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestAdvance_WithinLesson(t *testing.T) {
	cat := testCatalog(t)

	pos, ok := Advance(cat, "l1", "video")
	if !ok {
		t.Fatal("Advance returned not ok")
	}
	if pos.LessonID != "l1" || pos.ActivityID != "tutor" {
		t.Errorf("Advance(l1, video) = %+v, want (l1, tutor)", pos)
	}
}

func TestAdvance_RollsOverToNextLesson(t *testing.T) {
	cat := testCatalog(t)

	pos, ok := Advance(cat, "l1", "conclusion")
	if !ok {
		t.Fatal("Advance returned not ok")
	}
	if pos.LessonID != "l2" || pos.ActivityID != "video" {
		t.Errorf("Advance(l1, conclusion) = %+v, want (l2, video)", pos)
	}
}

func TestAdvance_ModuleExhausted(t *testing.T) {
	cat := testCatalog(t)

	if _, ok := Advance(cat, "l2", "conclusion"); ok {
		t.Error("Advance from last activity of last lesson should report exhaustion")
	}
}

func TestAdvance_NoInfiniteCycle(t *testing.T) {
	cat := testCatalog(t)

	pos, _ := DefaultStart(&cat.Modules[0])
	for i := 0; i < 100; i++ {
		next, ok := Advance(cat, pos.LessonID, pos.ActivityID)
		if !ok {
			return // 正常终止
		}
		pos = next
	}
	t.Fatal("Advance never terminated after 100 transitions")
}

func TestAdvance_StalePointerFallsBack(t *testing.T) {
	cat := testCatalog(t)

	want, _ := DefaultStart(&cat.Modules[0])

	for _, tt := range []struct{ lesson, activity string }{
		{"ghost", "video"},
		{"l1", "ghost"},
	} {
		pos, ok := Advance(cat, tt.lesson, tt.activity)
		if !ok {
			t.Fatalf("Advance(%s, %s) should fall back, not fail", tt.lesson, tt.activity)
		}
		if pos != want {
			t.Errorf("Advance(%s, %s) = %+v, want default start %+v", tt.lesson, tt.activity, pos, want)
		}
	}
}

func TestJumpToConclusion(t *testing.T) {
	cat := testCatalog(t)

	// 当前活动是 tutor 与否无关，强制跳转不看后继逻辑
	pos, ok := JumpToConclusion(cat, "l1")
	if !ok {
		t.Fatal("JumpToConclusion returned not ok")
	}
	if pos.LessonID != "l1" || pos.ActivityID != "conclusion" {
		t.Errorf("JumpToConclusion(l1) = %+v, want (l1, conclusion)", pos)
	}
}

func TestJumpToConclusion_UnknownLessonFails(t *testing.T) {
	cat := testCatalog(t)

	if pos, ok := JumpToConclusion(cat, "ghost"); ok {
		t.Errorf("JumpToConclusion(ghost) = %+v ok=true, want ok=false", pos)
	}
}

func TestJumpToConclusion_LessonWithoutConclusionFails(t *testing.T) {
	cat, err := catalog.New([]catalog.Module{
		{
			ID: "m",
			Lessons: []catalog.Lesson{
				{
					ID: "no-summary",
					Activities: []catalog.Activity{
						{ID: "video", Type: catalog.Video},
						{ID: "prompt", Type: catalog.Chat},
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	// 没有总结活动时不能悄悄回落到模块起点
	if pos, ok := JumpToConclusion(cat, "no-summary"); ok {
		t.Errorf("JumpToConclusion(no-summary) = %+v ok=true, want ok=false", pos)
	}
}

func TestSelectActivity(t *testing.T) {
	cat := testCatalog(t)

	pos, ok := SelectActivity(cat, "l2", "prompt")
	if !ok || pos.LessonID != "l2" || pos.ActivityID != "prompt" {
		t.Errorf("SelectActivity(l2, prompt) = %+v ok=%v", pos, ok)
	}

	want, _ := DefaultStart(&cat.Modules[0])
	pos, _ = SelectActivity(cat, "l2", "ghost")
	if pos != want {
		t.Errorf("SelectActivity with unknown activity = %+v, want default start %+v", pos, want)
	}
}

func TestDefaultStart_PrefersVideo(t *testing.T) {
	cat, err := catalog.New([]catalog.Module{
		{
			ID: "m",
			Lessons: []catalog.Lesson{
				{
					ID: "l",
					Activities: []catalog.Activity{
						{ID: "warmup", Type: catalog.Chat},
						{ID: "intro", Type: catalog.Video},
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	pos, ok := DefaultStart(&cat.Modules[0])
	if !ok || pos.ActivityID != "intro" {
		t.Errorf("DefaultStart = %+v, want video activity intro", pos)
	}
}
