package progress

import "copilot_inside_backend/internal/catalog"

// Position 模块内的当前位置（续学指针的课程+活动部分）
type Position struct {
	LessonID   string `json:"lessonId"`
	ActivityID string `json:"activityId"`
}

// DefaultStart 模块的安全起点：第一课的入口活动。
// 所有损坏/过期指针最终都回落到这里。
func DefaultStart(m *catalog.Module) (Position, bool) {
	if m == nil || len(m.Lessons) == 0 {
		return Position{}, false
	}
	first := &m.Lessons[0]
	act, ok := first.DefaultActivity()
	if !ok {
		return Position{}, false
	}
	return Position{LessonID: first.ID, ActivityID: act.ID}, true
}

// Advance 计算当前位置的后继。课程内还有后续活动则取同课下一个；
// 课程耗尽则滚动到模块内下一课的入口活动；模块耗尽返回 ok=false，
// 调用方路由到完成页。当前位置在目录中不存在时回落到模块起点。
func Advance(cat *catalog.Catalog, currentLessonID, currentActivityID string) (Position, bool) {
	module, ok := cat.ModuleOfLesson(currentLessonID)
	if !ok {
		return fallbackStart(cat)
	}

	lesson, _ := cat.Lesson(currentLessonID)
	idx := lesson.ActivityIndex(currentActivityID)
	if idx < 0 {
		return fallbackStart(cat)
	}

	if idx+1 < len(lesson.Activities) {
		return Position{LessonID: lesson.ID, ActivityID: lesson.Activities[idx+1].ID}, true
	}

	for i := range module.Lessons {
		if module.Lessons[i].ID != lesson.ID {
			continue
		}
		if i+1 >= len(module.Lessons) {
			return Position{}, false // 模块耗尽
		}
		next := &module.Lessons[i+1]
		act, ok := next.DefaultActivity()
		if !ok {
			return Position{}, false
		}
		return Position{LessonID: next.ID, ActivityID: act.ID}, true
	}
	return Position{}, false
}

// JumpToConclusion 强制跳到指定课程的总结活动，不走 Advance 的后继逻辑。
// 课程不存在或该课没有总结活动时返回 ok=false，调用方按 404 处理，
// 不回落到模块起点，避免把错误的指针落库。
func JumpToConclusion(cat *catalog.Catalog, lessonID string) (Position, bool) {
	lesson, ok := cat.Lesson(lessonID)
	if !ok {
		return Position{}, false
	}
	act, ok := lesson.ConclusionActivity()
	if !ok {
		return Position{}, false
	}
	return Position{LessonID: lesson.ID, ActivityID: act.ID}, true
}

// SelectActivity 直接导航。序列器本身不做解锁校验，只要求目录里存在该位置。
func SelectActivity(cat *catalog.Catalog, lessonID, activityID string) (Position, bool) {
	if _, ok := cat.Activity(lessonID, activityID); !ok {
		return fallbackStart(cat)
	}
	return Position{LessonID: lessonID, ActivityID: activityID}, true
}

func fallbackStart(cat *catalog.Catalog) (Position, bool) {
	if len(cat.Modules) == 0 {
		return Position{}, false
	}
	return DefaultStart(&cat.Modules[0])
}
