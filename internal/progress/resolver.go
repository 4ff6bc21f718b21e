package progress

import "copilot_inside_backend/internal/catalog"

// ResumeRecord 续学解析所需的持久化记录视图
type ResumeRecord struct {
	LessonID     string
	LastActivity string
	LastStep     *int
}

// ResolveStartPosition 冷启动时从进度快照还原位置。
// 正常运行中最多只有一条"当前"课程，但实现容忍多条：
// 按目录顺序（而非存储顺序）取第一条指针有效的记录，保证结果可复现。
// 指针指向目录中不存在的课程/活动时按损坏数据处理，回落到模块起点。
// 没有副作用，两次调用之间无写入则结果相同。
func ResolveStartPosition(cat *catalog.Catalog, module *catalog.Module, records []ResumeRecord) Position {
	byLesson := make(map[string]ResumeRecord, len(records))
	for _, r := range records {
		if r.LastActivity == "" {
			continue
		}
		if _, dup := byLesson[r.LessonID]; !dup {
			byLesson[r.LessonID] = r
		}
	}

	for _, lesson := range module.Lessons {
		r, ok := byLesson[lesson.ID]
		if !ok {
			continue
		}
		if lesson.ActivityIndex(r.LastActivity) < 0 {
			continue // 指针损坏，跳过这条记录
		}
		return Position{LessonID: lesson.ID, ActivityID: r.LastActivity}
	}

	pos, _ := DefaultStart(module)
	return pos
}
