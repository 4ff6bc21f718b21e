package progress

import (
	"math"

	"copilot_inside_backend/internal/catalog"
)

// ComputeActivityPercent 把一个活动的完成信号折算成 0-100 的整数百分比。
// 布尔类活动没有部分完成；步进类活动按去重后的步骤数对声明总步数取整百分比，
// 达到总步数后钳位在 100。未知类型一律得 0，不报错，序列器照常推进。
func ComputeActivityPercent(t catalog.ActivityType, state ActivityState, totalUnits int) int {
	switch t {
	case catalog.Video, catalog.Chat, catalog.Skill, catalog.Conclusion:
		if state.Done {
			return 100
		}
		return 0
	case catalog.Tutor, catalog.Upload:
		if state.Done {
			return 100
		}
		if totalUnits <= 0 {
			return 0
		}
		count := state.StepCount()
		if count >= totalUnits {
			return 100
		}
		return int(math.Round(float64(count) / float64(totalUnits) * 100))
	default:
		return 0
	}
}

// ComputeLessonPercent 课程百分比的唯一权威公式：
// 对课程声明的全部活动取各自百分比的算术平均并四舍五入，
// 没有任何记录的活动计 0。percent 字段永远由此推导，不单独维护。
func ComputeLessonPercent(lesson *catalog.Lesson, m ActivityMap) int {
	if lesson == nil || len(lesson.Activities) == 0 {
		return 0
	}
	sum := 0
	for _, a := range lesson.Activities {
		sum += ComputeActivityPercent(a.Type, m[a.ID], a.TotalUnits)
	}
	return int(math.Round(float64(sum) / float64(len(lesson.Activities))))
}

// ComputeModulePercent 模块汇总：各课程 percent 的算术平均，四舍五入，
// 空列表得 0。不按课程长度加权，与输入顺序无关。
func ComputeModulePercent(lessonPercents []int) int {
	if len(lessonPercents) == 0 {
		return 0
	}
	sum := 0
	for _, p := range lessonPercents {
		sum += p
	}
	return int(math.Round(float64(sum) / float64(len(lessonPercents))))
}
