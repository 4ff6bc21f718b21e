package progress

import "sort"

// ActivityState 单个活动的完成状态。布尔类活动只用 Done，
// 步进类活动在 Steps 中记录去重后的已完成步骤下标。
type ActivityState struct {
	Done  bool  `json:"done,omitempty"`
	Steps []int `json:"steps,omitempty"`
}

// AddStep 记录一个步骤下标，重复提交是无操作，返回是否发生了变化
func (s *ActivityState) AddStep(index int) bool {
	for _, v := range s.Steps {
		if v == index {
			return false
		}
	}
	s.Steps = append(s.Steps, index)
	sort.Ints(s.Steps)
	return true
}

func (s *ActivityState) MarkDone() {
	s.Done = true
}

func (s ActivityState) StepCount() int {
	return len(s.Steps)
}

// ActivityMap 课程内 activityID -> 完成状态 的整体映射。
// 持久化时整体替换，调用方必须先读后改再写。
type ActivityMap map[string]ActivityState

func (m ActivityMap) Clone() ActivityMap {
	if m == nil {
		return ActivityMap{}
	}
	out := make(ActivityMap, len(m))
	for k, v := range m {
		steps := make([]int, len(v.Steps))
		copy(steps, v.Steps)
		out[k] = ActivityState{Done: v.Done, Steps: steps}
	}
	return out
}
