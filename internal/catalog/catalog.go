package catalog

// ActivityType 活动类型，单点枚举，新增类型只需在此处与计算器的分发点各加一处
type ActivityType string

const (
	Video      ActivityType = "video"
	Tutor      ActivityType = "tutor"
	Chat       ActivityType = "chat"
	Skill      ActivityType = "skill"
	Upload     ActivityType = "upload"
	Conclusion ActivityType = "conclusion"
)

// Stepped 步进类活动按完成的步骤/卡片数计算百分比，其余为布尔完成
func (t ActivityType) Stepped() bool {
	return t == Tutor || t == Upload
}

func (t ActivityType) Known() bool {
	switch t {
	case Video, Tutor, Chat, Skill, Upload, Conclusion:
		return true
	}
	return false
}

// Activity 静态活动定义，TotalUnits 仅对步进类活动有意义
type Activity struct {
	ID         string       `mapstructure:"id" json:"id"`
	Title      string       `mapstructure:"title" json:"title"`
	Type       ActivityType `mapstructure:"type" json:"type"`
	TotalUnits int          `mapstructure:"total_units" json:"totalUnits,omitempty"`
}

type Lesson struct {
	ID         string     `mapstructure:"id" json:"id"`
	Title      string     `mapstructure:"title" json:"title"`
	Activities []Activity `mapstructure:"activities" json:"activities"`
}

type Module struct {
	ID      string   `mapstructure:"id" json:"id"`
	Title   string   `mapstructure:"title" json:"title"`
	Lessons []Lesson `mapstructure:"lessons" json:"lessons"`
}

// Catalog 启动时加载一次的只读课程目录。课程 ID 全局唯一。
type Catalog struct {
	Modules []Module `mapstructure:"modules" json:"modules"`

	lessonIndex map[string]lessonRef
}

type lessonRef struct {
	moduleIdx int
	lessonIdx int
}

func (c *Catalog) buildIndex() {
	c.lessonIndex = make(map[string]lessonRef)
	for mi := range c.Modules {
		for li := range c.Modules[mi].Lessons {
			c.lessonIndex[c.Modules[mi].Lessons[li].ID] = lessonRef{moduleIdx: mi, lessonIdx: li}
		}
	}
}

func (c *Catalog) Module(id string) (*Module, bool) {
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return &c.Modules[i], true
		}
	}
	return nil, false
}

func (c *Catalog) Lesson(id string) (*Lesson, bool) {
	ref, ok := c.lessonIndex[id]
	if !ok {
		return nil, false
	}
	return &c.Modules[ref.moduleIdx].Lessons[ref.lessonIdx], true
}

// ModuleOfLesson 返回包含该课程的模块
func (c *Catalog) ModuleOfLesson(lessonID string) (*Module, bool) {
	ref, ok := c.lessonIndex[lessonID]
	if !ok {
		return nil, false
	}
	return &c.Modules[ref.moduleIdx], true
}

func (c *Catalog) Activity(lessonID, activityID string) (*Activity, bool) {
	lesson, ok := c.Lesson(lessonID)
	if !ok {
		return nil, false
	}
	for i := range lesson.Activities {
		if lesson.Activities[i].ID == activityID {
			return &lesson.Activities[i], true
		}
	}
	return nil, false
}

// DefaultActivity 课程入口活动：约定为 video，没有则取声明的第一个
func (l *Lesson) DefaultActivity() (*Activity, bool) {
	if len(l.Activities) == 0 {
		return nil, false
	}
	for i := range l.Activities {
		if l.Activities[i].Type == Video {
			return &l.Activities[i], true
		}
	}
	return &l.Activities[0], true
}

func (l *Lesson) ConclusionActivity() (*Activity, bool) {
	for i := range l.Activities {
		if l.Activities[i].Type == Conclusion {
			return &l.Activities[i], true
		}
	}
	return nil, false
}

// ActivityIndex 活动在课程内的位置，未找到返回 -1
func (l *Lesson) ActivityIndex(activityID string) int {
	for i := range l.Activities {
		if l.Activities[i].ID == activityID {
			return i
		}
	}
	return -1
}
