package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load 从 yaml 文件加载课程目录。目录在运行期只读，校验失败直接拒绝启动。
func Load(path string) (*Catalog, error) {
	v := viper.New()
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)
	v.SetConfigName(strings.TrimSuffix(file, filepath.Ext(file)))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cat Catalog
	if err := v.Unmarshal(&cat); err != nil {
		return nil, err
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}

	cat.buildIndex()
	return &cat, nil
}

// Validate 检查 ID 唯一性与步进活动的总步数声明
func (c *Catalog) Validate() error {
	if len(c.Modules) == 0 {
		return fmt.Errorf("catalog: no modules declared")
	}

	seenLesson := make(map[string]bool)
	for _, m := range c.Modules {
		if m.ID == "" {
			return fmt.Errorf("catalog: module with empty id")
		}
		if len(m.Lessons) == 0 {
			return fmt.Errorf("catalog: module %s has no lessons", m.ID)
		}
		for _, l := range m.Lessons {
			if l.ID == "" {
				return fmt.Errorf("catalog: lesson with empty id in module %s", m.ID)
			}
			if seenLesson[l.ID] {
				return fmt.Errorf("catalog: duplicate lesson id %s", l.ID)
			}
			seenLesson[l.ID] = true

			if len(l.Activities) == 0 {
				return fmt.Errorf("catalog: lesson %s has no activities", l.ID)
			}
			seenActivity := make(map[string]bool)
			for _, a := range l.Activities {
				if a.ID == "" {
					return fmt.Errorf("catalog: activity with empty id in lesson %s", l.ID)
				}
				if seenActivity[a.ID] {
					return fmt.Errorf("catalog: duplicate activity id %s in lesson %s", a.ID, l.ID)
				}
				seenActivity[a.ID] = true

				if !a.Type.Known() {
					return fmt.Errorf("catalog: lesson %s activity %s has unknown type %q", l.ID, a.ID, a.Type)
				}
				if a.Type.Stepped() && a.TotalUnits <= 0 {
					return fmt.Errorf("catalog: lesson %s activity %s requires total_units > 0", l.ID, a.ID)
				}
			}
		}
	}
	return nil
}

// New 由内存中的模块列表构造目录，主要给测试和种子数据用
func New(modules []Module) (*Catalog, error) {
	cat := &Catalog{Modules: modules}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	cat.buildIndex()
	return cat, nil
}
