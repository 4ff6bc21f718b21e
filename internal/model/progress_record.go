package model

import (
	"copilot_inside_backend/internal/progress"

	"gorm.io/datatypes"
)

// ProgressRecord 每个 (用户, 课程) 一条的进度记录。
// Percent 永远由 ActivityProgress 经计算器推导，两者必须一起重算、一起写入，
// 否则续学/汇总逻辑会和展示给用户的百分比打架。
// swagger:model ProgressRecord
type ProgressRecord struct {
	BaseModel
	UserID       uint   `gorm:"index:idx_user_lesson,unique;type:bigint unsigned" json:"userId"`
	LessonID     string `gorm:"size:64;index:idx_user_lesson,unique" json:"lessonId"`
	Percent      int    `gorm:"default:0" json:"percent"`
	LastActivity string `gorm:"size:64" json:"lastActivity"`
	LastStep     *int   `json:"lastStep,omitempty"`
	// ActivityProgress 整体替换语义：一次 upsert 覆盖整个映射
	ActivityProgress datatypes.JSONType[progress.ActivityMap] `gorm:"type:json" json:"activityProgress"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}

// ActivityMap 解出 JSON 列，列为空时返回可写的空映射
func (r *ProgressRecord) ActivityMap() progress.ActivityMap {
	m := r.ActivityProgress.Data()
	if m == nil {
		return progress.ActivityMap{}
	}
	return m
}

// ResumeRecord 供续学解析器使用的只读视图
func (r *ProgressRecord) ResumeRecord() progress.ResumeRecord {
	return progress.ResumeRecord{
		LessonID:     r.LessonID,
		LastActivity: r.LastActivity,
		LastStep:     r.LastStep,
	}
}
