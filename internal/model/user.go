package model

import (
	"time"
)

type UserRole string

const (
	Learner UserRole = "learner"
	Manager UserRole = "manager"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"type:enum('learner','manager','admin');default:'learner'" json:"role"`
	// CopilotLanguage 选择本地化的活动内容，核心逻辑不关心具体取值
	CopilotLanguage string    `gorm:"size:10;default:'de'" json:"copilotLanguage"`
	Avatar          string    `gorm:"size:255" json:"avatar"`
	Disabled        bool      `gorm:"default:false" json:"disabled"`
	LastLogin       time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen        time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
