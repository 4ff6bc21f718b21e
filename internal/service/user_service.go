package service

import (
	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/repository"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

type ProfileUpdate struct {
	Name            string `json:"name"`
	CopilotLanguage string `json:"copilotLanguage"`
	Avatar          string `json:"avatar"`
}

// UpdateProfile 只有资料字段可改，邮箱和角色在注册后保持不变
func (s *UserService) UpdateProfile(userID uint, req ProfileUpdate) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.CopilotLanguage != "" {
		user.CopilotLanguage = req.CopilotLanguage
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := s.UserRepo.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(userID uint) (*model.User, error) {
	return s.UserRepo.FindByID(userID)
}

func (s *UserService) ListLearners() ([]model.User, error) {
	return s.UserRepo.FindAll(model.Learner)
}
