package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrLessonNotFound     = errors.New("lesson not found in catalog")
	ErrActivityNotFound   = errors.New("activity not found in lesson")
	ErrNoConclusion       = errors.New("lesson has no conclusion activity")
	ErrRatingOutOfRange   = errors.New("rating must be between 1 and 5")
	ErrGradingTimeout     = errors.New("grading service timed out, please retry")
	ErrGradingUnavailable = errors.New("grading service unavailable, please retry")
	ErrStoreUnavailable   = errors.New("progress store unavailable, please retry")
)
