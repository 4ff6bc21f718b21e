package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/repository"
	"copilot_inside_backend/internal/util"
	"copilot_inside_backend/pkg/logger"

	"go.uber.org/zap"
)

// SubmissionService 文件上传练习：文件进对象存储，正文送外部批改，
// 批改通过后给进度核心回报一个卡片完成事件
type SubmissionService struct {
	SubmissionRepo *repository.SubmissionRepository
	Storage        *StorageService
	Grading        *GradingService
	Progress       *ProgressService
}

func NewSubmissionService(
	submissionRepo *repository.SubmissionRepository,
	storage *StorageService,
	grading *GradingService,
	progress *ProgressService,
) *SubmissionService {
	return &SubmissionService{
		SubmissionRepo: submissionRepo,
		Storage:        storage,
		Grading:        grading,
		Progress:       progress,
	}
}

type SubmitRequest struct {
	LessonID   string `form:"lessonId" binding:"required"`
	ActivityID string `form:"activityId" binding:"required"`
	CardIndex  int    `form:"cardIndex"`
	Content    string `form:"content" binding:"required"` // 已提取的文档正文
	Exercise   string `form:"exercise"`
}

// Upload 保存上传的练习文件，返回待批改的提交记录
func (s *SubmissionService) Upload(ctx context.Context, userID uint, req SubmitRequest, file *multipart.FileHeader) (*model.UploadSubmission, error) {
	sub := &model.UploadSubmission{
		UserID:     userID,
		LessonID:   req.LessonID,
		ActivityID: req.ActivityID,
		CardIndex:  req.CardIndex,
		Content:    req.Content,
		Status:     model.SubmissionPending,
	}

	if file != nil {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()

		allowed := []string{util.MimePDF, util.MimeDocx, util.MimeDoc, util.MimeText, util.MimeOctetStream}
		if _, err := util.ValidateMimeType(src, allowed); err != nil {
			return nil, fmt.Errorf("非法的文件内容: %v", err)
		}
		// 校验读掉了文件头，重置后才能完整上传
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("重置文件读取指针失败: %v", err)
		}

		ext := filepath.Ext(file.Filename)
		filename := "submissions/" + time.Now().Format("20060102150405") + "_" + util.GenerateRandomString(6) + ext

		url, err := s.Storage.Upload(ctx, filename, src, file.Size, file.Header.Get("Content-Type"))
		if err != nil {
			return nil, err
		}
		sub.FileName = file.Filename
		sub.FileURL = url
	}

	if err := s.SubmissionRepo.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

type GradeOutcome struct {
	Submission *model.UploadSubmission `json:"submission"`
	Feedback   string                  `json:"feedback"`
	Passed     bool                    `json:"passed"`
	Progress   *EventResult            `json:"progress,omitempty"`
}

// Grade 阻塞式批改。批改服务在成功响应前不碰进度存储；
// 通过后才记一个卡片完成事件。超时原样上抛，前端给重试入口。
func (s *SubmissionService) Grade(ctx context.Context, userID uint, submissionID string, exercise string) (*GradeOutcome, error) {
	sub, err := s.SubmissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	result, err := s.Grading.SendForGrading(ctx, GradingPayload{
		LessonID:   sub.LessonID,
		ActivityID: sub.ActivityID,
		Exercise:   exercise,
		Content:    sub.Content,
	})
	if err != nil {
		sub.Status = model.SubmissionFailed
		if saveErr := s.SubmissionRepo.Save(sub); saveErr != nil {
			logger.Log.Warn("failed to mark submission as failed",
				zap.String("submission", sub.ID), zap.Error(saveErr))
		}
		return nil, err
	}

	sub.Feedback = result.Content
	sub.Status = model.SubmissionGraded
	if err := s.SubmissionRepo.Save(sub); err != nil {
		return nil, err
	}

	outcome := &GradeOutcome{
		Submission: sub,
		Feedback:   result.Content,
		Passed:     result.IsConclusion,
	}

	if result.IsConclusion {
		step := sub.CardIndex
		progressResult, err := s.Progress.ApplyEvent(ctx, userID, ActivityEventRequest{
			LessonID:   sub.LessonID,
			ActivityID: sub.ActivityID,
			StepIndex:  &step,
		})
		if err == nil {
			outcome.Progress = progressResult
		}
	}

	return outcome, nil
}
