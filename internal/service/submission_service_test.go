package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"copilot_inside_backend/internal/model"
	"copilot_inside_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// captureProvider 把上传内容留在内存里，替代 MinIO
type captureProvider struct {
	data []byte
}

func (p *captureProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	p.data = b
	return "/test/" + filename, nil
}

func (p *captureProvider) Delete(ctx context.Context, filename string) error { return nil }

func (p *captureProvider) GetURL(filename string) string { return "/test/" + filename }

func submissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "submissions.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.UploadSubmission{}))
	return db
}

func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(int64(len(content)) + 4096)
	require.NoError(t, err)
	return form.File["file"][0]
}

func TestUpload_StoresFullFileAfterSniff(t *testing.T) {
	repo := repository.NewSubmissionRepository(submissionTestDB(t))
	store := &captureProvider{}
	svc := NewSubmissionService(repo, &StorageService{Provider: store}, nil, nil)

	// 超过嗅探窗口的内容，上传必须带上被读掉的文件头
	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 1024)...)
	fh := makeFileHeader(t, "loesung.pdf", content)

	sub, err := svc.Upload(context.Background(), 7, SubmitRequest{
		LessonID: "copilot-word", ActivityID: "upload", Content: "meine Lösung",
	}, fh)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, sub.Status)
	assert.Equal(t, "loesung.pdf", sub.FileName)
	assert.Equal(t, content, store.data)
}

func TestUpload_RejectsForbiddenContent(t *testing.T) {
	repo := repository.NewSubmissionRepository(submissionTestDB(t))
	svc := NewSubmissionService(repo, &StorageService{Provider: &captureProvider{}}, nil, nil)

	fh := makeFileHeader(t, "page.html", []byte("<html><body>kein Dokument</body></html>"))
	_, err := svc.Upload(context.Background(), 7, SubmitRequest{
		LessonID: "copilot-word", ActivityID: "upload", Content: "x",
	}, fh)
	assert.Error(t, err)
}

func TestGrade_UpstreamFailureMarksSubmissionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := repository.NewSubmissionRepository(submissionTestDB(t))
	svc := NewSubmissionService(repo, nil, NewGradingService(gradingConfig(srv.URL)), nil)

	sub := &model.UploadSubmission{
		UserID: 7, LessonID: "copilot-word", ActivityID: "upload",
		Content: "meine Lösung", Status: model.SubmissionPending,
	}
	require.NoError(t, repo.Create(sub))

	_, err := svc.Grade(context.Background(), 7, sub.ID, "")
	require.Error(t, err)

	stored, err := repo.FindByID(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionFailed, stored.Status)
}
