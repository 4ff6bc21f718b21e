package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"copilot_inside_backend/internal/config"
	"copilot_inside_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradingServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.NotEmpty(t, req.Messages) {
			assert.Equal(t, "system", req.Messages[0].Role)
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func gradingConfig(url string) config.AIConfig {
	return config.AIConfig{
		BaseURL:        url,
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		RequestTimeout: 2 * time.Second,
	}
}

func TestSendForGrading_StripsConclusionMarker(t *testing.T) {
	srv := gradingServer(t, "Sehr gut gelöst! [ABSCHLUSS]")
	defer srv.Close()

	svc := NewGradingService(gradingConfig(srv.URL))
	result, err := svc.SendForGrading(context.Background(), GradingPayload{
		LessonID: "l1", ActivityID: "upload", Content: "meine Lösung",
	})
	require.NoError(t, err)
	assert.True(t, result.IsConclusion)
	assert.Equal(t, "Sehr gut gelöst!", result.Content)
}

func TestSendForGrading_PlainFeedback(t *testing.T) {
	srv := gradingServer(t, "Fast, aber der Prompt fehlt noch.")
	defer srv.Close()

	svc := NewGradingService(gradingConfig(srv.URL))
	result, err := svc.SendForGrading(context.Background(), GradingPayload{
		LessonID: "l1", ActivityID: "upload", Content: "Entwurf",
	})
	require.NoError(t, err)
	assert.False(t, result.IsConclusion)
	assert.Equal(t, "Fast, aber der Prompt fehlt noch.", result.Content)
}

func TestSendForGrading_TimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := gradingConfig(srv.URL)
	cfg.RequestTimeout = 50 * time.Millisecond
	svc := NewGradingService(cfg)

	_, err := svc.SendForGrading(context.Background(), GradingPayload{Content: "x"})
	assert.ErrorIs(t, err, util.ErrGradingTimeout)
}

func TestSendForGrading_UpstreamErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewGradingService(gradingConfig(srv.URL))
	_, err := svc.SendForGrading(context.Background(), GradingPayload{Content: "x"})
	assert.ErrorIs(t, err, util.ErrGradingUnavailable)
}

func TestChatStream_TokensAndDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, tok := range []string{"Hallo", " Welt"} {
			chunk := map[string]interface{}{
				"choices": []map[string]interface{}{
					{"delta": map[string]string{"content": tok}},
				},
			}
			data, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	svc := NewGradingService(gradingConfig(srv.URL))
	out, errChan := svc.ChatStream(context.Background(), "", nil, "Hallo")

	var got string
	for tok := range out {
		got += tok
	}
	assert.Equal(t, "Hallo Welt", got)
	assert.NoError(t, <-errChan)
}

func TestChatStream_CancelStopsStream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		chunk := `data: {"choices":[{"delta":{"content":"tok"}}]}` + "\n\n"
		fmt.Fprint(w, chunk)
		flusher.Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	svc := NewGradingService(gradingConfig(srv.URL))
	out, errChan := svc.ChatStream(ctx, "", nil, "Hallo")

	tok, ok := <-out
	require.True(t, ok)
	assert.Equal(t, "tok", tok)

	cancel()
	for range out {
	}
	// 取消不算上游故障
	if err := <-errChan; err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
	}
}
