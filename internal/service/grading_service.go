package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"copilot_inside_backend/internal/config"
	"copilot_inside_backend/internal/util"
	"copilot_inside_backend/pkg/monitoring"
)

// conclusionMarker 批改提示词要求模型在练习通过时输出的结束标记，
// 返回前从正文里剥掉
const conclusionMarker = "[ABSCHLUSS]"

// GradingService 外部大模型网关的窄封装：阻塞式批改 + 流式聊天。
// 具体的第三方 API 细节不外泄，调用方只看到 GradingResult 和 token 流。
type GradingService struct {
	config config.AIConfig
	client *http.Client
}

func NewGradingService(cfg config.AIConfig) *GradingService {
	return &GradingService{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
	Stream   bool            `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
		Delta   AIChatMessage `json:"delta"` // 流式响应
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type GradingPayload struct {
	LessonID   string `json:"lessonId"`
	ActivityID string `json:"activityId"`
	Exercise   string `json:"exercise"` // 练习描述/评分标准
	Content    string `json:"content"`  // 学员提交的正文
}

type GradingResult struct {
	Content      string `json:"content"`
	IsConclusion bool   `json:"isConclusion"`
}

// SendForGrading 阻塞式批改调用，超时由配置约束。
// 超时/网络错误折算成可重试错误，调用方给用户重试入口。
func (s *GradingService) SendForGrading(ctx context.Context, payload GradingPayload) (*GradingResult, error) {
	system := "Du bist ein Trainer für Microsoft Copilot im Büroalltag. Bewerte die eingereichte Übung. " +
		"Gib konkretes, freundliches Feedback. Wenn die Übung vollständig gelöst ist, beende deine Antwort mit " +
		conclusionMarker + "."

	messages := []AIChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf("Übung:\n%s\n\nEinreichung:\n%s", payload.Exercise, payload.Content)},
	}

	start := time.Now()
	content, err := s.complete(ctx, messages)
	monitoring.GradingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, util.ErrGradingTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, util.ErrGradingUnavailable
	}

	result := &GradingResult{Content: content}
	if strings.Contains(content, conclusionMarker) {
		result.IsConclusion = true
		result.Content = strings.TrimSpace(strings.ReplaceAll(content, conclusionMarker, ""))
	}
	return result, nil
}

func (s *GradingService) complete(ctx context.Context, messages []AIChatMessage) (string, error) {
	reqBody := chatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// ChatStream 流式聊天代理。用户离开时取消 ctx 即中断请求，
// 中断后不再产生任何进度写入（由调用方保证）。
func (s *GradingService) ChatStream(ctx context.Context, systemPrompt string, history []AIChatMessage, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	messages := make([]AIChatMessage, 0, len(history)+2)
	if systemPrompt == "" {
		systemPrompt = "Du bist ein geduldiger Übungspartner für Microsoft Copilot. Antworte kurz und praxisnah."
	}
	messages = append(messages, AIChatMessage{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	reqBody := chatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
		Stream:   true,
	}
	jsonData, _ := json.Marshal(reqBody)

	go func() {
		defer close(out)
		defer close(errChan)

		req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
		if err != nil {
			errChan <- err
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

		resp, err := s.client.Do(req)
		if err != nil {
			errChan <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errChan <- fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					errChan <- err
				}
				break
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				break
			}

			var streamResp chatCompletionResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				continue
			}

			if len(streamResp.Choices) > 0 {
				content := streamResp.Choices[0].Delta.Content
				if content == "" {
					continue
				}
				select {
				case out <- content:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errChan
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
