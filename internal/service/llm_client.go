package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/common/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ChatMessage 对话消息（OpenAI chat-completions 格式）
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Completer produces the assistant's reply to a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// LLMClient OpenAI 兼容的 chat-completions 客户端
type LLMClient struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewLLMClient 创建 LLM 客户端
func NewLLMClient(cfg config.LLMConfig, logger *zap.Logger) *LLMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &LLMClient{httpClient: client, model: cfg.Model, logger: logger}
}

var _ Completer = (*LLMClient)(nil)

// Complete sends messages to /chat/completions and returns the first choice.
func (c *LLMClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	var result chatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{Model: c.model, Messages: messages, Temperature: 0.2}).
		SetResult(&result).
		SetError(&result).
		Post("/chat/completions")
	if err != nil {
		c.logger.Error("LLM API call failed", zap.Error(err))
		return "", fmt.Errorf("failed to call LLM API: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		c.logger.Error("LLM API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return "", fmt.Errorf("LLM API error: %s (status: %d)", msg, resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("LLM API returned no choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
