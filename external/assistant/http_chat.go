// Package assistant implements the completion-service client over the
// chat-completions HTTP API.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minutier/minutier/internal/assistant"
	"github.com/minutier/minutier/internal/resilience"
)

type ChatConfig struct {
	URL        string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type ChatClient struct {
	cfg    ChatConfig
	client *http.Client
}

func NewChatClient(cfg ChatConfig) assistant.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ChatClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) Search(ctx context.Context, transcript, query string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: assistant.SearchSystemPrompt()},
			{Role: "user", Content: assistant.BuildSearchPrompt(transcript, query)},
		},
		Temperature: 0.3,
	})
}

func (c *ChatClient) Summarize(ctx context.Context, transcript string) (*assistant.Summary, error) {
	raw, err := c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: assistant.SummarySystemPrompt()},
			{Role: "user", Content: assistant.BuildSummaryPrompt(transcript)},
		},
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var summary assistant.Summary
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &summary); err != nil {
		return nil, fmt.Errorf("%w: %v", assistant.ErrParseFailure, err)
	}
	return &summary, nil
}

func (c *ChatClient) GenerateTitle(ctx context.Context, transcript string) (string, error) {
	title, err := c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: assistant.TitleSystemPrompt()},
			{Role: "user", Content: assistant.BuildSummaryPrompt(transcript)},
		},
		Temperature: 0.5,
	})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(title), `"`), nil
}

// complete posts one chat-completion request with bounded retries and
// returns the first choice's content.
func (c *ChatClient) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	var content string
	err = resilience.Retry(ctx, resilience.Config{MaxRetries: c.cfg.MaxRetries}, func() error {
		var attemptErr error
		content, attemptErr = c.doRequest(ctx, payload)
		return attemptErr
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("%w: %v", assistant.ErrTimeout, err)
		}
		return "", err
	}
	return content, nil
}

func (c *ChatClient) doRequest(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", resilience.MarkTransient(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", resilience.MarkTransient(err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("assistant endpoint returned %d: %s", resp.StatusCode, truncate(body, 256))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", resilience.MarkTransient(err)
		}
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: response carries no choices", assistant.ErrParseFailure)
	}
	return decoded.Choices[0].Message.Content, nil
}

// stripCodeFence removes a surrounding markdown fence some models wrap JSON
// in despite the json_object response format.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
