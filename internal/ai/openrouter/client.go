// Package openrouter implements the primary generative backend on the
// OpenRouter chat completions API.
package openrouter

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

	"github.com/devcaliber/assistant/internal/ai"
	"github.com/devcaliber/assistant/internal/logger"
	"github.com/devcaliber/assistant/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultBaseURL    = "https://openrouter.ai/api/v1"
	defaultModel      = "meta-llama/llama-3.2-3b-instruct:free"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	retryBaseDelay    = time.Second

	previewLimit = 200
)

// Config holds OpenRouter client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	// SiteURL and SiteName are optional attribution headers for OpenRouter
	// rankings.
	SiteURL  string
	SiteName string
}

// Client talks to the OpenRouter chat completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	siteURL    string
	siteName   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates an OpenRouter backend client.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openrouter api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		siteURL:    cfg.SiteURL,
		siteName:   cfg.SiteName,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.WithBackendFields(log, "openrouter", cfg.Model),
	}, nil
}

func (c *Client) Name() string { return "openrouter" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateReply sends the conversation as structured chat messages with the
// system instruction and scoped context in the system turn.
func (c *Client) GenerateReply(ctx context.Context, req *ai.Request) (string, error) {
	messages := make([]chatMessage, 0, len(req.Turns)+1)
	if system := req.SystemText(); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	for _, turn := range req.Turns {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}

	body := chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		output, retryable, err := c.send(ctx, body)
		if err == nil {
			return output, nil
		}
		lastErr = err

		if !retryable || attempt == c.maxRetries {
			break
		}

		delay := time.Duration(attempt) * retryBaseDelay
		c.logger.Debug("retrying openrouter request",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := utils.WaitFor(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("openrouter: %w", lastErr)
}

func (c *Client) send(ctx context.Context, body chatRequest) (output string, retryable bool, err error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return "", retryable, fmt.Errorf("bad status %s: %s", resp.Status, logger.TruncateForLog(string(data), previewLimit))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}

	if parsed.Error != nil {
		return "", false, fmt.Errorf("api error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", false, errors.New("openrouter returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", false, errors.New("openrouter returned empty content")
	}

	return content, false, nil
}
