// Package gemini implements the fallback generative backend on the Google
// GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/devcaliber/assistant/internal/ai"
	"github.com/devcaliber/assistant/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 2
	baseRetryDelay    = 2 * time.Second
	// maxRetryDelay bounds server-suggested delays; anything longer aborts the
	// turn so the orchestrator can degrade instead of hanging.
	maxRetryDelay = 30 * time.Second

	previewLimit = 200
)

// sleep is swappable in tests.
var sleep = time.Sleep

var retryAfterPattern = regexp.MustCompile(`retry (?:after|in) (\d+(?:\.\d+)?) seconds?`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	client *genai.Client
}

func (g genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return g.client.Chats.Create(ctx, model, config, history)
}

// Generator wraps the Google GenAI client as an ai.Backend.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Generator{
		chats:      genaiChats{client: client},
		model:      model,
		maxRetries: maxRetries,
		logger:     logger.WithBackendFields(log, "gemini", model),
	}, nil
}

func (g *Generator) Name() string { return "gemini" }

// GenerateReply sends the conversation as a flattened transcript with the
// scoped context carried in the system instruction.
func (g *Generator) GenerateReply(ctx context.Context, req *ai.Request) (string, error) {
	return g.GenerateContent(ctx, req.SystemText(), req.Transcript())
}

// GenerateContent sends one message to Gemini and returns the first textual
// response, retrying temporary API errors.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if message = strings.TrimSpace(message); message == "" {
		return "", errors.New("message must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		chat, err := g.chats.Create(ctx, g.model, config, nil)
		if err != nil {
			return "", fmt.Errorf("create chat: %w", err)
		}

		g.logger.Debug("gemini request",
			zap.Int("attempt", attempt),
			zap.String("message_preview", logger.TruncateForLog(message, previewLimit)),
		)

		resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
		if err == nil {
			output := responseText(resp)
			if output == "" {
				return "", errors.New("gemini api returned empty response")
			}
			return output, nil
		}
		lastErr = err

		delay, retryable := retryDelay(err, attempt)
		if !retryable || attempt == g.maxRetries {
			break
		}

		g.logger.Debug("retrying gemini request",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		sleep(delay)
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

// retryDelay classifies err and returns how long to wait before the next
// attempt. Server-suggested delays longer than maxRetryDelay are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
	default:
		return 0, false
	}

	delay := time.Duration(attempt) * baseRetryDelay
	if match := retryAfterPattern.FindStringSubmatch(strings.ToLower(apiErr.Message)); match != nil {
		if seconds, err := strconv.ParseFloat(match[1], 64); err == nil {
			delay = time.Duration(seconds * float64(time.Second))
		}
	}

	if delay > maxRetryDelay {
		return 0, false
	}
	return delay, true
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
