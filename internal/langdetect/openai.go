package langdetect

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/openalexbot/internal/model"
)

var isoCodePattern = regexp.MustCompile(`^[a-z]{2}$`)

const detectPrompt = "Identify the language of the scholarly work title supplied by the user. " +
	"Reply with the two-letter ISO 639-1 code only, in lowercase, or \"xx\" if unsure."

// OpenAI asks a chat model for the language code
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates a detector backed by an OpenAI-compatible API
func NewOpenAI(cfg model.LanguageConfig) (*OpenAI, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", model.ErrInvalidInput)
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	m := cfg.OpenAIModel
	if m == "" {
		m = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   m,
		timeout: timeout,
	}, nil
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Detect(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUndetermined
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: detectPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   4,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai language detection: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai language detection: %w: empty response", ErrUndetermined)
	}

	code := strings.ToLower(strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), ".\"'"))
	if !isoCodePattern.MatchString(code) || code == "xx" {
		return "", ErrUndetermined
	}
	return code, nil
}
