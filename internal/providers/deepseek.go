package providers

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const deepSeekDefaultBaseURL = "https://api.deepseek.com"

// DeepSeekClient is a TextClient backed by the DeepSeek chat completions API,
// which speaks the OpenAI wire protocol.
type DeepSeekClient struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	timeout time.Duration
}

// DeepSeekConfig configures a DeepSeek client.
type DeepSeekConfig struct {
	Name    string
	Model   string
	APIKey  string
	BaseURL string // Defaults to the public DeepSeek endpoint
	Timeout time.Duration
}

// NewDeepSeekClient creates a DeepSeek-backed text client.
func NewDeepSeekClient(cfg DeepSeekConfig) *DeepSeekClient {
	name := cfg.Name
	if name == "" {
		name = string(BackendDeepSeek)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = deepSeekDefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		// Reasoner models can think for minutes on long article prompts.
		timeout = 10 * time.Minute
	}
	return &DeepSeekClient{
		name:    name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		timeout: timeout,
	}
}

// Name returns the client identifier.
func (c *DeepSeekClient) Name() string {
	return c.name
}

// Generate sends a single user prompt and returns the completion text.
func (c *DeepSeekClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := openai.NewClient(
		option.WithAPIKey(c.apiKey),
		option.WithBaseURL(c.baseURL),
	)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("deepseek completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("deepseek: empty choices (model=%s)", c.model)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("deepseek: empty completion (model=%s)", c.model)
	}
	return content, nil
}

var _ TextClient = (*DeepSeekClient)(nil)
