package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the OpenAI explainer.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for compatible gateways.
	BaseURL     string
	Model       string
	System      string
	Timeout     time.Duration
	MaxTokens   int64
	Temperature float64
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		Model:       "gpt-4o-mini",
		System:      DefaultSystemPrompt,
		Timeout:     30 * time.Second,
		MaxTokens:   200,
		Temperature: 0.3,
	}
}

// OpenAIExplainer generates combo explanations with the chat completions API.
type OpenAIExplainer struct {
	config *OpenAIConfig
	client openai.Client
}

// NewOpenAIExplainer creates an explainer for config.
func NewOpenAIExplainer(config *OpenAIConfig) *OpenAIExplainer {
	if config == nil {
		config = DefaultOpenAIConfig()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(1),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &OpenAIExplainer{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// Generate returns the first choice's trimmed answer to prompt.
func (e *OpenAIExplainer) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if e.config.System != "" {
		messages = append(messages, openai.SystemMessage(e.config.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(e.config.Model),
		Messages: messages,
	}
	if e.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(e.config.MaxTokens)
	}
	if e.config.Temperature > 0 {
		params.Temperature = openai.Float(e.config.Temperature)
	}

	res, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return cleanResponse(res.Choices[0].Message.Content)
}

// Model returns the configured model name.
func (e *OpenAIExplainer) Model() string {
	return e.config.Model
}
