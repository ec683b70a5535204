// Package llm provides text generators used to explain combos in suggestions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultSystemPrompt frames every generation.
const DefaultSystemPrompt = `You are a Magic: The Gathering deck building assistant.
Explain how a combo works and why it fits the deck in two or three sentences.
Don't use markdown formatting.`

// Provider names a text generation backend.
type Provider string

// Supported providers.
const (
	ProviderNone   Provider = "none"
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

var (
	// ErrUnavailable is returned when the backend cannot serve a generation.
	ErrUnavailable = errors.New("llm unavailable")

	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("llm returned an empty response")
)

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Settings selects and configures a provider.
type Settings struct {
	Provider Provider
	Model    string
	BaseURL  string
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string
	Timeout   time.Duration
}

// New builds the Generator for settings. ProviderNone returns nil, nil.
func New(settings Settings) (Generator, error) {
	switch settings.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOllama:
		cfg := DefaultOllamaConfig()
		if settings.Model != "" {
			cfg.Model = settings.Model
		}
		if settings.BaseURL != "" {
			cfg.BaseURL = settings.BaseURL
		}
		if settings.Timeout > 0 {
			cfg.InferenceTimeout = settings.Timeout
		}
		return NewOllamaClient(cfg), nil
	case ProviderOpenAI:
		cfg := DefaultOpenAIConfig()
		if settings.Model != "" {
			cfg.Model = settings.Model
		}
		cfg.BaseURL = settings.BaseURL
		if settings.Timeout > 0 {
			cfg.Timeout = settings.Timeout
		}
		env := settings.APIKeyEnv
		if env == "" {
			env = "OPENAI_API_KEY"
		}
		cfg.APIKey = os.Getenv(env)
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider needs an api key in $%s", env)
		}
		return NewOpenAIExplainer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", settings.Provider)
	}
}

// cleanResponse strips reasoning blocks some models emit and trims the text.
func cleanResponse(text string) (string, error) {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "</think>"); idx != -1 {
		text = strings.TrimSpace(text[idx+len("</think>"):])
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
