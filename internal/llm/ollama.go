package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string

	// Model is the model name to use.
	Model string

	// System is sent as the system prompt with every generation.
	System string

	// RequestTimeout bounds the version and model listing calls.
	RequestTimeout time.Duration

	// InferenceTimeout bounds a single generation.
	InferenceTimeout time.Duration

	// AutoPullModel pulls the model when the server does not have it.
	AutoPullModel bool

	// Temperature is passed through to the model. Zero uses the model default.
	Temperature float64

	// MaxTokens caps the generated length. Zero leaves it uncapped.
	MaxTokens int
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() *OllamaConfig {
	return &OllamaConfig{
		BaseURL:          "http://localhost:11434",
		Model:            "qwen3:8b",
		System:           DefaultSystemPrompt,
		RequestTimeout:   10 * time.Second,
		InferenceTimeout: 60 * time.Second,
		AutoPullModel:    false,
		Temperature:      0.3,
		MaxTokens:        160,
	}
}

// OllamaClient generates combo explanations with a local Ollama server.
type OllamaClient struct {
	config     *OllamaConfig
	httpClient *http.Client
	available  bool
	modelReady bool
	lastCheck  time.Time
	mu         sync.RWMutex
}

// OllamaStatus represents the status of Ollama.
type OllamaStatus struct {
	Available    bool     `json:"available"`
	Version      string   `json:"version,omitempty"`
	ModelReady   bool     `json:"model_ready"`
	ModelName    string   `json:"model_name"`
	ModelsLoaded []string `json:"models_loaded,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// GenerateRequest is the request body for /api/generate.
type GenerateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *GenerateOptions `json:"options,omitempty"`
	System  string           `json:"system,omitempty"`
}

// GenerateOptions are optional parameters for generation.
type GenerateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// GenerateResponse is the response from generation.
type GenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count,omitempty"`
}

// VersionResponse is the response from the version endpoint.
type VersionResponse struct {
	Version string `json:"version"`
}

// ListModelsResponse is the response from listing models.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo describes a model.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(config *OllamaConfig) *OllamaClient {
	if config == nil {
		config = DefaultOllamaConfig()
	}

	return &OllamaClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

// CheckAvailability checks if Ollama is running and the model is ready.
func (c *OllamaClient) CheckAvailability(ctx context.Context) *OllamaStatus {
	status := &OllamaStatus{
		ModelName: c.config.Model,
	}

	version, err := c.getVersion(ctx)
	if err != nil {
		status.Error = fmt.Sprintf("ollama not available: %v", err)
		c.setAvailability(false, false)
		return status
	}

	status.Available = true
	status.Version = version

	models, err := c.listModels(ctx)
	if err != nil {
		status.Error = fmt.Sprintf("failed to list models: %v", err)
		c.setAvailability(true, false)
		return status
	}

	family := strings.Split(c.config.Model, ":")[0]
	status.ModelsLoaded = make([]string, 0, len(models))
	for _, m := range models {
		status.ModelsLoaded = append(status.ModelsLoaded, m.Name)
		if strings.HasPrefix(m.Name, family) {
			status.ModelReady = true
		}
	}

	if !status.ModelReady && c.config.AutoPullModel {
		if pullErr := c.PullModel(ctx); pullErr != nil {
			status.Error = fmt.Sprintf("failed to pull model: %v", pullErr)
		} else {
			status.ModelReady = true
		}
	} else if !status.ModelReady {
		status.Error = fmt.Sprintf("model %s not found", c.config.Model)
	}

	c.setAvailability(status.Available, status.ModelReady)
	return status
}

// IsAvailable returns whether the last check found Ollama and the model.
func (c *OllamaClient) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available && c.modelReady
}

// Generate returns the model's trimmed answer to prompt.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.IsAvailable() {
		status := c.CheckAvailability(ctx)
		if !status.Available || !status.ModelReady {
			return "", fmt.Errorf("%w: %s", ErrUnavailable, status.Error)
		}
	}

	req := &GenerateRequest{
		Model:  c.config.Model,
		System: c.config.System,
		Prompt: prompt,
		Stream: false,
	}
	if c.config.Temperature > 0 || c.config.MaxTokens > 0 {
		req.Options = &GenerateOptions{
			Temperature: c.config.Temperature,
			NumPredict:  c.config.MaxTokens,
		}
	}

	resp, err := c.doGenerate(ctx, req)
	if err != nil {
		return "", err
	}
	return cleanResponse(resp.Response)
}

// PullModel pulls the configured model.
func (c *OllamaClient) PullModel(ctx context.Context) error {
	body, err := json.Marshal(map[string]interface{}{
		"name":   c.config.Model,
		"stream": false,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Pulling a model can take many minutes.
	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pull request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pull failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// doGenerate performs the generate API call.
func (c *OllamaClient) doGenerate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: c.config.InferenceTimeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generate failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &genResp, nil
}

// getVersion gets the Ollama version.
func (c *OllamaClient) getVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/version", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("version check failed with status %d", resp.StatusCode)
	}

	var version VersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", err
	}

	return version.Version, nil
}

// listModels lists available models.
func (c *OllamaClient) listModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models failed with status %d", resp.StatusCode)
	}

	var models ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, err
	}

	return models.Models, nil
}

func (c *OllamaClient) setAvailability(available, modelReady bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = available
	c.modelReady = modelReady
	c.lastCheck = time.Now()
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.config.Model
}
