package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/zyjarge/podcast-studio/app/pipeline"
)

const (
	defaultBaseURL     = "https://api.deepseek.com"
	defaultModel       = "deepseek-chat"
	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
)

// Client wraps the DeepSeek chat completion API for script generation.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the DeepSeek client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// NewClient constructs a DeepSeek API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	return client
}

// GenerateScript asks the model for a podcast dialogue script covering the
// given news item. Implements pipeline.ScriptGenerator.
func (c *Client) GenerateScript(ctx context.Context, req pipeline.ScriptRequest) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", errors.New("deepseek: api key required")
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Content) == "" {
		return "", errors.New("deepseek: news title or content required")
	}

	body := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req.Prompt)},
			{Role: "user", Content: userPrompt(req)},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("deepseek: encode request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("deepseek: build url: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("deepseek: request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("deepseek: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepseek: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("deepseek: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("deepseek: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("deepseek: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("deepseek: empty choices")
	}

	script := strings.TrimSpace(completion.Choices[0].Message.Content)
	if script == "" {
		return "", errors.New("deepseek: empty content")
	}

	return script, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
