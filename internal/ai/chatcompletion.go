package ai

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
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-8b-8192"
)

// ChatCompletionConfig configures a ChatCompletionClient
type ChatCompletionConfig struct {
	APIKey    string
	APIKeyEnv string // Named in configuration errors, defaults to GROQ_API_KEY
	BaseURL   string
	Model     string

	HTTPClient *http.Client
}

// ChatCompletionClient implements Completer against an OpenAI-compatible chat completions endpoint
type ChatCompletionClient struct {
	apiKey     string
	apiKeyEnv  string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewChatCompletionClient(cfg ChatCompletionConfig) *ChatCompletionClient {
	c := &ChatCompletionClient{
		apiKey:     cfg.APIKey,
		apiKeyEnv:  cfg.APIKeyEnv,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}
	if c.apiKeyEnv == "" {
		c.apiKeyEnv = "GROQ_API_KEY"
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *ChatCompletionClient) Validate() error {
	if c.apiKey == "" {
		return &ConfigurationError{Key: c.apiKeyEnv}
	}
	return nil
}

func (c *ChatCompletionClient) Model() string {
	return c.model
}

func (c *ChatCompletionClient) Complete(ctx context.Context, content string) (string, error) {
	request := chatCompletionRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: content}},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &EndpointError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var response chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("response contained no choices")
	}

	return response.Choices[0].Message.Content, nil
}
