package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Completer sends the full transcript text as a single user message and returns the assistant's reply
type Completer interface {
	// Complete issues one request. Non-success responses are reported as *EndpointError.
	Complete(ctx context.Context, content string) (string, error)
	// Validate reports a *ConfigurationError when no credential is available
	Validate() error
	// Model returns the model requests are sent to
	Model() string
}

// DefaultAnthropicModel is used when the Anthropic provider is selected without a model of its own
const DefaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_0)

// AnthropicClient implements Completer with the Anthropic Messages API
type AnthropicClient struct {
	client    anthropic.Client
	apiKey    string
	model     anthropic.Model
	maxTokens int64
}

func NewAnthropicClient(apiKey string, model string, maxTokens int64, httpClient *http.Client, opts ...option.RequestOption) *AnthropicClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	clientOpts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithAPIKey(apiKey),
		// Retries are the caller's decision
		option.WithMaxRetries(0),
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(append(clientOpts, opts...)...),
		apiKey:    apiKey,
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}
}

func (ac *AnthropicClient) Validate() error {
	if ac.apiKey == "" {
		return &ConfigurationError{Key: "ANTHROPIC_API_KEY"}
	}
	return nil
}

func (ac *AnthropicClient) Model() string {
	return string(ac.model)
}

func (ac *AnthropicClient) Complete(ctx context.Context, content string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     ac.model,
		MaxTokens: ac.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(content)),
		},
	}

	response, err := ac.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &EndpointError{Status: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	var reply strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	return reply.String(), nil
}
