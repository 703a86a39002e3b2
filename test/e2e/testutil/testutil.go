//go:build e2e

package testutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

// TestConfig holds configuration for end-to-end tests
type TestConfig struct {
	Model      string
	BaseURL    string
	Iterations int
	Timeout    time.Duration
	GroqAPIKey string
}

// LoadTestConfig loads test configuration from environment variables
func LoadTestConfig() TestConfig {
	config := TestConfig{
		Model:      ai.DefaultModel,
		BaseURL:    ai.DefaultBaseURL,
		Iterations: 3,
		Timeout:    300 * time.Second,
	}

	if model := os.Getenv("E2E_MODEL"); model != "" {
		config.Model = model
	}

	if baseURL := os.Getenv("E2E_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	if iterations := os.Getenv("E2E_ITERATIONS"); iterations != "" {
		if val, err := strconv.Atoi(iterations); err == nil {
			config.Iterations = val
		}
	}

	if timeout := os.Getenv("E2E_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil {
			config.Timeout = time.Duration(val) * time.Second
		}
	}

	config.GroqAPIKey = os.Getenv("GROQ_API_KEY")

	return config
}

// TestHarness provides utilities for end-to-end testing
type TestHarness struct {
	t         *testing.T
	config    TestConfig
	completer *ai.ChatCompletionClient
}

// NewTestHarness creates a new test harness
func NewTestHarness(t *testing.T) *TestHarness {
	config := LoadTestConfig()

	require.NotEmpty(t, config.GroqAPIKey, "GROQ_API_KEY environment variable is required for e2e tests")

	completer := ai.NewChatCompletionClient(ai.ChatCompletionConfig{
		APIKey:  config.GroqAPIKey,
		BaseURL: config.BaseURL,
		Model:   config.Model,
	})

	return &TestHarness{
		t:         t,
		config:    config,
		completer: completer,
	}
}

// Config returns the test configuration
func (h *TestHarness) Config() TestConfig {
	return h.config
}

// Completer returns the live chat completion client
func (h *TestHarness) Completer() *ai.ChatCompletionClient {
	return h.completer
}

// SessionOptions returns options that persist the transcript and history under a fresh temporary directory
func (h *TestHarness) SessionOptions() (ai.SessionOptions, string) {
	dir := h.t.TempDir()
	transcriptPath := filepath.Join(dir, "transcript.md")
	return ai.SessionOptions{
		Completer: h.completer,
		Store:     ai.NewFileTranscriptStore(transcriptPath),
		History:   ai.NewFileSystemConversationHistoryStore(filepath.Join(dir, "history")),
	}, transcriptPath
}

// RunIterations runs a test function multiple times and reports results
func (h *TestHarness) RunIterations(testName string, testFunc func(iteration int) error) {
	h.t.Helper()

	successCount := 0
	var lastError error

	for i := 0; i < h.config.Iterations; i++ {
		h.t.Logf("Running iteration %d/%d of %s", i+1, h.config.Iterations, testName)

		err := testFunc(i)
		if err != nil {
			h.t.Logf("Iteration %d failed: %v", i+1, err)
			lastError = err
		} else {
			successCount++
			h.t.Logf("Iteration %d succeeded", i+1)
		}
	}

	h.t.Logf("Test %s: %d/%d iterations succeeded", testName, successCount, h.config.Iterations)

	// Require at least 2/3 success rate for tests to pass
	minSuccessCount := (h.config.Iterations*2 + 2) / 3
	if successCount < minSuccessCount {
		require.NoErrorf(h.t, lastError, "Test %s failed with %d/%d successes (minimum %d required)",
			testName, successCount, h.config.Iterations, minSuccessCount)
	}
}

// WithTimeout runs a function with the configured timeout
func (h *TestHarness) WithTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	return fn(ctx)
}

// ScriptedInput answers ReadLine with canned lines, then reports io.EOF
type ScriptedInput struct {
	Lines []string
}

func (si *ScriptedInput) ReadLine(string) (string, error) {
	if len(si.Lines) == 0 {
		return "", io.EOF
	}
	line := si.Lines[0]
	si.Lines = si.Lines[1:]
	return line, nil
}
