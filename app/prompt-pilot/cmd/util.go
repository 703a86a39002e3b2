package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	gogithub "github.com/google/go-github/v72/github"
	"go.uber.org/zap"

	"github.com/cchalm/prompt-pilot/internal/ai"
	"github.com/cchalm/prompt-pilot/internal/config"
	"github.com/cchalm/prompt-pilot/internal/github"
	"github.com/cchalm/prompt-pilot/internal/knowledge"
	"github.com/cchalm/prompt-pilot/internal/telemetry"
	"github.com/cchalm/prompt-pilot/internal/transport"
)

const tracerName = "github.com/cchalm/prompt-pilot"

func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		select {
		case <-interrupt:
		case <-ctx.Done():
			signal.Stop(interrupt)
			return
		}
		zap.S().Info("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		zap.S().Fatal("Forcing shutdown")
	}()

	return ctx, cancel
}

func createHTTPClient(c *config.Config) *http.Client {
	var rt http.RoundTripper = http.DefaultTransport
	if c.HonorRetryAfter {
		rt = transport.WithRetryAfter(rt, c.MaxRetryWait)
	}
	return &http.Client{
		Timeout:   c.Timeout,
		Transport: rt,
	}
}

func createCompleter(c *config.Config) (ai.Completer, error) {
	key, env, err := c.APIKey()
	if err != nil {
		return nil, err
	}
	httpClient := createHTTPClient(c)

	switch c.Provider {
	case config.ProviderAnthropic:
		model := c.Model
		if model == "" || model == ai.DefaultModel {
			model = ai.DefaultAnthropicModel
		}
		return ai.NewAnthropicClient(key, model, 0, httpClient), nil
	default:
		return ai.NewChatCompletionClient(ai.ChatCompletionConfig{
			APIKey:     key,
			APIKeyEnv:  env,
			BaseURL:    c.BaseURL,
			Model:      c.Model,
			HTTPClient: httpClient,
		}), nil
	}
}

func createTelemetryProvider(ctx context.Context, c *config.Config) (*telemetry.Provider, error) {
	return telemetry.NewProvider(ctx, telemetry.TelemetryConfig{
		Enabled:  c.Telemetry.Enabled,
		Endpoint: c.Telemetry.Endpoint,
		Insecure: c.Telemetry.Insecure,
		Version:  version,
	})
}

func shutdownTelemetry(tp *telemetry.Provider) {
	if err := tp.Shutdown(context.Background()); err != nil {
		zap.S().Warnf("Failed to flush traces: %v", err)
	}
}

func createGithubClient(ctx context.Context, c *config.Config) *gogithub.Client {
	return github.NewClient(ctx, c.GitHubToken)
}

// createEmbedder builds the configured embedder. taskType only applies to GenAI, see knowledge.TaskRetrievalDocument
// and knowledge.TaskRetrievalQuery.
func createEmbedder(ctx context.Context, c *config.Config, taskType string) (knowledge.Embedder, error) {
	switch c.Knowledge.Embedder {
	case "ollama", "":
		return knowledge.NewOllamaEmbedder(c.Knowledge.OllamaEndpoint, c.Knowledge.OllamaModel, nil), nil
	case "genai":
		return knowledge.NewGenAIEmbedder(ctx, c.Knowledge.GeminiAPIKey, c.Knowledge.GenAIModel, taskType)
	default:
		return nil, fmt.Errorf("unsupported embedder '%s', expected 'ollama' or 'genai'", c.Knowledge.Embedder)
	}
}

func openKnowledgeStore(ctx context.Context, c *config.Config, taskType string) (*knowledge.Store, error) {
	embedder, err := createEmbedder(ctx, c, taskType)
	if err != nil {
		return nil, err
	}
	return knowledge.Open(c.Knowledge.DBPath, embedder, knowledge.Options{
		ChunkSize:    c.Knowledge.ChunkSize,
		ChunkOverlap: c.Knowledge.ChunkOverlap,
	})
}

func sessionOptions(c *config.Config, completer ai.Completer, transcriptPath string, tp *telemetry.Provider) ai.SessionOptions {
	store := ai.NewFileTranscriptStore(transcriptPath)
	zap.S().Debugf("Transcript is written to %s", store.Path())
	opts := ai.SessionOptions{
		Completer: completer,
		Store:     store,
	}
	if c.Files.HistoryDir != "" {
		opts.History = ai.NewFileSystemConversationHistoryStore(c.Files.HistoryDir)
	}
	if tp != nil {
		opts.Tracer = tp.Tracer(tracerName)
	}
	return opts
}
