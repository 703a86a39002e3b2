// Package config loads prompt-pilot's configuration from defaults, an optional YAML file, the environment and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

const (
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for prompt-pilot
type Config struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	HonorRetryAfter bool          `mapstructure:"honor_retry_after"`
	MaxRetryWait    time.Duration `mapstructure:"max_retry_wait"`
	Debug           bool          `mapstructure:"debug"`

	GroqAPIKey      string `mapstructure:"groq_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	GitHubToken     string `mapstructure:"github_token"`

	Files     FilesConfig     `mapstructure:"files"`
	Menus     MenusConfig     `mapstructure:"menus"`
	Resolve   ResolveConfig   `mapstructure:"resolve"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// FilesConfig names the files a run reads and writes, relative to the working directory
type FilesConfig struct {
	Context     string `mapstructure:"context"`
	Selected    string `mapstructure:"selected"`
	Sensitive   string `mapstructure:"sensitive"`
	Transcript  string `mapstructure:"transcript"`
	Reply       string `mapstructure:"reply"`
	Conventions string `mapstructure:"conventions"`
	HistoryDir  string `mapstructure:"history_dir"`
}

// MenusConfig holds the choices offered for focus and subject
type MenusConfig struct {
	Focuses  []string `mapstructure:"focuses"`
	Subjects []string `mapstructure:"subjects"`
}

// ResolveConfig holds persona conflict resolution settings
type ResolveConfig struct {
	MaxRounds            int    `mapstructure:"max_rounds"`
	MaxQuestionsPerRound int    `mapstructure:"max_questions_per_round"`
	PersonasFile         string `mapstructure:"personas_file"`
}

// KnowledgeConfig holds vector store and embedding settings
type KnowledgeConfig struct {
	DBPath         string `mapstructure:"db_path"`
	Embedder       string `mapstructure:"embedder"`
	OllamaEndpoint string `mapstructure:"ollama_endpoint"`
	OllamaModel    string `mapstructure:"ollama_model"`
	GenAIModel     string `mapstructure:"genai_model"`
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap"`
	RecallLimit    int    `mapstructure:"recall_limit"`
}

// TelemetryConfig holds trace export settings
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// DefaultFocuses and DefaultSubjects are offered when the config file does not override them
var (
	DefaultFocuses = []string{
		"Login System", "Sorting Algorithm", "Database Connection",
		"User Interface", "API Endpoint", "Vue.js Component",
		"Vue.js State Management", "Ansible Playbook", "Ansible Role", "Vite",
	}
	DefaultSubjects = []string{
		"JavaScript", "Python", "Java", "C++", "React", "Angular",
		"Django", "Flask", "TensorFlow", "Vue.js", "Ansible", "Vite",
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGroq)
	v.SetDefault("model", ai.DefaultModel)
	v.SetDefault("base_url", ai.DefaultBaseURL)
	v.SetDefault("timeout", 120*time.Second)
	v.SetDefault("honor_retry_after", false)
	v.SetDefault("max_retry_wait", 30*time.Second)
	v.SetDefault("debug", false)

	v.SetDefault("files.context", "context.txt")
	v.SetDefault("files.selected", "files.txt")
	v.SetDefault("files.sensitive", "sensitive_files.txt")
	v.SetDefault("files.transcript", "initial_prompt.md")
	v.SetDefault("files.reply", "prompt.txt")
	v.SetDefault("files.conventions", "CONVENTIONS.md")
	v.SetDefault("files.history_dir", ".prompt-pilot/history")

	v.SetDefault("menus.focuses", DefaultFocuses)
	v.SetDefault("menus.subjects", DefaultSubjects)

	v.SetDefault("resolve.max_rounds", 10)
	v.SetDefault("resolve.max_questions_per_round", 3)
	v.SetDefault("resolve.personas_file", "")

	v.SetDefault("knowledge.db_path", ".prompt-pilot/knowledge.db")
	v.SetDefault("knowledge.embedder", "ollama")
	v.SetDefault("knowledge.ollama_endpoint", "http://localhost:11434")
	v.SetDefault("knowledge.ollama_model", "nomic-embed-text")
	v.SetDefault("knowledge.genai_model", "gemini-embedding-001")
	v.SetDefault("knowledge.chunk_size", 1000)
	v.SetDefault("knowledge.chunk_overlap", 100)
	v.SetDefault("knowledge.recall_limit", 5)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
}

// flagKeys maps command line flag names to configuration keys
var flagKeys = map[string]string{
	"provider":  "provider",
	"model":     "model",
	"base-url":  "base_url",
	"timeout":   "timeout",
	"debug":     "debug",
	"telemetry": "telemetry.enabled",
}

// Load reads configuration. configFile may be empty, in which case prompt-pilot.yaml is looked up in the working
// directory and then in the user config directory. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("prompt-pilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(userConfigDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("PROMPT_PILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Credentials use their conventional names
	_ = v.BindEnv("groq_api_key", "GROQ_API_KEY")
	_ = v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("github_token", "GITHUB_TOKEN")
	_ = v.BindEnv("knowledge.gemini_api_key", "GEMINI_API_KEY")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag '%s': %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func userConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "prompt-pilot")
}

// APIKey returns the credential for the configured provider and the environment variable it is read from
func (c *Config) APIKey() (key string, env string, err error) {
	switch c.Provider {
	case ProviderGroq:
		return c.GroqAPIKey, "GROQ_API_KEY", nil
	case ProviderAnthropic:
		return c.AnthropicAPIKey, "ANTHROPIC_API_KEY", nil
	default:
		return "", "", fmt.Errorf("unsupported provider '%s', expected '%s' or '%s'", c.Provider, ProviderGroq, ProviderAnthropic)
	}
}

// Validate checks that a credential is present for the configured provider
func (c *Config) Validate() error {
	key, env, err := c.APIKey()
	if err != nil {
		return err
	}
	if key == "" {
		return &ai.ConfigurationError{Key: env}
	}
	if c.Resolve.MaxRounds < 1 {
		return fmt.Errorf("resolve.max_rounds must be at least 1, got %d", c.Resolve.MaxRounds)
	}
	return nil
}
