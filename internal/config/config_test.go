package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ProviderGroq, cfg.Provider)
	assert.Equal(t, ai.DefaultModel, cfg.Model)
	assert.Equal(t, ai.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, "initial_prompt.md", cfg.Files.Transcript)
	assert.Equal(t, "sensitive_files.txt", cfg.Files.Sensitive)
	assert.Equal(t, 10, cfg.Resolve.MaxRounds)
	assert.Equal(t, DefaultFocuses, cfg.Menus.Focuses)
	assert.Equal(t, DefaultSubjects, cfg.Menus.Subjects)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	yaml := `
provider: anthropic
model: from-file
menus:
  subjects: [Go, Rust]
resolve:
  max_rounds: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt-pilot.yaml"), []byte(yaml), 0644))
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-secret")
	t.Setenv("PROMPT_PILOT_FILES_TRANSCRIPT", "chat.md")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "")
	require.NoError(t, flags.Parse([]string{"--model", "from-flag"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "from-flag", cfg.Model)
	assert.Equal(t, []string{"Go", "Rust"}, cfg.Menus.Subjects)
	assert.Equal(t, 4, cfg.Resolve.MaxRounds)
	assert.Equal(t, "chat.md", cfg.Files.Transcript)
	assert.Equal(t, "anthropic-secret", cfg.AnthropicAPIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestValidate_MissingCredential(t *testing.T) {
	cfg := &Config{Provider: ProviderGroq, Resolve: ResolveConfig{MaxRounds: 10}}

	var configErr *ai.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &configErr)
	assert.Equal(t, "GROQ_API_KEY", configErr.Key)
}

func TestValidate_UnsupportedProvider(t *testing.T) {
	cfg := &Config{Provider: "openai", Resolve: ResolveConfig{MaxRounds: 10}}
	require.ErrorContains(t, cfg.Validate(), "unsupported provider")
}
