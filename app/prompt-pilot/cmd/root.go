package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/prompt-pilot/internal/config"
	"github.com/cchalm/prompt-pilot/internal/logging"
)

var (
	cfg         *config.Config
	configFile  string
	flushLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "prompt-pilot",
	Short: "Plan a code change with an LLM before handing it to aider",
	Long: `prompt-pilot collects what you want to do (action, focus, subject and context), turns it into a prompt,
and holds a conversation about it with a hosted chat model. The transcript is written to disk after every
turn, and the run ends by printing the aider command that picks up where the conversation left off.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRootConfig,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		flushLogger()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	// Load .env file
	envErr := godotenv.Load()

	var err error
	cfg, err = config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	flushLogger, err = logging.Setup(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if envErr != nil {
		zap.S().Debug("No .env file found, using environment variables")
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: ./prompt-pilot.yaml or $XDG_CONFIG_HOME/prompt-pilot/prompt-pilot.yaml)")
	pf.String("provider", "", "Chat provider: groq or anthropic")
	pf.String("model", "", "Model to send requests to")
	pf.String("base-url", "", "Base URL of the OpenAI-compatible chat completion API")
	pf.Duration("timeout", 0, "Timeout of each request to the chat API")
	pf.Bool("debug", false, "Enable debug logging")
	pf.Bool("telemetry", false, "Export traces over OTLP/HTTP")
}
