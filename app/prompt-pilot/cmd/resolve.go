package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/prompt-pilot/internal/ai"
	"github.com/cchalm/prompt-pilot/internal/persona"
	"github.com/cchalm/prompt-pilot/internal/scrape"
	"github.com/cchalm/prompt-pilot/internal/sidecar"
	"github.com/cchalm/prompt-pilot/internal/tui"
)

type resolveOptions struct {
	maxRounds    int
	personasFile string
	transcript   string
	url          string
	noQuestions  bool
	markdown     bool
}

var resolveOpts resolveOptions

var resolveCmd = &cobra.Command{
	Use:   "resolve [task]",
	Short: "Let stakeholder personas argue a task to a consensus",
	Long: `Runs a round-limited conversation in which the configured personas debate the task until they agree or
the round limit is reached. The task is taken from the arguments, or from the context file when none are given.
Questions the personas ask are put to you, a few per round, unless --no-questions is set.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().IntVar(&resolveOpts.maxRounds, "max-rounds", 0, "Maximum number of rounds (default from config, 10)")
	resolveCmd.Flags().StringVar(&resolveOpts.personasFile, "personas", "", "YAML file defining the personas")
	resolveCmd.Flags().StringVar(&resolveOpts.transcript, "transcript", "resolution.md", "File the transcript is written to")
	resolveCmd.Flags().StringVar(&resolveOpts.url, "url", "", "Add the text of a web page to the task")
	resolveCmd.Flags().BoolVar(&resolveOpts.noQuestions, "no-questions", false, "Never stop to answer the personas' questions")
	resolveCmd.Flags().BoolVar(&resolveOpts.markdown, "markdown", true, "Render replies as markdown")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	if err := cfg.Validate(); err != nil {
		return err
	}
	completer, err := createCompleter(cfg)
	if err != nil {
		return err
	}

	tp, err := createTelemetryProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tp)

	out, err := tui.NewRenderer(cmd.OutOrStdout(), resolveOpts.markdown, 0)
	if err != nil {
		return err
	}

	var input ai.LineReader
	if !resolveOpts.noQuestions {
		input = tui.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	err = resolveTask(ctx, resolveRun{
		opts:      resolveOpts,
		args:      args,
		out:       out,
		input:     input,
		completer: completer,
		session:   sessionOptions(cfg, completer, resolveOpts.transcript, tp),
		scraper:   scrape.New(nil),
	})
	if errors.Is(err, tui.ErrCancelled) {
		zap.S().Info("Cancelled")
		return nil
	}
	return err
}

type resolveRun struct {
	opts      resolveOptions
	args      []string
	out       *tui.Renderer
	input     ai.LineReader
	completer ai.Completer
	session   ai.SessionOptions
	scraper   *scrape.Scraper
}

func resolveTask(ctx context.Context, r resolveRun) error {
	task := strings.TrimSpace(strings.Join(r.args, " "))
	if task == "" {
		var err error
		task, err = sidecar.ReadContext(cfg.Files.Context)
		if err != nil {
			return err
		}
	}
	if r.opts.url != "" {
		page, err := r.scraper.Fetch(ctx, r.opts.url)
		if err != nil {
			return err
		}
		task += fmt.Sprintf("\n\nReference material from %s:\n%s", page.URL, page.Text)
	}

	personasFile := r.opts.personasFile
	if personasFile == "" {
		personasFile = cfg.Resolve.PersonasFile
	}
	personas, err := persona.Load(personasFile)
	if err != nil {
		return err
	}

	maxRounds := r.opts.maxRounds
	if maxRounds <= 0 {
		maxRounds = cfg.Resolve.MaxRounds
	}

	resolver := &persona.Resolver{
		Personas:             personas.List(),
		MaxRounds:            maxRounds,
		MaxQuestionsPerRound: cfg.Resolve.MaxQuestionsPerRound,
		Input:                r.input,
		OnReply: func(round int, reply ai.AssistantReply) {
			if err := r.out.Reply(fmt.Sprintf("Round %d", round), reply.Text); err != nil {
				zap.S().Warnf("Failed to render reply: %v", err)
			}
		},
	}

	result, err := resolver.Run(ctx, task, r.session)
	if err != nil {
		return err
	}

	if result.Resolved {
		r.out.Info("The personas reached a resolution after %d round(s).", result.Rounds)
	} else {
		r.out.Info("No resolution after %d round(s).", result.Rounds)
	}

	if err := sidecar.WriteFile(cfg.Files.Reply, result.FinalReply); err != nil {
		return err
	}
	r.out.Command("Run the following command to start aider:", sidecar.AiderCommand(sidecar.AiderOptions{
		Provider:        cfg.Provider,
		Model:           r.completer.Model(),
		FilesPath:       cfg.Files.Selected,
		SensitivePath:   cfg.Files.Sensitive,
		MessagePath:     cfg.Files.Reply,
		ConventionsPath: cfg.Files.Conventions,
	}))
	return nil
}
