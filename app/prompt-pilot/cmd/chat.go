package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/prompt-pilot/internal/ai"
	"github.com/cchalm/prompt-pilot/internal/config"
	"github.com/cchalm/prompt-pilot/internal/github"
	"github.com/cchalm/prompt-pilot/internal/knowledge"
	"github.com/cchalm/prompt-pilot/internal/prompt"
	"github.com/cchalm/prompt-pilot/internal/scrape"
	"github.com/cchalm/prompt-pilot/internal/sidecar"
	"github.com/cchalm/prompt-pilot/internal/tui"
)

// prompter is the operator input a run needs
type prompter interface {
	SelectOne(title string, options []string) (string, error)
	SelectMany(title string, options []string) ([]string, error)
	Confirm(question string, def bool) (bool, error)
	ai.LineReader
}

type chatOptions struct {
	issue           string
	url             string
	recall          bool
	markdown        bool
	skipConventions bool
}

var chatOpts chatOptions

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Compose a prompt and discuss it with the chat model",
	Long: `Asks for an action, a focus and a subject, reads the context (context.txt, a GitHub issue or a web page),
lets you pick the files to work on and the files that must not be modified, and then holds a conversation with
the chat model until it stops asking questions or you type 'exit'. The transcript is written to disk after every
turn. The run ends by printing the aider command to continue with.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatOpts.issue, "issue", "", "Use a GitHub issue (owner/repo#number) as the context")
	chatCmd.Flags().StringVar(&chatOpts.url, "url", "", "Use the text of a web page as the context")
	chatCmd.Flags().BoolVar(&chatOpts.recall, "recall", false, "Add relevant snippets from the knowledge store to the prompt")
	chatCmd.Flags().BoolVar(&chatOpts.markdown, "markdown", true, "Render replies as markdown")
	chatCmd.Flags().BoolVar(&chatOpts.skipConventions, "skip-conventions", false, "Do not generate CONVENTIONS.md")
	chatCmd.MarkFlagsMutuallyExclusive("issue", "url")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	completer, err := createCompleter(cfg)
	if err != nil {
		return err
	}
	if err := completer.Validate(); err != nil {
		return err
	}

	tp, err := createTelemetryProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tp)

	out, err := tui.NewRenderer(cmd.OutOrStdout(), chatOpts.markdown, 0)
	if err != nil {
		return err
	}

	run := &chatRun{
		cfg:       cfg,
		ui:        tui.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:       out,
		completer: completer,
		session:   sessionOptions(cfg, completer, cfg.Files.Transcript, tp),
		scraper:   scrape.New(nil),
		issueContext: func(ctx context.Context, ref string) (string, error) {
			return github.IssueContext(ctx, createGithubClient(ctx, cfg), ref)
		},
	}
	if chatOpts.recall {
		store, err := openKnowledgeStore(ctx, cfg, knowledge.TaskRetrievalQuery)
		if err != nil {
			return err
		}
		defer store.Close()
		run.knowledge = store
	}

	err = run.run(ctx, chatOpts)
	if errors.Is(err, tui.ErrCancelled) {
		zap.S().Info("Cancelled")
		return nil
	}
	return err
}

// chatRun holds the collaborators of one chat run
type chatRun struct {
	cfg       *config.Config
	ui        prompter
	out       *tui.Renderer
	completer ai.Completer
	session   ai.SessionOptions

	scraper      *scrape.Scraper
	issueContext func(ctx context.Context, ref string) (string, error)
	knowledge    *knowledge.Store // Optional
}

func (r *chatRun) run(ctx context.Context, opts chatOptions) error {
	sel, err := r.selectTask()
	if err != nil {
		return err
	}

	sel.Context, err = r.readContext(ctx, opts)
	if err != nil {
		return err
	}

	files, err := r.chooseFiles(sidecar.FileList(r.cfg.Files.Selected), "Select files to pass to the model")
	if err != nil {
		return err
	}
	r.out.Info("Files to be processed: %s", strings.Join(files, ", "))

	sel.SensitiveFiles, err = r.chooseFiles(sidecar.SensitiveList(r.cfg.Files.Sensitive), "Select sensitive files that should not be modified")
	if err != nil {
		return err
	}
	r.out.Info("Sensitive files: %s", strings.Join(sel.SensitiveFiles, ", "))

	var recalled []prompt.Knowledge
	if r.knowledge != nil {
		recalled, err = r.recall(ctx, sel)
		if err != nil {
			return err
		}
	}

	initial, err := prompt.Initial(sel, recalled)
	if err != nil {
		return err
	}

	session, err := ai.Start(initial, r.session)
	if err != nil {
		return err
	}

	intent, err := r.ui.ReadLine("What is the intent or goal of this change? ")
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if !opts.skipConventions {
		if err := r.writeConventions(ctx, sel, intent); err != nil {
			return err
		}
	}

	sends, err := ai.Converse(ctx, session, r.ui, r.showReply)
	if err != nil {
		return err
	}
	zap.S().Debugf("Conversation %s finished after %d requests", session.ID(), sends)

	r.out.Info("\nPlease manually review the generated files before proceeding.")
	r.out.Command("Run the following command to start aider:", sidecar.AiderCommand(sidecar.AiderOptions{
		Provider:        r.cfg.Provider,
		Model:           r.completer.Model(),
		FilesPath:       r.cfg.Files.Selected,
		SensitivePath:   r.cfg.Files.Sensitive,
		MessagePath:     r.cfg.Files.Reply,
		ConventionsPath: r.cfg.Files.Conventions,
	}))
	return nil
}

func (r *chatRun) selectTask() (prompt.Selection, error) {
	actionName, err := r.ui.SelectOne("Select an action", prompt.ActionNames())
	if err != nil {
		return prompt.Selection{}, err
	}
	action, err := prompt.ParseAction(actionName)
	if err != nil {
		return prompt.Selection{}, err
	}

	focus, err := r.ui.SelectOne("Select a focus", r.cfg.Menus.Focuses)
	if err != nil {
		return prompt.Selection{}, err
	}
	subject, err := r.ui.SelectOne("Select a subject", r.cfg.Menus.Subjects)
	if err != nil {
		return prompt.Selection{}, err
	}

	return prompt.Selection{Action: action, Focus: focus, Subject: subject}, nil
}

func (r *chatRun) readContext(ctx context.Context, opts chatOptions) (string, error) {
	switch {
	case opts.issue != "":
		return r.issueContext(ctx, opts.issue)
	case opts.url != "":
		page, err := r.scraper.Fetch(ctx, opts.url)
		if err != nil {
			return "", err
		}
		if page.Title != "" {
			return fmt.Sprintf("%s (%s)\n\n%s", page.Title, page.URL, page.Text), nil
		}
		return page.Text, nil
	default:
		return sidecar.ReadContext(r.cfg.Files.Context)
	}
}

// chooseFiles offers the working tree for selection and saves the result to list. A non-empty list is kept as it is
// unless the operator asks to add to it.
func (r *chatRun) chooseFiles(list sidecar.List, title string) ([]string, error) {
	existing, err := list.Load()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		more, err := r.ui.Confirm(fmt.Sprintf("%s already contains files. Would you like to add more files?", list.Path), true)
		if err != nil {
			return nil, err
		}
		if !more {
			return existing, nil
		}
	}

	candidates, err := sidecar.ListCandidates(".")
	if err != nil {
		return nil, err
	}
	chosen, err := r.ui.SelectMany(title, candidates)
	if err != nil {
		return nil, err
	}
	return list.Save(chosen, true)
}

func (r *chatRun) recall(ctx context.Context, sel prompt.Selection) ([]prompt.Knowledge, error) {
	matches, err := r.knowledge.Recall(ctx, prompt.TaskDescription(sel)+"\n"+sel.Context, r.cfg.Knowledge.RecallLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to recall knowledge: %w", err)
	}
	recalled := make([]prompt.Knowledge, len(matches))
	for i, m := range matches {
		recalled[i] = prompt.Knowledge{Source: m.Source, Content: m.Content}
	}
	zap.S().Debugf("Recalled %d snippets", len(recalled))
	return recalled, nil
}

// writeConventions asks the model for a CONVENTIONS.md. Failing to generate it does not end the run.
func (r *chatRun) writeConventions(ctx context.Context, sel prompt.Selection, intent string) error {
	path := r.cfg.Files.Conventions
	if _, err := os.Stat(path); err == nil {
		update, err := r.ui.Confirm(fmt.Sprintf("%s already exists. Would you like to update it?", path), true)
		if err != nil {
			return err
		}
		if !update {
			return nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		zap.S().Warnf("Failed to check %s: %v", path, err)
	}

	request, err := prompt.Conventions(prompt.TaskDescription(sel), strings.TrimSpace(intent), sel.SensitiveFiles)
	if err != nil {
		return err
	}
	reply, err := r.completer.Complete(ctx, request)
	if err != nil {
		zap.S().Warnf("Failed to generate %s: %v", path, err)
		return nil
	}
	if err := sidecar.WriteFile(path, strings.TrimSpace(reply)); err != nil {
		zap.S().Warnf("Failed to write %s: %v", path, err)
		return nil
	}
	r.out.Info("%s has been generated.", path)
	return nil
}

// showReply prints a reply and keeps the latest one in the reply file for aider
func (r *chatRun) showReply(reply ai.AssistantReply) {
	if err := r.out.Reply("Assistant", reply.Text); err != nil {
		zap.S().Warnf("Failed to render reply: %v", err)
	}
	if err := sidecar.WriteFile(r.cfg.Files.Reply, reply.Text); err != nil {
		zap.S().Errorf("Failed to save reply: %v", err)
	}
}
