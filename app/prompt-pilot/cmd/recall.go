package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cchalm/prompt-pilot/internal/knowledge"
)

var recallLimit int

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Show the stored chunks most similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupContext()
		defer cancel()

		store, err := openKnowledgeStore(ctx, cfg, knowledge.TaskRetrievalQuery)
		if err != nil {
			return err
		}
		defer store.Close()

		limit := recallLimit
		if limit <= 0 {
			limit = cfg.Knowledge.RecallLimit
		}
		matches, err := store.Recall(ctx, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(matches) == 0 {
			fmt.Fprintln(out, "No matches. Use 'prompt-pilot ingest' to add documents.")
			return nil
		}
		for _, m := range matches {
			fmt.Fprintf(out, "%.3f  %s #%d\n%s\n\n", m.Score, m.Source, m.Seq, excerpt(m.Content, 300))
		}
		return nil
	},
}

func init() {
	recallCmd.Flags().IntVar(&recallLimit, "limit", 0, "Number of chunks to show (default from config)")

	rootCmd.AddCommand(recallCmd)
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
