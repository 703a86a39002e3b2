package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cchalm/prompt-pilot/internal/ai"
	"github.com/cchalm/prompt-pilot/internal/sidecar"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a recorded conversation as markdown",
	Long:  `Renders a conversation from the history directory as markdown. Without a session ID, the most recent one is exported.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return exportConversation(cfg.Files.HistoryDir, id, exportOutput, cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}

func exportConversation(historyDir, id, output string, out io.Writer) error {
	if id == "" {
		var err error
		id, err = latestSession(historyDir)
		if err != nil {
			return err
		}
	}

	store := ai.NewFileSystemConversationHistoryStore(historyDir)
	history, err := store.Get(id + ".json")
	if err != nil {
		return err
	}
	if history == nil {
		return fmt.Errorf("no conversation '%s' in %s", id, historyDir)
	}

	md, err := ai.ToMarkdown(*history)
	if err != nil {
		return err
	}

	if output != "" {
		return sidecar.WriteFile(output, md)
	}
	_, err = io.WriteString(out, md)
	return err
}

// latestSession returns the ID of the most recently written conversation in dir
func latestSession(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &ai.IOError{Path: dir, Err: err}
	}

	var (
		latest  string
		modTime int64
	)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); latest == "" || t > modTime {
			latest, modTime = strings.TrimSuffix(e.Name(), ".json"), t
		}
	}
	if latest == "" {
		return "", errors.New("no recorded conversations, run 'prompt-pilot chat' first")
	}
	return latest, nil
}
