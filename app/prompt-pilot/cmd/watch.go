package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchalm/prompt-pilot/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Follow the transcript while a conversation is in progress",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupContext()
		defer cancel()

		path := cfg.Files.Transcript
		if len(args) == 1 {
			path = args[0]
		}
		return watch.Tail(ctx, path, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
