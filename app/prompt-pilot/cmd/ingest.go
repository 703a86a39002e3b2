package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/prompt-pilot/internal/ai"
	"github.com/cchalm/prompt-pilot/internal/knowledge"
	"github.com/cchalm/prompt-pilot/internal/scrape"
	"github.com/cchalm/prompt-pilot/internal/sidecar"
)

var ingestSelected bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path or URL...]",
	Short: "Embed files and web pages into the knowledge store",
	Long: `Splits each file, directory or web page into chunks, embeds them and stores them in the local knowledge
store, replacing whatever was stored for the same source before. Files listed in the sensitive file list are
never ingested.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestSelected, "selected", false, "Also ingest the files in the selected file list")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	sources := args
	if ingestSelected {
		selected, err := sidecar.FileList(cfg.Files.Selected).Load()
		if err != nil {
			return err
		}
		sources = append(sources, selected...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("nothing to ingest, pass paths or URLs or use --selected")
	}

	sensitive, err := sidecar.SensitiveList(cfg.Files.Sensitive).Load()
	if err != nil {
		return err
	}

	store, err := openKnowledgeStore(ctx, cfg, knowledge.TaskRetrievalDocument)
	if err != nil {
		return err
	}
	defer store.Close()
	zap.S().Debugf("Using knowledge store %s", store.Path())

	return ingestSources(ctx, store, scrape.New(nil), sources, sensitive, cmd.OutOrStdout())
}

func ingestSources(ctx context.Context, store *knowledge.Store, scraper *scrape.Scraper, sources, sensitive []string, out io.Writer) error {
	skip := map[string]bool{}
	for _, s := range sensitive {
		skip[filepath.Clean(s)] = true
	}

	for _, source := range sources {
		if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
			page, err := scraper.Fetch(ctx, source)
			if err != nil {
				return err
			}
			if err := ingestOne(ctx, store, source, page.Text, out); err != nil {
				return err
			}
			continue
		}

		paths := []string{source}
		if info, err := os.Stat(source); err != nil {
			return &ai.IOError{Path: source, Err: err}
		} else if info.IsDir() {
			paths, err = sidecar.ListCandidates(source)
			if err != nil {
				return err
			}
			for i, p := range paths {
				paths[i] = filepath.Join(source, p)
			}
		}

		for _, p := range paths {
			if skip[filepath.Clean(p)] {
				zap.S().Infof("Skipping sensitive file %s", p)
				continue
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return &ai.IOError{Path: p, Err: err}
			}
			if err := ingestOne(ctx, store, filepath.ToSlash(filepath.Clean(p)), string(data), out); err != nil {
				return err
			}
		}
	}
	return nil
}

func ingestOne(ctx context.Context, store *knowledge.Store, source, text string, out io.Writer) error {
	n, err := store.Ingest(ctx, source, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stored %d chunk(s) from %s\n", n, source)
	return nil
}
