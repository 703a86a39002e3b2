// Package watch follows a transcript file while another process writes to it
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Tail writes the current contents of path to w, then every change to it until ctx is cancelled. Appended text is
// written on its own; when the file is rewritten with a different beginning, the whole new content is written.
func Tail(ctx context.Context, path string, w io.Writer) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so that files created or replaced after the watch starts are still followed
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	t := &tailer{path: path, w: w}
	if err := t.update(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
				continue
			}
			if err := t.update(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zap.S().Warnf("Watcher error on %s: %v", path, err)
		}
	}
}

type tailer struct {
	path string
	w    io.Writer
	last string
}

func (t *tailer) update() error {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", t.path, err)
	}
	current := string(data)

	var out string
	switch {
	case current == t.last:
		return nil
	case strings.HasPrefix(current, t.last):
		out = current[len(t.last):]
	case strings.HasPrefix(t.last, current):
		// Truncated and not yet fully rewritten; wait for the next write
		return nil
	default:
		out = current
	}

	if _, err := io.WriteString(t.w, out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	t.last = current
	return nil
}
