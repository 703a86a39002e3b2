// Package sidecar manages the plain-text files prompt-pilot leaves next to the project for the pair-programming tool:
// the selected file list, the sensitive file list and the free-text context.
package sidecar

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

// ReadMarker prefixes each line of the sensitive file list so the list can be spliced into an aider command line
const ReadMarker = "--read "

// ErrContextMissing is returned by ReadContext when the context file does not exist
var ErrContextMissing = errors.New("context file does not exist")

// List is a newline-separated list of paths stored on disk. Lines may carry a fixed prefix.
type List struct {
	Path   string
	Prefix string
}

// FileList returns the list of files passed to the pair-programming tool
func FileList(path string) List {
	return List{Path: path}
}

// SensitiveList returns the list of files that must only be read, never modified
func SensitiveList(path string) List {
	return List{Path: path, Prefix: ReadMarker}
}

// Load returns the entries of the list with the prefix removed. A missing file is an empty list.
func (l List) Load() ([]string, error) {
	data, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, &ai.IOError{Path: l.Path, Err: err}
	}

	var entries []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimSpace(strings.TrimPrefix(line, strings.TrimSpace(l.Prefix)))
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ai.IOError{Path: l.Path, Err: err}
	}
	return entries, nil
}

// Save writes entries to the list. When keepExisting is set, entries already on disk are kept in front and duplicates
// are dropped. Returns the entries as written.
func (l List) Save(entries []string, keepExisting bool) ([]string, error) {
	var all []string
	if keepExisting {
		existing, err := l.Load()
		if err != nil {
			return nil, err
		}
		all = append(all, existing...)
	}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || slices.Contains(all, e) {
			continue
		}
		all = append(all, e)
	}

	lines := make([]string, len(all))
	for i, e := range all {
		lines[i] = l.Prefix + e
	}
	if err := os.WriteFile(l.Path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return nil, &ai.IOError{Path: l.Path, Err: err}
	}
	return all, nil
}

// ListCandidates returns every regular file under root, skipping version control directories. Paths are relative to
// root and prefixed with "./".
func ListCandidates(root string) ([]string, error) {
	var candidates []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		candidates = append(candidates, "./"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &ai.IOError{Path: root, Err: err}
	}
	return candidates, nil
}

// ReadContext returns the free-text context for the prompt. When the file is missing, the error tells the operator how
// to create it.
func ReadContext(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: '%s'. Create it with the necessary context information, for example `nano %s`, then run again",
			ErrContextMissing, path, path)
	} else if err != nil {
		return "", &ai.IOError{Path: path, Err: err}
	}
	return string(data), nil
}

// WriteFile writes content to path, reporting failures as an IOError
func WriteFile(path string, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &ai.IOError{Path: path, Err: err}
	}
	return nil
}
