package ai

import (
	"fmt"
	"os"
)

// TranscriptStore persists the concatenated transcript after every mutation
type TranscriptStore interface {
	// Save replaces the stored transcript with text
	Save(text string) error
	// Load returns the stored transcript
	Load() (string, error)
}

// FileTranscriptStore keeps the transcript in a single plain text file which is overwritten on every save, so that
// the file can be tailed or handed to other tools while a conversation is in progress
type FileTranscriptStore struct {
	path string
}

func NewFileTranscriptStore(path string) *FileTranscriptStore {
	return &FileTranscriptStore{path: path}
}

// Path returns the file the transcript is written to
func (s *FileTranscriptStore) Path() string {
	return s.path
}

func (s *FileTranscriptStore) Save(text string) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return &IOError{Path: s.path, Err: err}
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return &IOError{Path: s.path, Err: fmt.Errorf("failed to write transcript: %w", err)}
	}
	// Flush before returning so a crash loses at most the in-flight call
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &IOError{Path: s.path, Err: fmt.Errorf("failed to sync transcript: %w", err)}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: s.path, Err: err}
	}
	return nil
}

func (s *FileTranscriptStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", &IOError{Path: s.path, Err: err}
	}
	return string(b), nil
}
