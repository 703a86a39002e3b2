package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
)

// ConversationHistoryStore manages persistent storage of structured conversation histories
type ConversationHistoryStore interface {
	// Get returns the conversation history stored at the given key, or nil if there is nothing stored at that key
	Get(key string) (*ConversationHistory, error)
	// Set stores a conversation history with a key
	Set(key string, value ConversationHistory) error
	// Delete deletes a conversation history with a key
	Delete(key string) error
}

// FileSystemConversationHistoryStore implements ConversationHistoryStore using the OS file system
type FileSystemConversationHistoryStore struct {
	dir string // The directory keys will be relative to
}

func NewFileSystemConversationHistoryStore(dir string) *FileSystemConversationHistoryStore {
	return &FileSystemConversationHistoryStore{dir: dir}
}

func (fschs *FileSystemConversationHistoryStore) Get(key string) (*ConversationHistory, error) {
	p := path.Join(fschs.dir, key)
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		// The file doesn't exist so nothing is stored at this key
		return nil, nil
	} else if err != nil {
		return nil, &IOError{Path: p, Err: err}
	}
	var value ConversationHistory
	err = json.Unmarshal(b, &value)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return &value, nil
}

func (fschs *FileSystemConversationHistoryStore) Set(key string, value ConversationHistory) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := os.MkdirAll(fschs.dir, 0755); err != nil {
		return &IOError{Path: fschs.dir, Err: err}
	}
	p := path.Join(fschs.dir, key)
	err = os.WriteFile(p, b, 0644)
	if err != nil {
		return &IOError{Path: p, Err: err}
	}
	return nil
}

func (fschs *FileSystemConversationHistoryStore) Delete(key string) error {
	p := path.Join(fschs.dir, key)
	err := os.Remove(p)
	if err != nil {
		return &IOError{Path: p, Err: err}
	}
	return nil
}
