package ai

import (
	"context"
	"errors"
	"io"
)

// fakeCompleter returns scripted replies in order and records every request
type fakeCompleter struct {
	replies  []string
	errs     []error
	requests []string
	apiKey   string
}

func newFakeCompleter(replies ...string) *fakeCompleter {
	return &fakeCompleter{replies: replies, apiKey: "test-key"}
}

func (fc *fakeCompleter) Complete(_ context.Context, content string) (string, error) {
	i := len(fc.requests)
	fc.requests = append(fc.requests, content)
	if i < len(fc.errs) && fc.errs[i] != nil {
		return "", fc.errs[i]
	}
	if len(fc.replies) == 0 {
		return "", errors.New("no scripted replies")
	}
	if i >= len(fc.replies) {
		return fc.replies[len(fc.replies)-1], nil
	}
	return fc.replies[i], nil
}

func (fc *fakeCompleter) Validate() error {
	if fc.apiKey == "" {
		return &ConfigurationError{Key: "GROQ_API_KEY"}
	}
	return nil
}

func (fc *fakeCompleter) Model() string { return "fake-model" }

// memoryStore records every saved transcript
type memoryStore struct {
	saves []string
	err   error
}

func (ms *memoryStore) Save(text string) error {
	if ms.err != nil {
		return &IOError{Path: "memory", Err: ms.err}
	}
	ms.saves = append(ms.saves, text)
	return nil
}

func (ms *memoryStore) Load() (string, error) {
	if len(ms.saves) == 0 {
		return "", &IOError{Path: "memory", Err: errors.New("nothing saved")}
	}
	return ms.saves[len(ms.saves)-1], nil
}

// scriptedInput returns lines in order, then io.EOF
type scriptedInput struct {
	lines   []string
	prompts []string
}

func (si *scriptedInput) ReadLine(prompt string) (string, error) {
	si.prompts = append(si.prompts, prompt)
	if len(si.lines) == 0 {
		return "", io.EOF
	}
	line := si.lines[0]
	si.lines = si.lines[1:]
	return line, nil
}
