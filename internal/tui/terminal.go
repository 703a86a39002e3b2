package tui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the operator abandons a prompt
var ErrCancelled = errors.New("prompt cancelled")

// Terminal runs interactive prompts against an input and an output stream
type Terminal struct {
	in  io.Reader
	out io.Writer
}

// NewTerminal creates a Terminal reading keys from in and drawing to out
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

func (t *Terminal) run(m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m, tea.WithInput(t.in), tea.WithOutput(t.out))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run prompt: %w", err)
	}
	return final, nil
}

// SelectOne asks the operator to pick one of options
func (t *Terminal) SelectOne(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("nothing to select for '%s'", title)
	}
	final, err := t.run(newSelectModel(title, options, false))
	if err != nil {
		return "", err
	}
	m := final.(selectModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.selected()[0], nil
}

// SelectMany asks the operator to pick any number of options
func (t *Terminal) SelectMany(title string, options []string) ([]string, error) {
	if len(options) == 0 {
		return nil, nil
	}
	final, err := t.run(newSelectModel(title, options, true))
	if err != nil {
		return nil, err
	}
	m := final.(selectModel)
	if m.cancelled {
		return nil, ErrCancelled
	}
	return m.selected(), nil
}

// Confirm asks a yes/no question. Enter accepts def.
func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	final, err := t.run(newConfirmModel(question, def))
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.cancelled {
		return false, ErrCancelled
	}
	return m.value, nil
}

// ReadLine reads one line of free text. Ctrl+D on an empty line yields io.EOF.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	final, err := t.run(newInputModel(prompt))
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	switch {
	case m.cancelled:
		return "", ErrCancelled
	case m.eof:
		return "", io.EOF
	}
	return m.value(), nil
}
