package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// inputModel reads one line of free text
type inputModel struct {
	input textinput.Model

	done      bool
	eof       bool
	cancelled bool
}

func newInputModel(prompt string) inputModel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.CharLimit = 0
	ti.Focus()
	return inputModel{input: ti}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(km, keys.EOF) && m.input.Value() == "":
			m.eof = true
			return m, tea.Quit
		case key.Matches(km, keys.Submit):
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) value() string {
	return m.input.Value()
}

func (m inputModel) View() string {
	if m.done {
		return m.input.Prompt + m.input.Value() + "\n"
	}
	if m.cancelled || m.eof {
		return ""
	}
	return m.input.View() + "\n"
}
