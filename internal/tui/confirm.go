package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type confirmModel struct {
	question string
	value    bool

	done      bool
	cancelled bool
}

func newConfirmModel(question string, def bool) confirmModel {
	return confirmModel{question: question, value: def}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Cancel):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(km, keys.Yes):
		m.value = true
		m.done = true
		return m, tea.Quit
	case key.Matches(km, keys.No):
		m.value = false
		m.done = true
		return m, tea.Quit
	case key.Matches(km, keys.Submit):
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.cancelled {
		return ""
	}
	hint := "(y/N)"
	if m.value {
		hint = "(Y/n)"
	}
	if m.done {
		answer := "no"
		if m.value {
			answer = "yes"
		}
		return titleStyle.Render(m.question) + " " + answer + "\n"
	}
	return titleStyle.Render(m.question) + " " + dimStyle.Render(hint) + "\n"
}
