package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const visibleOptions = 15

// selectModel is a single- or multi-choice list
type selectModel struct {
	title   string
	options []string
	multi   bool

	cursor int
	offset int
	chosen map[int]bool

	done      bool
	cancelled bool
}

func newSelectModel(title string, options []string, multi bool) selectModel {
	return selectModel{
		title:   title,
		options: options,
		multi:   multi,
		chosen:  map[int]bool{},
	}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Cancel):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case m.multi && key.Matches(km, keys.Toggle):
		m.chosen[m.cursor] = !m.chosen[m.cursor]
	case key.Matches(km, keys.Submit):
		m.done = true
		return m, tea.Quit
	}

	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+visibleOptions {
		m.offset = m.cursor - visibleOptions + 1
	}
	return m, nil
}

// selected returns the chosen options in list order. A single-choice list yields the option under the cursor.
func (m selectModel) selected() []string {
	if !m.multi {
		if len(m.options) == 0 {
			return nil
		}
		return []string{m.options[m.cursor]}
	}

	var out []string
	for i, o := range m.options {
		if m.chosen[i] {
			out = append(out, o)
		}
	}
	return out
}

func (m selectModel) View() string {
	if m.done {
		return fmt.Sprintf("%s %s\n", titleStyle.Render(m.title+":"), strings.Join(m.selected(), ", "))
	}
	if m.cancelled {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n")

	end := min(m.offset+visibleOptions, len(m.options))
	if m.offset > 0 {
		sb.WriteString(dimStyle.Render("  ↑ more"))
		sb.WriteString("\n")
	}
	for i := m.offset; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		label := m.options[i]
		if m.multi {
			box := "[ ] "
			if m.chosen[i] {
				box = "[x] "
				label = selectedStyle.Render(label)
			}
			label = box + label
		}
		sb.WriteString(cursor + label + "\n")
	}
	if end < len(m.options) {
		sb.WriteString(dimStyle.Render("  ↓ more"))
		sb.WriteString("\n")
	}

	if m.multi {
		sb.WriteString(helpLine(keys.Up, keys.Down, keys.Toggle, keys.Submit, keys.Cancel))
	} else {
		sb.WriteString(helpLine(keys.Up, keys.Down, keys.Submit, keys.Cancel))
	}
	sb.WriteString("\n")
	return sb.String()
}
