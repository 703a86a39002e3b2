package tui

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m tea.Model, msgs ...tea.KeyMsg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyCtrlD = tea.KeyMsg{Type: tea.KeyCtrlD}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectModel_SingleChoice(t *testing.T) {
	m := press(t, newSelectModel("Select an action", []string{"Implement", "Debug", "Optimize"}, false),
		keyDown, keyDown, keyDown, keyUp, keyEnter).(selectModel)

	require.True(t, m.done)
	require.Equal(t, []string{"Debug"}, m.selected())
	require.Contains(t, m.View(), "Debug")
}

func TestSelectModel_SubmitReturnsQuit(t *testing.T) {
	_, cmd := newSelectModel("Select", []string{"a"}, false).Update(keyEnter)
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestSelectModel_MultiChoice(t *testing.T) {
	m := press(t, newSelectModel("Select files", []string{"./a.go", "./b.go", "./c.go"}, true),
		keySpace, keyDown, keyDown, runes("x"), keyUp, keySpace, keySpace, keyEnter).(selectModel)

	require.True(t, m.done)
	require.Equal(t, []string{"./a.go", "./c.go"}, m.selected())
}

func TestSelectModel_MultiChoiceNothingChosen(t *testing.T) {
	m := press(t, newSelectModel("Select files", []string{"./a.go"}, true), keyEnter).(selectModel)
	require.Empty(t, m.selected())
}

func TestSelectModel_Cancel(t *testing.T) {
	m := press(t, newSelectModel("Select", []string{"a", "b"}, false), keyEsc).(selectModel)
	require.True(t, m.cancelled)
	require.False(t, m.done)
}

func TestSelectModel_ScrollsLongLists(t *testing.T) {
	options := make([]string, 40)
	for i := range options {
		options[i] = string(rune('A' + i%26))
	}
	m := newSelectModel("Select", options, false)
	for range 20 {
		m = press(t, m, keyDown).(selectModel)
	}

	require.Equal(t, 20, m.cursor)
	require.Equal(t, 20-visibleOptions+1, m.offset)
	require.Contains(t, m.View(), "↑ more")
	require.Contains(t, m.View(), "↓ more")
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		def  bool
		key  tea.KeyMsg
		want bool
	}{
		{name: "yes", def: false, key: runes("y"), want: true},
		{name: "no", def: true, key: runes("n"), want: false},
		{name: "default true", def: true, key: keyEnter, want: true},
		{name: "default false", def: false, key: keyEnter, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(t, newConfirmModel("Add more files?", tt.def), tt.key).(confirmModel)
			require.True(t, m.done)
			require.Equal(t, tt.want, m.value)
		})
	}

	m := press(t, newConfirmModel("Add more files?", true), keyEsc).(confirmModel)
	require.True(t, m.cancelled)
}

func TestInputModel(t *testing.T) {
	m := press(t, newInputModel("> "), runes("Google"), runes(" OAuth"), keyEnter).(inputModel)
	require.True(t, m.done)
	require.Equal(t, "Google OAuth", m.value())
	require.Equal(t, "> Google OAuth\n", m.View())
}

func TestInputModel_EOFOnlyOnEmptyLine(t *testing.T) {
	m := press(t, newInputModel("> "), keyCtrlD).(inputModel)
	require.True(t, m.eof)

	m = press(t, newInputModel("> "), runes("abc"), keyCtrlD).(inputModel)
	require.False(t, m.eof)
	require.Equal(t, "abc", m.value())
}

func TestRenderer_Plain(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	r, err := NewRenderer(&buf, false, 0)
	require.NoError(t, err)

	require.NoError(t, r.Reply("Assistant", "  Which provider should I target?\n"))
	r.Info("CONVENTIONS.md has been generated.")
	r.Command("Run the following command to start aider:", "aider $(cat files.txt)")

	require.Equal(t, "Assistant: Which provider should I target?\n"+
		"CONVENTIONS.md has been generated.\n"+
		"Run the following command to start aider:\naider $(cat files.txt)\n", buf.String())
}

func TestRenderer_Markdown(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	r, err := NewRenderer(&buf, true, 60)
	require.NoError(t, err)

	require.NoError(t, r.Reply("Assistant", "# Plan\n\n- add the login route"))
	require.Contains(t, buf.String(), "Assistant:")
	require.Contains(t, buf.String(), "Plan")
	require.Contains(t, buf.String(), "add the login route")
}
