package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

var (
	speakerColor = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgGreen)
	commandColor = color.New(color.FgYellow, color.Bold)
)

// Renderer prints replies and status lines
type Renderer struct {
	out io.Writer
	md  *glamour.TermRenderer
}

// NewRenderer creates a Renderer. When markdown is set, replies are rendered as markdown wrapped at width.
func NewRenderer(out io.Writer, markdown bool, width int) (*Renderer, error) {
	r := &Renderer{out: out}
	if !markdown {
		return r, nil
	}

	if width <= 0 {
		width = 80
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// Reply prints a reply under a coloured speaker label
func (r *Renderer) Reply(speaker, text string) error {
	if _, err := speakerColor.Fprintf(r.out, "%s:", speaker); err != nil {
		return err
	}

	if r.md != nil {
		rendered, err := r.md.Render(text)
		if err != nil {
			return fmt.Errorf("failed to render reply: %w", err)
		}
		_, err = fmt.Fprint(r.out, "\n"+rendered)
		return err
	}

	_, err := fmt.Fprintf(r.out, " %s\n", strings.TrimSpace(text))
	return err
}

// Info prints a status line
func (r *Renderer) Info(format string, args ...any) {
	infoColor.Fprintf(r.out, format+"\n", args...)
}

// Command prints a shell command for the operator to run
func (r *Renderer) Command(intro, command string) {
	fmt.Fprintln(r.out, intro)
	commandColor.Fprintln(r.out, command)
}
