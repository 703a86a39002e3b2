package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed conventions_template.tmpl
var conventionsTemplate string

// Selection is everything the operator chose or supplied for a run
type Selection struct {
	Action         Action
	Focus          string
	Subject        string
	Context        string
	SensitiveFiles []string
}

// Knowledge is a recalled snippet included in the initial prompt
type Knowledge struct {
	Source  string
	Content string
}

// Initial builds the system context that opens a conversation
func Initial(sel Selection, knowledge []Knowledge) (string, error) {
	instructions, err := sel.Action.Instructions()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Action: %s\n", sel.Action)
	fmt.Fprintf(&sb, "Focus: %s\n", sel.Focus)
	fmt.Fprintf(&sb, "Subject: %s\n", sel.Subject)
	fmt.Fprintf(&sb, "Context:\n%s\n", sel.Context)
	fmt.Fprintf(&sb, "Sensitive Files: %s", strings.Join(sel.SensitiveFiles, ", "))
	fmt.Fprintf(&sb, "\nInstructions: %s", instructions)

	if len(knowledge) > 0 {
		sb.WriteString("\nRelevant knowledge:")
		for _, k := range knowledge {
			fmt.Fprintf(&sb, "\n--- %s\n%s", k.Source, strings.TrimSpace(k.Content))
		}
	}

	return sb.String(), nil
}

// TaskDescription summarizes a selection in one line
func TaskDescription(sel Selection) string {
	return fmt.Sprintf("Action: %s, Focus: %s, Subject: %s", sel.Action, sel.Focus, sel.Subject)
}

type conventionsData struct {
	TaskDescription string
	Intent          string
	SensitiveFiles  []string
}

// Conventions builds the request for a CONVENTIONS.md document
func Conventions(taskDescription, intent string, sensitiveFiles []string) (string, error) {
	tmpl, err := template.New("conventions").Funcs(template.FuncMap{"join": strings.Join}).Parse(conventionsTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse conventions template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, conventionsData{
		TaskDescription: taskDescription,
		Intent:          intent,
		SensitiveFiles:  sensitiveFiles,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute conventions template: %w", err)
	}
	return buf.String(), nil
}
