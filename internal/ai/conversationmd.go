package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed conversation_template.tmpl
var conversationMarkdownTemplate string

// conversationMarkdownData represents the simplified data structure for markdown rendering
type conversationMarkdownData struct {
	SessionID     string
	SystemContext string
	Messages      []conversationMessage
	ExportedAt    string
	QuestionCount int
}

// conversationMessage represents a single sequential exchange in the conversation
type conversationMessage struct {
	Type      string // "user_text" or "assistant_text"
	Text      string
	Timestamp string
	Question  bool
}

// ToMarkdown renders a conversation history as a human-reviewable markdown document
func ToMarkdown(history ConversationHistory) (string, error) {
	return renderConversationMarkdown(buildMarkdownData(history))
}

func buildMarkdownData(history ConversationHistory) *conversationMarkdownData {
	data := &conversationMarkdownData{
		SessionID:  history.SessionID,
		ExportedAt: time.Now().Format("2006-01-02 15:04:05 MST"),
	}

	for _, turn := range history.Turns {
		switch turn.Kind {
		case TurnSystemContext:
			data.SystemContext = turn.Text
		case TurnAssistantReply:
			question := EndsWithQuestion(turn.Text)
			if question {
				data.QuestionCount++
			}
			data.Messages = append(data.Messages, conversationMessage{
				Type:      "assistant_text",
				Text:      turn.Text,
				Timestamp: turn.CreatedAt.Format("15:04:05"),
				Question:  question,
			})
		case TurnUserReply:
			data.Messages = append(data.Messages, conversationMessage{
				Type:      "user_text",
				Text:      turn.Text,
				Timestamp: turn.CreatedAt.Format("15:04:05"),
			})
		}
	}

	return data
}

// renderConversationMarkdown renders the conversation data using the template
func renderConversationMarkdown(data *conversationMarkdownData) (string, error) {
	// Helper functions are purely for data manipulation, not formatting
	funcMap := template.FuncMap{
		"truncateContent": func(content string) string {
			if len(content) > 5000 {
				return content[:5000] + "\n... (content truncated)"
			}
			return content
		},
		"indent": func(prefix string, text string) string {
			prefixed := strings.Builder{}
			for line := range strings.Lines(text) {
				prefixed.WriteString(prefix)
				prefixed.WriteString(line)
			}
			return prefixed.String()
		},
	}

	tmpl, err := template.New("conversation").Funcs(funcMap).Parse(conversationMarkdownTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse conversation template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute conversation template: %w", err)
	}

	return buf.String(), nil
}
