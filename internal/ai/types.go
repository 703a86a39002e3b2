// Package ai provides the conversation session that drives a chat-completion endpoint, along with the clients that
// reach those endpoints and the persistence of the transcript they operate on.
package ai

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TurnKind identifies who produced a turn
type TurnKind string

const (
	TurnSystemContext  TurnKind = "system_context"
	TurnAssistantReply TurnKind = "assistant_reply"
	TurnUserReply      TurnKind = "user_reply"
)

// Turn is one unit of conversation
type Turn struct {
	ID        string    `json:"id"`
	Kind      TurnKind  `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func newTurn(kind TurnKind, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// render returns the turn as it appears in the concatenated transcript
func (t Turn) render() string {
	switch t.Kind {
	case TurnAssistantReply:
		return "\nAssistant: " + t.Text
	case TurnUserReply:
		return "\nUser: " + t.Text
	default:
		return t.Text
	}
}

// AssistantReply is the text returned by the chat endpoint for one request
type AssistantReply struct {
	Text string
}

// Transcript is the append-only turn history of a session. The whole transcript is re-sent on every request, so the
// endpoint never needs to remember anything between calls.
type Transcript struct {
	turns []Turn
}

func (t *Transcript) append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// truncate drops every turn at or after index n
func (t *Transcript) truncate(n int) {
	t.turns = t.turns[:n]
}

// Len returns the number of turns
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the turns in order
func (t *Transcript) Turns() []Turn {
	return append([]Turn(nil), t.turns...)
}

// Text returns the concatenation of all turns. This is both the request content and the persisted file contents.
func (t *Transcript) Text() string {
	var sb strings.Builder
	for _, turn := range t.turns {
		sb.WriteString(turn.render())
	}
	return sb.String()
}

// ConversationHistory contains a serializable snapshot of a session's transcript
type ConversationHistory struct {
	SessionID string `json:"sessionId"`
	Turns     []Turn `json:"turns"`
}
