package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToMarkdown(t *testing.T) {
	history := ConversationHistory{
		SessionID: "session-1",
		Turns: []Turn{
			newTurn(TurnSystemContext, "Action: Implement"),
			newTurn(TurnAssistantReply, "Which provider should I target?"),
			newTurn(TurnUserReply, "Google OAuth\nwith PKCE"),
			newTurn(TurnAssistantReply, "Done."),
		},
	}

	md, err := ToMarkdown(history)
	require.NoError(t, err)

	require.Contains(t, md, "# Conversation session-1")
	require.Contains(t, md, "asked 1 question(s)")
	require.Contains(t, md, "Action: Implement")
	require.Contains(t, md, "### 🤖 Assistant (question)")
	require.Contains(t, md, "Which provider should I target?")
	require.Contains(t, md, "> Google OAuth\n> with PKCE")
	require.Contains(t, md, "Done.")
}

func TestToMarkdown_TruncatesLongContent(t *testing.T) {
	long := make([]byte, 6000)
	for i := range long {
		long[i] = 'a'
	}
	history := ConversationHistory{Turns: []Turn{newTurn(TurnSystemContext, string(long))}}

	md, err := ToMarkdown(history)
	require.NoError(t, err)
	require.Contains(t, md, "(content truncated)")
}
