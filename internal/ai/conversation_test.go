package ai

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSession(t *testing.T, completer Completer, store TranscriptStore) *Session {
	t.Helper()
	s, err := Start("initial context", SessionOptions{Completer: completer, Store: store})
	require.NoError(t, err)
	return s
}

func TestStart_SingleSystemContextTurn(t *testing.T) {
	store := &memoryStore{}
	s := startSession(t, newFakeCompleter("ok"), store)

	turns := s.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, TurnSystemContext, turns[0].Kind)
	assert.Equal(t, "initial context", turns[0].Text)
	assert.Equal(t, StateAwaitingSend, s.State())
	assert.NotEmpty(t, s.ID())
	// The initial context is persisted before anything is sent
	require.Equal(t, []string{"initial context"}, store.saves)
}

func TestStart_MissingCredential(t *testing.T) {
	completer := newFakeCompleter("ok")
	completer.apiKey = ""

	_, err := Start("initial context", SessionOptions{Completer: completer, Store: &memoryStore{}})

	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "GROQ_API_KEY", configErr.Key)
	assert.Empty(t, completer.requests)
}

func TestSend_AppendsReplyAndPersists(t *testing.T) {
	store := &memoryStore{}
	completer := newFakeCompleter("Done.")
	s := startSession(t, completer, store)

	reply, err := s.Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Done.", reply.Text)
	assert.Equal(t, []string{"initial context"}, completer.requests)
	require.Len(t, s.Turns(), 2)
	assert.Equal(t, TurnAssistantReply, s.Turns()[1].Kind)
	assert.Equal(t, "initial context\nAssistant: Done.", store.saves[len(store.saves)-1])
	assert.Equal(t, StateAwaitingContinuationDecision, s.State())
}

func TestSend_EndpointErrorLeavesTranscriptUnchanged(t *testing.T) {
	store := &memoryStore{}
	completer := newFakeCompleter("unused")
	completer.errs = []error{&EndpointError{Status: http.StatusInternalServerError, Body: "boom"}}
	s := startSession(t, completer, store)

	_, err := s.Send(context.Background())

	var endpointErr *EndpointError
	require.ErrorAs(t, err, &endpointErr)
	assert.Equal(t, http.StatusInternalServerError, endpointErr.Status)
	assert.Equal(t, "boom", endpointErr.Body)
	require.Len(t, s.Turns(), 1)
	assert.Equal(t, TurnSystemContext, s.Turns()[0].Kind)
	assert.Len(t, store.saves, 1)
	assert.Equal(t, StateAwaitingSend, s.State())
}

func TestSend_PersistFailureRollsBack(t *testing.T) {
	store := &memoryStore{}
	s := startSession(t, newFakeCompleter("Done."), store)
	store.err = errors.New("disk full")

	_, err := s.Send(context.Background())

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Len(t, s.Turns(), 1)
	assert.Equal(t, StateAwaitingSend, s.State())
}

func TestSend_WrongState(t *testing.T) {
	s := startSession(t, newFakeCompleter("Done."), &memoryStore{})
	_, err := s.Send(context.Background())
	require.NoError(t, err)

	_, err = s.Send(context.Background())
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestEndsWithQuestion(t *testing.T) {
	tests := map[string]bool{
		"Which provider?":      true,
		"Which provider?  \n":  true,
		"  ?  ":                true,
		"Done.":                false,
		"What? No.":            false,
		"":                     false,
		"   \n\t ":             false,
		"Is it ready?\n\nYes.": false,
	}
	for text, expected := range tests {
		assert.Equal(t, expected, EndsWithQuestion(text), "text %q", text)
	}
}

func TestContinueNeeded_Transitions(t *testing.T) {
	s := startSession(t, newFakeCompleter("Which one?"), &memoryStore{})
	reply, err := s.Send(context.Background())
	require.NoError(t, err)

	require.True(t, s.ContinueNeeded(reply))
	assert.Equal(t, StateAwaitingUserInput, s.State())

	s2 := startSession(t, newFakeCompleter("   "), &memoryStore{})
	reply, err = s2.Send(context.Background())
	require.NoError(t, err)

	require.False(t, s2.ContinueNeeded(reply))
	assert.Equal(t, StateTerminated, s2.State())
}

func TestSupplyUserReply_AddsExactlyOneTurn(t *testing.T) {
	store := &memoryStore{}
	s := startSession(t, newFakeCompleter("Which one?"), store)

	for _, text := range []string{"first", "second", "exit please"} {
		reply, err := s.Send(context.Background())
		require.NoError(t, err)
		require.True(t, s.ContinueNeeded(reply))

		before := len(s.Turns())
		require.NoError(t, s.SupplyUserReply(text))
		assert.Equal(t, before+1, len(s.Turns()))
		assert.Equal(t, StateAwaitingSend, s.State())
		assert.Equal(t, s.Text(), store.saves[len(store.saves)-1])
	}
}

func TestSupplyUserReply_RejectsExit(t *testing.T) {
	s := startSession(t, newFakeCompleter("Which one?"), &memoryStore{})
	reply, err := s.Send(context.Background())
	require.NoError(t, err)
	require.True(t, s.ContinueNeeded(reply))

	for _, text := range []string{"exit", "EXIT", " Exit "} {
		err := s.SupplyUserReply(text)
		require.ErrorIs(t, err, ErrExitRequested)
	}
	assert.Len(t, s.Turns(), 2)
}

func TestSupplyUserReply_WrongState(t *testing.T) {
	s := startSession(t, newFakeCompleter("Which one?"), &memoryStore{})

	err := s.SupplyUserReply("too early")
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, s.Turns(), 1)
}

func TestSupplyUserReply_Sanitized(t *testing.T) {
	completer := newFakeCompleter("Which one?")
	s, err := Start("ctx", SessionOptions{Completer: completer, Store: &memoryStore{}, Filter: redactingFilter{}})
	require.NoError(t, err)

	reply, err := s.Send(context.Background())
	require.NoError(t, err)
	require.True(t, s.ContinueNeeded(reply))
	require.NoError(t, s.SupplyUserReply("my password is hunter2"))

	assert.Equal(t, "ctx\nAssistant: Which one?\nUser: [redacted]", s.Text())
}

func TestRequestInput(t *testing.T) {
	s := startSession(t, newFakeCompleter("Done."), &memoryStore{})
	require.ErrorIs(t, s.RequestInput(), ErrInvalidState)

	_, err := s.Send(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.RequestInput())
	require.NoError(t, s.SupplyUserReply("Round 2"))
	assert.Equal(t, StateAwaitingSend, s.State())
}

func TestSession_WritesHistory(t *testing.T) {
	history := NewFileSystemConversationHistoryStore(t.TempDir())
	s, err := Start("ctx", SessionOptions{Completer: newFakeCompleter("Done."), Store: &memoryStore{}, History: history})
	require.NoError(t, err)
	_, err = s.Send(context.Background())
	require.NoError(t, err)

	stored, err := history.Get(s.ID() + ".json")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, s.ID(), stored.SessionID)
	require.Len(t, stored.Turns, 2)
	assert.Equal(t, "Done.", stored.Turns[1].Text)
}

func TestSend_HistoryFailureLeavesTranscriptUnchanged(t *testing.T) {
	historyDir := filepath.Join(t.TempDir(), "history")
	store := &memoryStore{}
	s, err := Start("ctx", SessionOptions{
		Completer: newFakeCompleter("Done."),
		Store:     store,
		History:   NewFileSystemConversationHistoryStore(historyDir),
	})
	require.NoError(t, err)

	// A regular file where the history directory should be makes every history write fail
	require.NoError(t, os.RemoveAll(historyDir))
	require.NoError(t, os.WriteFile(historyDir, []byte("not a directory"), 0644))

	_, err = s.Send(context.Background())
	require.Error(t, err)

	onDisk, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ctx", s.Text())
	assert.Equal(t, s.Text(), onDisk)
	assert.Equal(t, StateAwaitingSend, s.State())
}

func TestSend_TranscriptFailureRestoresHistory(t *testing.T) {
	history := NewFileSystemConversationHistoryStore(t.TempDir())
	store := &memoryStore{}
	s, err := Start("ctx", SessionOptions{Completer: newFakeCompleter("Done."), Store: store, History: history})
	require.NoError(t, err)
	store.err = errors.New("disk full")

	_, err = s.Send(context.Background())
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)

	stored, err := history.Get(s.ID() + ".json")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Turns, 1)
	assert.Equal(t, s.Turns()[0].ID, stored.Turns[0].ID)
	assert.Equal(t, "ctx", stored.Turns[0].Text)
}

type redactingFilter struct{}

func (redactingFilter) Sensitive(string) bool { return true }

func (redactingFilter) Sanitize(string) string { return "[redacted]" }
