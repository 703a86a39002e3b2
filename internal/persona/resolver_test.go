package persona

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

type fakeCompleter struct {
	replies  []string
	requests []string
	err      error
}

func (fc *fakeCompleter) Complete(_ context.Context, content string) (string, error) {
	fc.requests = append(fc.requests, content)
	if fc.err != nil {
		return "", fc.err
	}
	i := len(fc.requests) - 1
	if i >= len(fc.replies) {
		return fc.replies[len(fc.replies)-1], nil
	}
	return fc.replies[i], nil
}

func (fc *fakeCompleter) Validate() error { return nil }
func (fc *fakeCompleter) Model() string   { return "fake-model" }

type memoryStore struct {
	last string
}

func (ms *memoryStore) Save(text string) error {
	ms.last = text
	return nil
}

func (ms *memoryStore) Load() (string, error) {
	return ms.last, nil
}

type scriptedInput struct {
	lines []string
	reads int
}

func (si *scriptedInput) ReadLine(string) (string, error) {
	si.reads++
	if len(si.lines) == 0 {
		return "", io.EOF
	}
	line := si.lines[0]
	si.lines = si.lines[1:]
	return line, nil
}

func TestRun_OneRoundAlwaysAskingTerminates(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Which database do you use?"}}
	resolver := &Resolver{MaxRounds: 1}

	result, err := resolver.Run(context.Background(), "Add login", ai.SessionOptions{Completer: completer, Store: &memoryStore{}})
	require.NoError(t, err)

	require.Equal(t, 1, result.Rounds)
	require.False(t, result.Resolved)
	require.Len(t, completer.requests, 1)
	require.Equal(t, "Which database do you use?", result.FinalReply)
}

func TestRun_QuestionsBoundedPerRound(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Why?"}}
	input := &scriptedInput{lines: []string{"because", "because", "because", "because", "because"}}
	resolver := &Resolver{MaxRounds: 1, MaxQuestionsPerRound: 2, Input: input}

	result, err := resolver.Run(context.Background(), "Add login", ai.SessionOptions{Completer: completer, Store: &memoryStore{}})
	require.NoError(t, err)

	require.Equal(t, 1, result.Rounds)
	require.Equal(t, 2, input.reads)
	require.Len(t, completer.requests, 3)
}

func TestRun_StopsWhenResolved(t *testing.T) {
	completer := &fakeCompleter{replies: []string{
		"Avery: split the module. Sam: not without a threat model.",
		"RESOLVED: split the module after a threat model review.",
	}}
	var rounds []int
	resolver := &Resolver{OnReply: func(round int, _ ai.AssistantReply) { rounds = append(rounds, round) }}
	store := &memoryStore{}

	result, err := resolver.Run(context.Background(), "Refactor auth", ai.SessionOptions{Completer: completer, Store: store})
	require.NoError(t, err)

	require.True(t, result.Resolved)
	require.Equal(t, 2, result.Rounds)
	require.Equal(t, []int{1, 2}, rounds)
	require.True(t, strings.HasPrefix(result.FinalReply, ResolvedMarker))

	// The second request carries the first reply and the round directive
	require.Contains(t, completer.requests[1], "\nAssistant: Avery: split the module.")
	require.Contains(t, completer.requests[1], "\nUser: Round 2 of 10")
	require.Equal(t, store.last, completer.requests[1]+"\nAssistant: "+result.FinalReply)
}

func TestRun_RoundLimitWithoutResolution(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Still arguing."}}
	resolver := &Resolver{MaxRounds: 3}

	result, err := resolver.Run(context.Background(), "Pick a framework", ai.SessionOptions{Completer: completer, Store: &memoryStore{}})
	require.NoError(t, err)

	require.False(t, result.Resolved)
	require.Equal(t, 3, result.Rounds)
	require.Len(t, completer.requests, 3)
	require.Contains(t, completer.requests[2], "This is the final round")
}

func TestRun_MarkerMentionDoesNotResolve(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"The personas remain UNRESOLVED on the database choice."}}
	resolver := &Resolver{MaxRounds: 3}

	result, err := resolver.Run(context.Background(), "Pick a database", ai.SessionOptions{Completer: completer, Store: &memoryStore{}})
	require.NoError(t, err)

	require.False(t, result.Resolved)
	require.Equal(t, 3, result.Rounds)
	require.Len(t, completer.requests, 3)
}

func TestIsResolved(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "marker opens reply", text: "RESOLVED: use Postgres.", want: true},
		{name: "marker opens later line", text: "Avery: agreed.\n  RESOLVED\nPlan: use Postgres.", want: true},
		{name: "unresolved", text: "The personas remain UNRESOLVED on the database choice.", want: false},
		{name: "not yet resolved", text: "Avery and Sam are not yet RESOLVED.", want: false},
		{name: "marker as prefix of word", text: "RESOLVEDNESS is low.", want: false},
		{name: "lowercase", text: "resolved: use Postgres.", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsResolved(tt.text))
		})
	}
}

func TestRun_InputExhaustedContinuesRounds(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Which cloud?", "Which region?", "RESOLVED"}}
	input := &scriptedInput{}
	resolver := &Resolver{MaxRounds: 5, Input: input}

	result, err := resolver.Run(context.Background(), "Deploy", ai.SessionOptions{Completer: completer, Store: &memoryStore{}})
	require.NoError(t, err)

	require.True(t, result.Resolved)
	require.Equal(t, 3, result.Rounds)
	require.Equal(t, 1, input.reads)
}

func TestRun_OperatorExit(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Which cloud?"}}
	input := &scriptedInput{lines: []string{" EXIT "}}
	resolver := &Resolver{Input: input}

	result, err := resolver.Run(context.Background(), "Deploy", ai.SessionOptions{Completer: completer, Store: &memoryStore{}})
	require.NoError(t, err)

	require.False(t, result.Resolved)
	require.Equal(t, 1, result.Rounds)
	require.Len(t, completer.requests, 1)
}

func TestRun_EndpointErrorNamesRound(t *testing.T) {
	completer := &fakeCompleter{err: &ai.EndpointError{Status: 500, Body: "boom"}}
	resolver := &Resolver{}

	_, err := resolver.Run(context.Background(), "Deploy", ai.SessionOptions{Completer: completer, Store: &memoryStore{}})

	var endpointErr *ai.EndpointError
	require.True(t, errors.As(err, &endpointErr))
	require.Equal(t, 500, endpointErr.Status)
	require.ErrorContains(t, err, "round 1")
}

func TestSystemContext(t *testing.T) {
	text := SystemContext("Add login", Seed()[:1], 4)
	require.Contains(t, text, "Task:\nAdd login\n")
	require.Contains(t, text, "- Avery (Software Architect): Favors designs")
	require.Contains(t, text, "Priorities: maintainability, clear module boundaries.")
	require.Contains(t, text, "at most 4 rounds")
	require.Contains(t, text, ResolvedMarker)
}
