package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/cchalm/prompt-pilot/internal/ai"

// State is a position in the session's request/response cycle
type State int

const (
	StateAwaitingSend State = iota
	StateAwaitingContinuationDecision
	StateAwaitingUserInput
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingSend:
		return "AWAITING_SEND"
	case StateAwaitingContinuationDecision:
		return "AWAITING_CONTINUATION_DECISION"
	case StateAwaitingUserInput:
		return "AWAITING_USER_INPUT"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SessionOptions holds the collaborators a session is started with
type SessionOptions struct {
	Completer Completer       // Required
	Store     TranscriptStore // Required

	History ConversationHistoryStore // Optional structured copy of the transcript, keyed by session ID
	Filter  ContentFilter            // Defaults to PassthroughFilter
	Tracer  trace.Tracer             // Defaults to the global tracer provider
}

// Session drives a request/response loop with a single chat completion endpoint. It is not safe for concurrent use;
// at most one request is ever in flight.
type Session struct {
	id string

	completer Completer
	store     TranscriptStore
	history   ConversationHistoryStore
	filter    ContentFilter
	tracer    trace.Tracer

	transcript Transcript
	state      State
}

// Start creates a session whose transcript holds exactly one system context turn, and persists it
func Start(initialContext string, opts SessionOptions) (*Session, error) {
	if opts.Completer == nil {
		return nil, errors.New("no completer configured")
	}
	if opts.Store == nil {
		return nil, errors.New("no transcript store configured")
	}
	if err := opts.Completer.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.NewString(),
		completer: opts.Completer,
		store:     opts.Store,
		history:   opts.History,
		filter:    opts.Filter,
		tracer:    opts.Tracer,
		state:     StateAwaitingSend,
	}
	if s.filter == nil {
		s.filter = PassthroughFilter{}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}

	s.transcript.append(newTurn(TurnSystemContext, initialContext))
	if err := s.persist(); err != nil {
		return nil, err
	}

	zap.S().Debugf("Started session %s with model %s", s.id, s.completer.Model())
	return s, nil
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current state
func (s *Session) State() State {
	return s.state
}

// Turns returns a copy of the session's turns
func (s *Session) Turns() []Turn {
	return s.transcript.Turns()
}

// Text returns the concatenated transcript
func (s *Session) Text() string {
	return s.transcript.Text()
}

// Send serializes the transcript, sends it, and records the reply. On failure the transcript is left untouched.
func (s *Session) Send(ctx context.Context) (AssistantReply, error) {
	if s.state != StateAwaitingSend {
		return AssistantReply{}, fmt.Errorf("cannot send in state %s: %w", s.state, ErrInvalidState)
	}

	content := s.transcript.Text()
	ctx, span := s.tracer.Start(ctx, "chat.completion", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.Int("session.turn_index", s.transcript.Len()),
		attribute.String("llm.model", s.completer.Model()),
		attribute.Int("llm.request_bytes", len(content)),
	))
	defer span.End()

	text, err := s.completer.Complete(ctx, content)
	if err != nil {
		var endpointErr *EndpointError
		if errors.As(err, &endpointErr) {
			span.SetAttributes(attribute.Int("http.status_code", endpointErr.Status))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return AssistantReply{}, fmt.Errorf("failed to send transcript: %w", err)
	}
	span.SetAttributes(attribute.Int("llm.response_bytes", len(text)))

	if err := s.appendAndPersist(newTurn(TurnAssistantReply, text)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist transcript")
		return AssistantReply{}, err
	}

	s.state = StateAwaitingContinuationDecision
	return AssistantReply{Text: text}, nil
}

// ContinueNeeded reports whether the reply asks the operator something. When the session is waiting for that
// decision, it also moves to AWAITING_USER_INPUT or TERMINATED accordingly.
func (s *Session) ContinueNeeded(reply AssistantReply) bool {
	needed := EndsWithQuestion(reply.Text)
	if s.state == StateAwaitingContinuationDecision {
		if needed {
			s.state = StateAwaitingUserInput
		} else {
			s.state = StateTerminated
		}
	}
	return needed
}

// RequestInput overrides the continuation heuristic and waits for another user turn, for callers that script their
// own follow-up prompts
func (s *Session) RequestInput() error {
	if s.state != StateAwaitingContinuationDecision {
		return fmt.Errorf("cannot request input in state %s: %w", s.state, ErrInvalidState)
	}
	s.state = StateAwaitingUserInput
	return nil
}

// SupplyUserReply appends the operator's reply and readies the session for another Send. "exit" is rejected with
// ErrExitRequested; callers should terminate instead.
func (s *Session) SupplyUserReply(text string) error {
	if IsExit(text) {
		return ErrExitRequested
	}
	if s.state != StateAwaitingUserInput {
		return fmt.Errorf("cannot accept a reply in state %s: %w", s.state, ErrInvalidState)
	}

	if err := s.appendAndPersist(newTurn(TurnUserReply, s.filter.Sanitize(text))); err != nil {
		return err
	}
	s.state = StateAwaitingSend
	return nil
}

// Terminate ends the session. The persisted transcript is left in place.
func (s *Session) Terminate() {
	s.state = StateTerminated
}

func (s *Session) appendAndPersist(turn Turn) error {
	n := s.transcript.Len()
	s.transcript.append(turn)
	if err := s.persist(); err != nil {
		s.transcript.truncate(n)
		// The history may already hold the dropped turn
		if restoreErr := s.persistHistory(); restoreErr != nil {
			zap.S().Warnf("Failed to restore conversation history for session %s: %v", s.id, restoreErr)
		}
		return err
	}
	return nil
}

// persist writes the history first, so a failed history write leaves the transcript file untouched
func (s *Session) persist() error {
	if err := s.persistHistory(); err != nil {
		return err
	}
	if err := s.store.Save(s.transcript.Text()); err != nil {
		return fmt.Errorf("failed to persist transcript: %w", err)
	}
	return nil
}

func (s *Session) persistHistory() error {
	if s.history == nil {
		return nil
	}
	err := s.history.Set(s.id+".json", ConversationHistory{SessionID: s.id, Turns: s.transcript.Turns()})
	if err != nil {
		return fmt.Errorf("failed to persist conversation history: %w", err)
	}
	return nil
}

// EndsWithQuestion reports whether text, ignoring surrounding whitespace, ends with a question mark. This is the only
// signal used to decide whether a conversation continues.
func EndsWithQuestion(text string) bool {
	return strings.HasSuffix(strings.TrimSpace(text), "?")
}

// IsExit reports whether text is the operator's request to end the conversation
func IsExit(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "exit")
}
