package persona

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

// ResolvedMarker is the word the model is told to emit once every persona agrees
const ResolvedMarker = "RESOLVED"

const (
	DefaultMaxRounds            = 10
	DefaultMaxQuestionsPerRound = 3
)

var resolvedPattern = regexp.MustCompile(`(?m)^\s*` + ResolvedMarker + `\b`)

const questionPrompt = "The personas have a question (or type 'exit' to stop): "

// Resolver runs a conflict resolution exchange between personas, bounded by a number of rounds
type Resolver struct {
	Personas []Persona

	// MaxRounds bounds the outer rounds. Zero means DefaultMaxRounds.
	MaxRounds int
	// MaxQuestionsPerRound bounds the question and answer exchanges within one round. Zero means
	// DefaultMaxQuestionsPerRound; negative disables questions.
	MaxQuestionsPerRound int

	// Input answers the personas' questions. When nil, questions go unanswered and the next round starts.
	Input ai.LineReader
	// OnReply, if not nil, is called with every reply and the round it belongs to
	OnReply func(round int, reply ai.AssistantReply)
}

// Result summarizes a finished exchange
type Result struct {
	SessionID  string
	Rounds     int
	Resolved   bool
	FinalReply string
}

// Run starts a session for the task and drives it until the personas report a resolution, the operator exits, or the
// round limit is reached. It always terminates once the round limit is reached, whatever the last reply says.
func (r *Resolver) Run(ctx context.Context, task string, opts ai.SessionOptions) (Result, error) {
	maxRounds := r.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	maxQuestions := r.MaxQuestionsPerRound
	if maxQuestions == 0 {
		maxQuestions = DefaultMaxQuestionsPerRound
	}

	personas := r.Personas
	if len(personas) == 0 {
		personas = Seed()
	}

	s, err := ai.Start(SystemContext(task, personas, maxRounds), opts)
	if err != nil {
		return Result{}, err
	}

	result := Result{SessionID: s.ID()}
	input := r.Input
	for round := 1; round <= maxRounds; round++ {
		result.Rounds = round

		reply, err := r.send(ctx, s, round)
		if err != nil {
			return result, err
		}

		for questions := 0; input != nil && questions < maxQuestions; questions++ {
			if IsResolved(reply.Text) || !ai.EndsWithQuestion(reply.Text) {
				break
			}
			if err := s.RequestInput(); err != nil {
				return result, err
			}

			line, err := input.ReadLine(questionPrompt)
			if errors.Is(err, io.EOF) {
				input = nil
				break
			} else if err != nil {
				return result, err
			}
			if ai.IsExit(line) {
				zap.S().Infof("Conflict resolution stopped by operator in round %d", round)
				s.Terminate()
				result.FinalReply = reply.Text
				return result, nil
			}

			if err := s.SupplyUserReply(line); err != nil {
				return result, err
			}
			reply, err = r.send(ctx, s, round)
			if err != nil {
				return result, err
			}
		}
		result.FinalReply = reply.Text

		if IsResolved(reply.Text) {
			zap.S().Infof("Personas reached a resolution in round %d", round)
			result.Resolved = true
			s.Terminate()
			return result, nil
		}
		if round == maxRounds {
			break
		}

		if s.State() == ai.StateAwaitingContinuationDecision {
			if err := s.RequestInput(); err != nil {
				return result, err
			}
		}
		if err := s.SupplyUserReply(RoundDirective(round+1, maxRounds)); err != nil {
			return result, err
		}
	}

	zap.S().Infof("Round limit of %d reached without a resolution", maxRounds)
	s.Terminate()
	return result, nil
}

func (r *Resolver) send(ctx context.Context, s *ai.Session, round int) (ai.AssistantReply, error) {
	reply, err := s.Send(ctx)
	if err != nil {
		return ai.AssistantReply{}, fmt.Errorf("round %d: %w", round, err)
	}
	if r.OnReply != nil {
		r.OnReply(round, reply)
	}
	return reply, nil
}

// IsResolved reports whether a line of the reply opens with the resolution marker. Mentions elsewhere, such as
// "UNRESOLVED" or "not yet RESOLVED", do not count.
func IsResolved(text string) bool {
	return resolvedPattern.MatchString(text)
}

// SystemContext composes the opening prompt of a conflict resolution exchange
func SystemContext(task string, personas []Persona, maxRounds int) string {
	var sb strings.Builder
	sb.WriteString("Persona conflict resolution.\n")
	fmt.Fprintf(&sb, "Task:\n%s\n", strings.TrimSpace(task))
	sb.WriteString("Personas:\n")
	for _, p := range personas {
		fmt.Fprintf(&sb, "- %s (%s): %s", p.Name, p.Role, p.Stance)
		if len(p.Priorities) > 0 {
			fmt.Fprintf(&sb, " Priorities: %s.", strings.Join(p.Priorities, ", "))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Rules: Speak as each persona in turn, labelled by name. Surface where they disagree about the task "+
		"and work toward a plan all of them accept. You have at most %d rounds. Ask the operator a question only when "+
		"the personas cannot proceed without an answer, and end the reply with it. When every persona agrees, start a line "+
		"with %s followed by the agreed plan.", maxRounds, ResolvedMarker)
	return sb.String()
}

// RoundDirective is the prompt that opens each round after the first
func RoundDirective(round, maxRounds int) string {
	directive := fmt.Sprintf("Round %d of %d: each persona responds to the others' latest positions and concedes where "+
		"persuaded. Narrow the remaining disagreements.", round, maxRounds)
	if round == maxRounds {
		directive += " This is the final round: settle on a plan, and start a line with " + ResolvedMarker + " if every persona accepts it."
	}
	return directive
}
