package ai

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
)

// LineReader obtains one line of operator input
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

const replyPrompt = "Your response (or type 'exit' to end): "

// Converse drives the session until the assistant stops asking questions or the operator exits. onReply, if not nil,
// is called with every reply. It returns the number of requests sent.
func Converse(ctx context.Context, s *Session, in LineReader, onReply func(AssistantReply)) (int, error) {
	sends := 0
	for {
		reply, err := s.Send(ctx)
		if err != nil {
			return sends, err
		}
		sends++

		if onReply != nil {
			onReply(reply)
		}

		if !s.ContinueNeeded(reply) {
			zap.S().Info("No further questions from the assistant. Exiting chat.")
			return sends, nil
		}

		line, err := in.ReadLine(replyPrompt)
		if errors.Is(err, io.EOF) {
			s.Terminate()
			return sends, nil
		} else if err != nil {
			return sends, err
		}

		if IsExit(line) {
			zap.S().Info("Exiting chat.")
			s.Terminate()
			return sends, nil
		}

		if err := s.SupplyUserReply(line); err != nil {
			return sends, err
		}
	}
}
