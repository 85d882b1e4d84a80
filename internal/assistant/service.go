package assistant

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyText is returned for requests without any text
var ErrEmptyText = errors.New("assistant: empty text")

// Enqueuer accepts text for speaking
type Enqueuer interface {
	Enqueue(text string)
}

// Service is the assistant as seen by the remote surfaces. It shares the
// user context and the speech queue with the console loop.
type Service struct {
	assistant *Assistant
	speaker   Enqueuer
}

// NewService creates a service that speaks through speaker
func NewService(a *Assistant, speaker Enqueuer) *Service {
	return &Service{assistant: a, speaker: speaker}
}

// Speak queues text for speaking and returns immediately
func (s *Service) Speak(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	s.speaker.Enqueue(text)
	return nil
}

// Converse runs one turn and queues the reply for speaking
func (s *Service) Converse(ctx context.Context, utterance string) (Reply, error) {
	if strings.TrimSpace(utterance) == "" {
		return Reply{}, ErrEmptyText
	}
	reply := s.assistant.Respond(ctx, utterance)
	s.speaker.Enqueue(reply.Text)
	return reply, nil
}

// WhoAmI returns what the assistant currently calls the user
func (s *Service) WhoAmI() string {
	return s.assistant.User().Name()
}
