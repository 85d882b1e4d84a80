package speech

import (
	"context"
	"sync"
)

// MockVocalizer records what it was asked to say
type MockVocalizer struct {
	// SpeakFunc runs for each utterance; nil succeeds immediately
	SpeakFunc func(ctx context.Context, text string) error

	mu     sync.Mutex
	spoken []string
	resets int
}

// Speak records text and calls SpeakFunc
func (m *MockVocalizer) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	fn := m.SpeakFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return nil
}

// Reset counts resets
func (m *MockVocalizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

// Spoken returns every utterance passed to Speak, in order
func (m *MockVocalizer) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// Resets returns how many times Reset was called
func (m *MockVocalizer) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}
