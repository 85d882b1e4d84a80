package generate

import (
	"context"
	"sync"
)

// Mock implements Generator for testing
type Mock struct {
	// GenerateFunc produces the completion; nil echoes a fixed reply
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// Generate records prompt and calls GenerateFunc
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return SpeakerTag + " Very good, sir.", nil
}

// Prompts returns every prompt received, in order
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
