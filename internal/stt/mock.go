package stt

import (
	"context"
	"sync"
)

// MockEngine implements Engine for testing.
// ProcessFunc decides the result for each chunk; FinalText is returned by
// FinalResult.
type MockEngine struct {
	ProcessFunc func(data []byte) *Result
	FinalText   string
	ResetErr    error

	mu          sync.Mutex
	processed   int
	resets      int
	initialized bool
}

// Initialize marks the engine ready
func (m *MockEngine) Initialize(Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

// ProcessAudio calls ProcessFunc, defaulting to an empty partial
func (m *MockEngine) ProcessAudio(ctx context.Context, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.processed++
	fn := m.ProcessFunc
	m.mu.Unlock()

	if fn != nil {
		if r := fn(data); r != nil {
			return r, nil
		}
	}
	return &Result{Partial: true}, nil
}

// FinalResult returns FinalText
func (m *MockEngine) FinalResult() (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Result{Text: m.FinalText}, nil
}

// Reset counts resets
func (m *MockEngine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return m.ResetErr
}

// Close is a no-op
func (m *MockEngine) Close() error { return nil }

// IsInitialized reports whether Initialize was called
func (m *MockEngine) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Processed returns how many chunks were fed
func (m *MockEngine) Processed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed
}

// Resets returns how many times Reset was called
func (m *MockEngine) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}
