package stt

import "context"

// Result represents a speech recognition result
type Result struct {
	// Text is the recognized text
	Text string

	// Partial indicates if this is a partial result (still processing)
	// or a final result (sentence/phrase complete)
	Partial bool

	// Confidence is the average word confidence (0.0 to 1.0)
	Confidence float64
}

// Config holds configuration for the STT engine
type Config struct {
	// ModelPath is the path to the Vosk model directory
	ModelPath string

	// SampleRate is the audio sample rate in Hz
	SampleRate int

	// MaxAlternatives is the maximum number of alternative results to return
	MaxAlternatives int
}

// Engine is the interface for streaming speech-to-text engines
type Engine interface {
	// Initialize loads the model
	Initialize(config Config) error

	// ProcessAudio feeds 16-bit PCM and returns a partial or final result
	ProcessAudio(ctx context.Context, audioData []byte) (*Result, error)

	// FinalResult flushes the current utterance
	FinalResult() (*Result, error)

	// Reset discards any partially decoded utterance
	Reset() error

	// Close releases resources
	Close() error

	// IsInitialized returns true if the engine is initialized
	IsInitialized() bool
}

// DefaultConfig returns a default STT configuration
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:  modelPath,
		SampleRate: 16000,
	}
}
