package tts

import (
	"context"
	"fmt"
)

// Engine defines the interface for text-to-speech engines
type Engine interface {
	// Initialize sets up the TTS engine with the given config
	Initialize(config Config) error

	// Synthesize converts text to audio, streaming chunks via callback
	Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error

	// ListVoices returns available voices
	ListVoices() []Voice

	// Close releases resources
	Close() error

	// IsInitialized returns true if engine is ready
	IsInitialized() bool
}

// Config holds TTS engine configuration
type Config struct {
	// Binary overrides the synthesizer executable looked up on PATH
	Binary string

	// ModelPath is the voice model, required by piper
	ModelPath string

	DefaultVoice string

	// Rate in words per minute, used by espeak
	Rate int

	// SampleRate of raw engine output, used by piper
	SampleRate int
}

// SynthesizeRequest contains text-to-speech parameters
type SynthesizeRequest struct {
	Text  string
	Voice string
	Speed float32 // 1.0 = normal, 0.5 = half speed, 2.0 = double
}

// AudioChunk is a piece of 16-bit little-endian PCM
type AudioChunk struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// AudioCallback is called for each audio chunk during synthesis
type AudioCallback func(chunk AudioChunk) error

// Voice represents an available TTS voice
type Voice struct {
	ID       string
	Name     string
	Language string
	Gender   string
}

// DefaultRate is the speaking rate in words per minute
const DefaultRate = 150

// DefaultConfig returns default TTS configuration
func DefaultConfig() Config {
	return Config{
		DefaultVoice: "default",
		Rate:         DefaultRate,
		SampleRate:   22050,
	}
}

// New creates an engine by name: "espeak" or "piper"
func New(name string) (Engine, error) {
	switch name {
	case "", "espeak", "espeak-ng":
		return NewEspeakEngine(), nil
	case "piper":
		return NewPiperEngine(), nil
	default:
		return nil, fmt.Errorf("unknown tts engine: %s", name)
	}
}
