package audio

import (
	"context"
	"strings"
	"time"
)

// CaptureConfig holds configuration for microphone capture
type CaptureConfig struct {
	// SampleRate in Hz. Vosk models are trained at 16 kHz.
	SampleRate uint32

	// Channels is the number of audio channels, 1 for recognition
	Channels uint32

	// BitDepth is the number of bits per sample
	BitDepth uint32

	// BufferFrames is the number of frames per device period
	BufferFrames uint32

	// SampleBufferSize is how many periods may queue up while the
	// recognizer is busy before frames are dropped
	SampleBufferSize int

	// DeviceID selects a capture device from ListDevices.
	// Empty string = default device
	DeviceID string
}

// DefaultConfig returns a capture configuration for small recognition models
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:       16000,
		Channels:         1,
		BitDepth:         16,
		BufferFrames:     480, // 30ms at 16kHz
		SampleBufferSize: 50,  // ~1.5 seconds
	}
}

// MediumModelConfig returns a capture configuration with room for slower models
func MediumModelConfig() CaptureConfig {
	cfg := DefaultConfig()
	cfg.SampleBufferSize = 150 // ~4.5 seconds
	return cfg
}

// LargeModelConfig returns a capture configuration for the full-size models
func LargeModelConfig() CaptureConfig {
	cfg := DefaultConfig()
	cfg.SampleBufferSize = 300 // ~9 seconds
	return cfg
}

// ConfigForModel picks a capture preset from the recognizer model name.
// Bigger models decode slower, so they get a deeper sample queue.
func ConfigForModel(modelName string) CaptureConfig {
	name := strings.ToLower(modelName)

	switch {
	case strings.Contains(name, "vosk-model-en-us-0.22") && !strings.Contains(name, "lgraph"):
		return LargeModelConfig()
	case strings.Contains(name, "lgraph"), strings.Contains(name, "medium"):
		return MediumModelConfig()
	default:
		return DefaultConfig()
	}
}

// FrameDuration returns the length of one device period
func (c CaptureConfig) FrameDuration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.BufferFrames) * time.Second / time.Duration(c.SampleRate)
}

// AudioSample is one period of captured PCM
type AudioSample struct {
	Data      []byte
	Timestamp time.Time
	Frames    uint32
}

// Capturer is the interface for audio capture implementations.
// A Capturer is single use: once stopped its channels are closed.
type Capturer interface {
	// Start begins audio capture
	Start(ctx context.Context) error

	// Stop stops audio capture and releases the device
	Stop() error

	// Samples returns a channel that receives audio samples
	Samples() <-chan AudioSample

	// Errors returns a channel that receives capture errors
	Errors() <-chan error

	// IsRunning returns true if capture is currently active
	IsRunning() bool
}

// CapturerFactory builds a fresh Capturer for each listening session
type CapturerFactory func(config CaptureConfig) (Capturer, error)

// NewCapturer creates a new audio capturer with the given configuration
func NewCapturer(config CaptureConfig) (Capturer, error) {
	return NewMalgoCapturer(config)
}
