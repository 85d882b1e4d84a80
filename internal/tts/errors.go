package tts

import "errors"

var (
	// ErrNotInitialized is returned when Synthesize is called before Initialize
	ErrNotInitialized = errors.New("tts: engine not initialized")

	// ErrBinaryNotFound is returned when no synthesizer executable is on PATH
	ErrBinaryNotFound = errors.New("tts: synthesizer binary not found")

	// ErrInvalidWAV is returned for malformed WAV streams
	ErrInvalidWAV = errors.New("tts: invalid wav stream")
)
