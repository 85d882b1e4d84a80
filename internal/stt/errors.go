package stt

import "errors"

var (
	// ErrNotInitialized is returned when the engine is used before Initialize
	ErrNotInitialized = errors.New("stt: engine not initialized")

	// ErrNoSpeech means a listen finished without recognizable words.
	// Callers are expected to simply listen again.
	ErrNoSpeech = errors.New("stt: no speech recognized")

	// ErrCapture wraps failures to open or run the microphone
	ErrCapture = errors.New("stt: audio capture failed")
)
