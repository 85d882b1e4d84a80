package tts

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// EspeakEngine implements the Engine interface by running espeak-ng
// (or espeak) with --stdout and decoding the WAV it writes
type EspeakEngine struct {
	config      Config
	binary      string
	mu          sync.Mutex
	initialized bool
}

// NewEspeakEngine creates a new espeak engine
func NewEspeakEngine() *EspeakEngine {
	return &EspeakEngine{}
}

// Initialize locates the espeak binary
func (e *EspeakEngine) Initialize(config Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return fmt.Errorf("engine already initialized")
	}

	bin, err := lookBinary(config.Binary, "espeak-ng", "espeak")
	if err != nil {
		return err
	}

	if config.Rate <= 0 {
		config.Rate = DefaultRate
	}

	e.config = config
	e.binary = bin
	e.initialized = true
	return nil
}

// Synthesize speaks req.Text and streams the PCM to callback
func (e *EspeakEngine) Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	bin := e.binary
	args := e.args(req)
	e.mu.Unlock()

	return runSynthesizer(ctx, bin, args, req.Text, func(r io.Reader) error {
		format, err := ReadWAVHeader(r)
		if err != nil {
			return err
		}
		return streamPCM(r, format.SampleRate, format.Channels, callback)
	})
}

func (e *EspeakEngine) args(req SynthesizeRequest) []string {
	rate := e.config.Rate
	if req.Speed > 0 {
		rate = int(float32(rate) * req.Speed)
	}

	args := []string{"--stdout", "--stdin", "-s", strconv.Itoa(rate)}

	voice := req.Voice
	if voice == "" {
		voice = e.config.DefaultVoice
	}
	if voice != "" && voice != "default" {
		args = append(args, "-v", voice)
	}
	return args
}

// ListVoices returns a few common espeak voices
func (e *EspeakEngine) ListVoices() []Voice {
	return []Voice{
		{ID: "en", Name: "English", Language: "en"},
		{ID: "en-us", Name: "English (America)", Language: "en-US"},
		{ID: "en-gb", Name: "English (Great Britain)", Language: "en-GB"},
		{ID: "en+m3", Name: "English Male 3", Language: "en", Gender: "male"},
		{ID: "en+f3", Name: "English Female 3", Language: "en", Gender: "female"},
	}
}

// Close releases resources
func (e *EspeakEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	return nil
}

// IsInitialized returns true if engine is ready
func (e *EspeakEngine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}
