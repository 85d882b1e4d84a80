package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

// PiperEngine implements the Engine interface by running the piper
// binary with --output_raw against an onnx voice model
type PiperEngine struct {
	config      Config
	binary      string
	mu          sync.Mutex
	initialized bool
}

// NewPiperEngine creates a new Piper TTS engine
func NewPiperEngine() *PiperEngine {
	return &PiperEngine{}
}

// Initialize checks the piper binary and voice model
func (p *PiperEngine) Initialize(config Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return fmt.Errorf("engine already initialized")
	}

	if config.ModelPath == "" {
		return fmt.Errorf("piper requires a voice model path")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return fmt.Errorf("piper voice model not found: %w", err)
	}

	bin, err := lookBinary(config.Binary, "piper")
	if err != nil {
		return err
	}

	if config.SampleRate <= 0 {
		config.SampleRate = DefaultConfig().SampleRate
	}

	p.config = config
	p.binary = bin
	p.initialized = true
	return nil
}

// Synthesize speaks req.Text and streams raw PCM to callback
func (p *PiperEngine) Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return ErrNotInitialized
	}
	bin := p.binary
	sampleRate := p.config.SampleRate
	args := []string{"--model", p.config.ModelPath, "--output_raw"}
	p.mu.Unlock()

	if req.Speed > 0 && req.Speed != 1 {
		// piper stretches phoneme length, the inverse of speed
		args = append(args, "--length_scale", strconv.FormatFloat(float64(1/req.Speed), 'f', 2, 32))
	}

	return runSynthesizer(ctx, bin, args, req.Text, func(r io.Reader) error {
		return streamPCM(r, sampleRate, 1, callback)
	})
}

// ListVoices returns the configured voice model
func (p *PiperEngine) ListVoices() []Voice {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.ModelPath == "" {
		return nil
	}
	return []Voice{{ID: p.config.ModelPath, Name: p.config.ModelPath}}
}

// Close releases resources
func (p *PiperEngine) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	return nil
}

// IsInitialized returns true if engine is ready
func (p *PiperEngine) IsInitialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}
