package stt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/emmett/blacknox/internal/audio"
	"github.com/emmett/blacknox/internal/log"
)

// Toggler reports presses of the push-to-talk key. The value is the
// toggler's own idea of whether recording is on; Capture treats every
// press as start when idle and stop while recording.
type Toggler interface {
	Toggles() <-chan bool
}

// toggleResetter is a Toggler that keeps recording state of its own
type toggleResetter interface {
	ResetToggle()
}

// PushToTalkListener records while a hotkey is toggled on, then
// transcribes the whole recording in one pass
type PushToTalkListener struct {
	engine      Engine
	toggler     Toggler
	audioConfig audio.CaptureConfig
	newCapturer audio.CapturerFactory
	logger      *slog.Logger

	mu       sync.Mutex
	capturer audio.Capturer
}

// NewPushToTalkListener creates a push-to-talk listener. A nil factory
// uses audio.NewCapturer.
func NewPushToTalkListener(engine Engine, toggler Toggler, config audio.CaptureConfig, factory audio.CapturerFactory) *PushToTalkListener {
	if factory == nil {
		factory = audio.NewCapturer
	}
	return &PushToTalkListener{
		engine:      engine,
		toggler:     toggler,
		audioConfig: config,
		newCapturer: factory,
		logger:      log.Component("stt.ptt"),
	}
}

// Capture waits for the hotkey, records until it is pressed again and
// returns the transcription
func (p *PushToTalkListener) Capture(ctx context.Context) (string, error) {
	toggles := p.toggler.Toggles()
	// A recording cut short by ctx leaves the toggler thinking it is on
	if r, ok := p.toggler.(toggleResetter); ok {
		defer r.ResetToggle()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-toggles:
	}

	capturer, err := p.newCapturer(p.audioConfig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCapture, err)
	}
	if err := capturer.Start(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCapture, err)
	}
	p.mu.Lock()
	p.capturer = capturer
	p.mu.Unlock()

	p.logger.Debug("recording")
	recording := p.collect(ctx, capturer, toggles)
	_ = p.Stop()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(recording) == 0 {
		return "", ErrNoSpeech
	}

	return p.transcribe(ctx, recording)
}

// collect gathers samples until the toggle turns off, the stream closes
// or ctx ends
func (p *PushToTalkListener) collect(ctx context.Context, capturer audio.Capturer, toggles <-chan bool) []byte {
	var recording []byte
	samples := capturer.Samples()
	errs := capturer.Errors()

	for {
		select {
		case <-ctx.Done():
			return recording
		case <-toggles:
			return recording
		case sample, ok := <-samples:
			if !ok {
				return recording
			}
			recording = append(recording, sample.Data...)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Debug("capture warning", "error", err)
		}
	}
}

func (p *PushToTalkListener) transcribe(ctx context.Context, recording []byte) (string, error) {
	if err := p.engine.Reset(); err != nil {
		return "", err
	}

	chunk := int(p.audioConfig.BufferFrames) * 2
	if chunk <= 0 {
		chunk = 960
	}
	// The recognizer may close utterances mid-recording, keep them all
	var parts []string
	for i := 0; i < len(recording); i += chunk {
		end := min(i+chunk, len(recording))
		result, err := p.engine.ProcessAudio(ctx, recording[i:end])
		if err != nil {
			return "", err
		}
		if result != nil && !result.Partial && strings.TrimSpace(result.Text) != "" {
			parts = append(parts, strings.TrimSpace(result.Text))
		}
	}

	result, err := p.engine.FinalResult()
	if err != nil {
		return "", err
	}
	if t := strings.TrimSpace(result.Text); t != "" {
		parts = append(parts, t)
	}
	text := strings.Join(parts, " ")
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// Stop closes the microphone if recording
func (p *PushToTalkListener) Stop() error {
	p.mu.Lock()
	capturer := p.capturer
	p.capturer = nil
	p.mu.Unlock()

	if capturer == nil {
		return nil
	}
	return capturer.Stop()
}
