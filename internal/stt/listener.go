package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/emmett/blacknox/internal/audio"
	"github.com/emmett/blacknox/internal/log"
)

// Listener captures one utterance from the microphone and returns its text.
type Listener interface {
	// Capture blocks until a non-empty utterance is recognized.
	// ErrNoSpeech means nothing usable was heard; ErrCapture wraps device
	// failures.
	Capture(ctx context.Context) (string, error)

	// Stop releases the microphone. It is safe to call at any time,
	// including when no capture is running.
	Stop() error
}

// StreamListenerConfig configures a StreamListener
type StreamListenerConfig struct {
	Capture audio.CaptureConfig

	// VAD finalises the utterance after trailing silence. Nil leaves
	// utterance boundaries to the recognizer.
	VAD *audio.VADConfig

	// Timeout bounds one Capture call; zero waits forever
	Timeout time.Duration

	// NewCapturer opens a fresh capturer per call. Defaults to audio.NewCapturer.
	NewCapturer audio.CapturerFactory
}

// StreamListener feeds live microphone audio to a streaming Engine and
// returns the first non-empty final result
type StreamListener struct {
	engine Engine
	config StreamListenerConfig
	logger *slog.Logger

	mu       sync.Mutex
	capturer audio.Capturer
}

// NewStreamListener creates a listener around an initialized engine
func NewStreamListener(engine Engine, config StreamListenerConfig) *StreamListener {
	if config.NewCapturer == nil {
		config.NewCapturer = audio.NewCapturer
	}
	return &StreamListener{
		engine: engine,
		config: config,
		logger: log.Component("stt.listener"),
	}
}

// Capture opens the microphone, recognizes one utterance and closes it again
func (l *StreamListener) Capture(ctx context.Context) (string, error) {
	if l.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.Timeout)
		defer cancel()
	}

	capturer, err := l.config.NewCapturer(l.config.Capture)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCapture, err)
	}

	// Published before Start so a concurrent Stop always reaches it
	l.mu.Lock()
	l.capturer = capturer
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		if l.capturer == capturer {
			l.capturer = nil
		}
		l.mu.Unlock()
		_ = capturer.Stop()
	}()

	if err := capturer.Start(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCapture, err)
	}

	if err := l.engine.Reset(); err != nil {
		return "", err
	}

	var vad *audio.VAD
	if l.config.VAD != nil {
		vad = audio.NewVAD(*l.config.VAD)
	}

	samples := capturer.Samples()
	errs := capturer.Errors()

	for {
		select {
		case <-ctx.Done():
			return l.finish(ctx)

		case sample, ok := <-samples:
			if !ok {
				return l.finish(ctx)
			}

			if vad != nil {
				speaking, started, ended := vad.ProcessFrame(sample.Data)
				if started {
					l.logger.Debug("speech detected")
				}
				if ended {
					result, err := l.engine.FinalResult()
					if err != nil {
						return "", err
					}
					if text := strings.TrimSpace(result.Text); text != "" {
						return text, nil
					}
					_ = l.engine.Reset()
					continue
				}
				if !speaking {
					continue
				}
			}

			result, err := l.engine.ProcessAudio(ctx, sample.Data)
			if err != nil {
				if ctx.Err() != nil {
					return l.finish(ctx)
				}
				return "", err
			}
			if result == nil || result.Partial {
				continue
			}
			if text := strings.TrimSpace(result.Text); text != "" {
				l.logger.Debug("utterance recognized", "confidence", result.Confidence)
				return text, nil
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			// Overflows drop frames but the stream is still usable
			l.logger.Debug("capture warning", "error", err)
		}
	}
}

// finish flushes the recognizer after the stream ends or the deadline passes
func (l *StreamListener) finish(ctx context.Context) (string, error) {
	result, err := l.engine.FinalResult()
	if err == nil {
		if text := strings.TrimSpace(result.Text); text != "" {
			return text, nil
		}
	}

	// A timeout is a quiet listen, cancellation of the caller is not
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	return "", ErrNoSpeech
}

// Stop closes the microphone if a capture is running
func (l *StreamListener) Stop() error {
	l.mu.Lock()
	capturer := l.capturer
	l.capturer = nil
	l.mu.Unlock()

	if capturer == nil {
		return nil
	}
	return capturer.Stop()
}
