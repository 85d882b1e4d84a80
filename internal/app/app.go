// Package app assembles blacknox from its configuration: the text
// generator, the speech output queue, the speech recognizer and the
// transcript. Commands build an App and then run one of its surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/emmett/blacknox/internal/assistant"
	"github.com/emmett/blacknox/internal/audio"
	"github.com/emmett/blacknox/internal/config"
	"github.com/emmett/blacknox/internal/generate"
	"github.com/emmett/blacknox/internal/input"
	"github.com/emmett/blacknox/internal/log"
	"github.com/emmett/blacknox/internal/models"
	"github.com/emmett/blacknox/internal/output"
	"github.com/emmett/blacknox/internal/speech"
	"github.com/emmett/blacknox/internal/stt"
	"github.com/emmett/blacknox/internal/stt/vosk"
	"github.com/emmett/blacknox/internal/tts"
)

// drainTimeout bounds how long Close waits for queued speech
const drainTimeout = 30 * time.Second

// Options selects which parts of the assistant are started
type Options struct {
	// Speech enables microphone input. It needs a downloaded model.
	Speech bool

	// Console overrides terminal output
	Console *output.ConsoleOutput

	// Generator overrides the configured provider
	Generator generate.Generator

	// Vocalizer overrides the configured TTS engine and player
	Vocalizer speech.Vocalizer
}

// App is a configured assistant
type App struct {
	cfg        *config.Config
	console    *output.ConsoleOutput
	user       *assistant.UserContext
	assistant  *assistant.Assistant
	queue      *speech.Queue
	transcript output.Formatter
	listener   assistant.Listener
	logger     *slog.Logger

	// closers run in reverse order on Close
	closers []func() error
}

// New builds the assistant and starts the speech output worker
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		cfg:     cfg,
		console: opts.Console,
		user:    assistant.NewUserContext(),
		logger:  log.Component("app"),
	}
	if a.console == nil {
		a.console = output.DefaultConsoleOutput()
	}

	generator := opts.Generator
	if generator == nil {
		var err error
		if generator, err = generate.New(GeneratorOptions(cfg)); err != nil {
			return nil, err
		}
	}
	a.assistant = assistant.New(generator, a.user, cfg.Assistant.Persona)

	vocalizer := opts.Vocalizer
	if vocalizer == nil {
		v, err := a.newVocalizer()
		if err != nil {
			a.logger.Warn("speech output disabled", "engine", cfg.TTS.Engine, "error", err)
			a.console.Error(fmt.Sprintf("speech output disabled: %v", err))
			v = speech.SilentVocalizer{}
		}
		vocalizer = v
	}
	a.queue = speech.NewQueue(vocalizer)
	a.queue.Start(ctx)

	transcript, err := output.OpenTranscript(cfg.Output.File, cfg.Output.Format)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.transcript = transcript
	a.closers = append(a.closers, transcript.Close)

	if opts.Speech {
		if err := a.enableSpeechInput(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// GeneratorOptions maps the generator section of cfg
func GeneratorOptions(cfg *config.Config) generate.Options {
	return generate.Options{
		Provider:    cfg.Generator.Provider,
		Model:       cfg.Generator.Model,
		BaseURL:     cfg.Generator.BaseURL,
		APIKey:      cfg.Generator.APIKey,
		Temperature: cfg.Generator.Temperature,
		TopP:        cfg.Generator.TopP,
		MaxTokens:   cfg.Generator.MaxTokens,
		Timeout:     cfg.GeneratorTimeout(),
	}
}

func (a *App) newVocalizer() (speech.Vocalizer, error) {
	engine, err := tts.New(a.cfg.TTS.Engine)
	if err != nil {
		return nil, err
	}

	ttsConfig := tts.DefaultConfig()
	ttsConfig.Binary = a.cfg.TTS.Binary
	ttsConfig.ModelPath = a.cfg.TTS.ModelPath
	if a.cfg.TTS.Voice != "" {
		ttsConfig.DefaultVoice = a.cfg.TTS.Voice
	}
	if a.cfg.TTS.Rate > 0 {
		ttsConfig.Rate = a.cfg.TTS.Rate
	}
	if a.cfg.TTS.SampleRate > 0 {
		ttsConfig.SampleRate = a.cfg.TTS.SampleRate
	}

	if err := engine.Initialize(ttsConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", a.cfg.TTS.Engine, err)
	}

	player := audio.NewMalgoPlayer(a.cfg.Audio.OutputDevice)
	a.closers = append(a.closers, engine.Close, player.Close)

	return speech.NewEngineVocalizer(engine, player, a.cfg.TTS.Voice, a.cfg.TTS.Speed), nil
}

// enableSpeechInput loads the recognizer. A missing model is fatal.
func (a *App) enableSpeechInput(ctx context.Context) error {
	mgr, err := models.NewManager(a.cfg.Model.Dir)
	if err != nil {
		return err
	}

	modelPath, err := mgr.Resolve(a.cfg.Model.Default)
	if err != nil {
		return err
	}
	a.logger.Info("loading speech model", "path", modelPath)

	engine := vosk.New()
	if err := engine.Initialize(stt.DefaultConfig(modelPath)); err != nil {
		return fmt.Errorf("failed to initialize speech recognition: %w", err)
	}
	a.closers = append(a.closers, engine.Close)

	capture := audio.ConfigForModel(filepath.Base(modelPath))
	if a.cfg.Audio.Device != "" {
		device, err := NewDeviceManager(io.Discard).SelectDevice(audio.DeviceTypeCapture, a.cfg.Audio.Device)
		if err != nil {
			return err
		}
		a.logger.Info("using capture device", "device", device.Name)
		capture.DeviceID = device.ID
	}

	if key := a.cfg.Speech.PushToTalk; key != "" {
		hotkeys := input.NewHotkeyManager()
		if err := hotkeys.Start(ctx, key); err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { hotkeys.Stop(); return nil })
		a.listener = stt.NewPushToTalkListener(engine, hotkeys, capture, nil)
		a.console.Info(fmt.Sprintf("Press %s to start and stop talking", key))
		return nil
	}

	listenerConfig := stt.StreamListenerConfig{
		Capture: capture,
		Timeout: a.cfg.CaptureTimeout(),
	}
	if a.cfg.VAD.Enabled {
		silence := time.Duration(a.cfg.VAD.SilenceDelay * float64(time.Second))
		vad := audio.NewVADConfig(a.cfg.VAD.Threshold, silence, capture.FrameDuration())
		listenerConfig.VAD = &vad
	}
	a.listener = stt.NewStreamListener(engine, listenerConfig)
	return nil
}

// User returns the shared user context
func (a *App) User() *assistant.UserContext {
	return a.user
}

// Queue returns the speech output queue
func (a *App) Queue() *speech.Queue {
	return a.queue
}

// Service returns the assistant for remote surfaces
func (a *App) Service() *assistant.Service {
	return assistant.NewService(a.assistant, a.queue)
}

// RunInteractive runs the console conversation until the user exits
func (a *App) RunInteractive(ctx context.Context, lines assistant.LineReader) error {
	loop := assistant.NewLoop(assistant.LoopConfig{
		Assistant:  a.assistant,
		Lines:      lines,
		Speaker:    a.queue,
		Listener:   a.listener,
		Console:    a.console,
		Transcript: a.transcript,
		Name:       a.cfg.Assistant.Name,
	})
	return loop.Run(ctx)
}

// Close drains the speech queue and releases devices and engines
func (a *App) Close() error {
	if a.queue != nil {
		a.queue.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := a.queue.Wait(ctx); err != nil {
			a.logger.Warn("speech queue did not drain", "error", err)
		}
		cancel()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
