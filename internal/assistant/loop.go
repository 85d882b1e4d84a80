package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emmett/blacknox/internal/log"
	"github.com/emmett/blacknox/internal/output"
	"github.com/emmett/blacknox/internal/stt"
)

// Console text
const (
	Greeting        = "Hi, my name is blacknox, your personal assistant, how may I help?"
	ModePrompt      = "\nType 'text' for text input, 'speech' for speech input, or 'exit' to quit: "
	TextPrompt      = "You: "
	InvalidMode     = "Invalid mode. Choose 'text', 'speech', or 'exit'."
	TextActivated   = "Text mode activated. Type 'exit' to quit text mode."
	TextExiting     = "Exiting text mode..."
	SpeechActivated = "Speech mode activated. Say 'exit' to quit."
	SpeechExiting   = "Exiting speech mode..."
	Goodbye         = "Goodbye!"
)

// DefaultMaxCaptureFailures is how many capture errors in a row end speech mode
const DefaultMaxCaptureFailures = 3

// Mode is a state of the conversation loop
type Mode int

const (
	ModeSelect Mode = iota
	ModeText
	ModeSpeech
	ModeExit
)

func (m Mode) String() string {
	switch m {
	case ModeSelect:
		return "select"
	case ModeText:
		return "text"
	case ModeSpeech:
		return "speech"
	case ModeExit:
		return "exit"
	default:
		return "unknown"
	}
}

// LineReader reads typed input
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Listener turns microphone input into text. Stop releases the microphone
// so the speaker can use the audio device.
type Listener interface {
	Capture(ctx context.Context) (string, error)
	Stop() error
}

// Speaker is the speech output queue
type Speaker interface {
	Enqueue(text string)
	Shutdown()
	Wait(ctx context.Context) error
}

// LoopConfig wires the loop to its collaborators
type LoopConfig struct {
	Assistant *Assistant
	Lines     LineReader
	Speaker   Speaker
	Console   *output.ConsoleOutput

	// Listener is nil when speech input is unavailable
	Listener Listener

	// Transcript records every turn; nil disables it
	Transcript output.Formatter

	// Name prefixes replies on the console
	Name string

	MaxCaptureFailures int
}

// Loop is the interactive conversation
type Loop struct {
	cfg    LoopConfig
	turns  int
	logger *slog.Logger
}

// NewLoop creates a conversation loop
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Console == nil {
		cfg.Console = output.DefaultConsoleOutput()
	}
	if cfg.Transcript == nil {
		cfg.Transcript = output.NopFormatter{}
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.MaxCaptureFailures <= 0 {
		cfg.MaxCaptureFailures = DefaultMaxCaptureFailures
	}
	return &Loop{cfg: cfg, logger: log.Component("assistant.loop")}
}

// Run greets the user and serves modes until "exit", end of input or ctx
// cancellation. On the way out the speaker is shut down and everything
// already queued is spoken before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	console := l.cfg.Console
	console.Say(Greeting)

	for ctx.Err() == nil {
		line, err := l.readLine(ctx, ModePrompt)
		if err != nil {
			l.logger.Debug("mode input ended", "error", err)
			break
		}

		mode := parseMode(line)
		switch mode {
		case ModeText:
			l.event("mode", mode.String())
			l.textMode(ctx)
		case ModeSpeech:
			if l.cfg.Listener == nil {
				console.Error("speech input is not available")
				continue
			}
			l.event("mode", mode.String())
			l.speechMode(ctx)
		case ModeExit:
			return l.exit(ctx)
		default:
			console.Say(InvalidMode)
		}
	}

	err := l.exit(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type lineResult struct {
	line string
	err  error
}

// readLine returns ctx.Err() as soon as ctx is done, even while the reader
// is still blocked on the terminal. The pending read is abandoned.
func (l *Loop) readLine(ctx context.Context, prompt string) (string, error) {
	done := make(chan lineResult, 1)
	go func() {
		line, err := l.cfg.Lines.ReadLine(prompt)
		done <- lineResult{line: line, err: err}
	}()

	select {
	case r := <-done:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func parseMode(line string) Mode {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "text":
		return ModeText
	case "speech":
		return ModeSpeech
	case "exit":
		return ModeExit
	default:
		return ModeSelect
	}
}

func isExit(utterance string) bool {
	return strings.ToLower(strings.TrimSpace(utterance)) == "exit"
}

func (l *Loop) exit(ctx context.Context) error {
	l.cfg.Console.Say(Goodbye)
	l.event("exit", "shutting down speech output")
	l.cfg.Speaker.Shutdown()

	err := l.cfg.Speaker.Wait(ctx)
	if flushErr := l.cfg.Transcript.Flush(); flushErr != nil {
		l.logger.Warn("failed to flush transcript", "error", flushErr)
	}
	return err
}

func (l *Loop) textMode(ctx context.Context) {
	console := l.cfg.Console
	console.Say(TextActivated)

	for ctx.Err() == nil {
		line, err := l.readLine(ctx, TextPrompt)
		if err != nil {
			l.logger.Debug("text input ended", "error", err)
			return
		}
		if isExit(line) {
			console.Say(TextExiting)
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply := l.cfg.Assistant.Respond(ctx, line)
		console.Reply(l.cfg.Name, reply.Text)
		l.cfg.Speaker.Enqueue(reply.Text)
		l.record(ModeText, line, reply)
	}
}

func (l *Loop) speechMode(ctx context.Context) {
	console := l.cfg.Console
	listener := l.cfg.Listener
	console.Say(SpeechActivated)

	failures := 0
	for ctx.Err() == nil {
		text, err := listener.Capture(ctx)
		if err != nil {
			if errors.Is(err, stt.ErrNoSpeech) {
				continue
			}
			if ctx.Err() != nil {
				return
			}

			failures++
			l.logger.Warn("capture failed", "error", err, "failures", failures)
			if failures >= l.cfg.MaxCaptureFailures {
				console.Error("microphone keeps failing, leaving speech mode: " + err.Error())
				return
			}
			continue
		}
		failures = 0

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		console.Say("You (speech): " + text)

		if isExit(text) {
			console.Say(SpeechExiting)
			return
		}

		reply := l.cfg.Assistant.Respond(ctx, text)
		console.Reply(l.cfg.Name, reply.Text)

		if err := listener.Stop(); err != nil {
			l.logger.Warn("failed to stop listener", "error", err)
		}
		l.cfg.Speaker.Enqueue(reply.Text)
		l.record(ModeSpeech, text, reply)
	}
}

func (l *Loop) record(mode Mode, utterance string, reply Reply) {
	l.turns++
	turn := output.Turn{
		Index:     l.turns,
		ID:        uuid.NewString(),
		Mode:      mode.String(),
		Utterance: utterance,
		Response:  reply.Text,
		Rule:      reply.Rule,
		Timestamp: time.Now(),
	}
	if err := l.cfg.Transcript.WriteTurn(turn); err != nil {
		l.logger.Warn("failed to write transcript", "error", err)
	}
}

func (l *Loop) event(kind, message string) {
	if err := l.cfg.Transcript.WriteEvent(kind, message); err != nil {
		l.logger.Warn("failed to write transcript", "error", err)
	}
}
