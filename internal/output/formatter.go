package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Turn is one exchange of the conversation
type Turn struct {
	Index     int       `json:"index"`
	ID        string    `json:"id,omitempty"`
	Mode      string    `json:"mode"`
	Utterance string    `json:"utterance"`
	Response  string    `json:"response"`
	Rule      string    `json:"rule,omitempty"` // intercept that answered, empty for generated replies
	Timestamp time.Time `json:"timestamp"`
}

// Event represents a session event such as a mode change
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Formatter records the transcript of a session
type Formatter interface {
	// WriteTurn records one exchange
	WriteTurn(turn Turn) error

	// WriteEvent records a session event
	WriteEvent(eventType, message string) error

	// Flush ensures all buffered output is written
	Flush() error

	// Close closes the formatter and releases resources
	Close() error
}

// NewFormatter returns a formatter for "json" (one object per line) or "text"
func NewFormatter(format string, writer io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "json", "jsonl":
		return NewJSONFormatter(writer), nil
	case "text", "plain":
		return NewPlainTextFormatter(writer), nil
	default:
		return nil, fmt.Errorf("unknown transcript format: %s (valid: json, text)", format)
	}
}

// OpenTranscript appends to path with the given format. An empty path
// disables the transcript.
func OpenTranscript(path, format string) (Formatter, error) {
	if path == "" {
		return NopFormatter{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}

	formatter, err := NewFormatter(format, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileFormatter{Formatter: formatter, file: f}, nil
}

type fileFormatter struct {
	Formatter
	file *os.File
}

func (f *fileFormatter) Close() error {
	if err := f.Formatter.Close(); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}

// JSONFormatter writes one JSON object per line
type JSONFormatter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	turns   int
}

// NewJSONFormatter creates a new JSON lines formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{encoder: json.NewEncoder(writer)}
}

// WriteTurn writes a turn
func (j *JSONFormatter) WriteTurn(turn Turn) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.turns++
	return j.encoder.Encode(turn)
}

// WriteEvent writes a session event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.encoder.Encode(Event{Type: eventType, Message: message, Timestamp: time.Now()})
}

// Flush is a no-op, the encoder writes immediately
func (j *JSONFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// Turns returns how many turns were written
func (j *JSONFormatter) Turns() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.turns
}

// PlainTextFormatter writes a human readable transcript
type PlainTextFormatter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{writer: writer}
}

// WriteTurn writes a turn as two lines
func (p *PlainTextFormatter) WriteTurn(turn Turn) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	timestamp := turn.Timestamp.Format("15:04:05")
	_, err := fmt.Fprintf(p.writer, "[%s] #%d (%s) You: %s\n[%s] #%d (%s) blacknox: %s\n",
		timestamp, turn.Index, turn.Mode, turn.Utterance,
		timestamp, turn.Index, turn.Mode, turn.Response)
	return err
}

// WriteEvent writes a session event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	timestamp := time.Now().Format("15:04:05")
	_, err := fmt.Fprintf(p.writer, "[%s] [%s] %s\n", timestamp, eventType, message)
	return err
}

// Flush ensures all buffered output is written
func (p *PlainTextFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}

// NopFormatter discards the transcript
type NopFormatter struct{}

func (NopFormatter) WriteTurn(Turn) error { return nil }
func (NopFormatter) WriteEvent(string, string) error { return nil }
func (NopFormatter) Flush() error { return nil }
func (NopFormatter) Close() error { return nil }
