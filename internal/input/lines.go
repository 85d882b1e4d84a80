package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/chzyer/readline"
)

// ErrInterrupted is returned when the user presses Ctrl+C at a prompt
var ErrInterrupted = errors.New("input: interrupted")

// LineReader reads one line of user input after showing a prompt.
// It returns io.EOF when input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// ReadlineReader is a LineReader with history and line editing
type ReadlineReader struct {
	rl        *readline.Instance
	closeOnce sync.Once
	closeErr  error
}

// NewReadlineReader opens a terminal line editor. History is kept in the
// temp dir and shared across sessions.
func NewReadlineReader() (*ReadlineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:     filepath.Join(os.TempDir(), ".blacknox_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &ReadlineReader{rl: rl}, nil
}

// ReadLine shows prompt and reads a line
func (r *ReadlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}

// Close restores the terminal and unblocks a pending ReadLine. It is safe
// to call more than once.
func (r *ReadlineReader) Close() error {
	r.closeOnce.Do(func() { r.closeErr = r.rl.Close() })
	return r.closeErr
}

// ScannerReader is a LineReader for pipes and other non-terminal input
type ScannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScannerReader reads lines from in and writes prompts to out
func NewScannerReader(in io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(in), out: out}
}

// ReadLine writes prompt and reads the next line
func (s *ScannerReader) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(s.out, prompt)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// Close is a no-op
func (s *ScannerReader) Close() error {
	return nil
}

// NewLineReader prefers a readline editor and falls back to plain
// scanning of stdin when no terminal is available
func NewLineReader() LineReader {
	if rl, err := NewReadlineReader(); err == nil {
		return rl
	}
	return NewScannerReader(os.Stdin, os.Stdout)
}
