package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const chunkSize = 4096

// lookBinary returns the first candidate found on PATH
func lookBinary(candidates ...string) (string, error) {
	for _, bin := range candidates {
		if bin == "" {
			continue
		}
		if path, err := exec.LookPath(bin); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrBinaryNotFound, strings.Join(candidates, ", "))
}

// runSynthesizer starts bin with text on stdin and hands its stdout to read.
// The process is killed if ctx ends or read fails.
func runSynthesizer(ctx context.Context, bin string, args []string, text string, read func(io.Reader) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open synthesizer output: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", bin, err)
	}

	readErr := read(stdout)
	if readErr != nil {
		cancel()
		// Unblock the writer side before waiting
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()

	if readErr != nil {
		return readErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if waitErr != nil {
		return fmt.Errorf("%s failed: %w: %s", bin, waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// streamPCM forwards r to callback in fixed-size chunks, keeping sample
// alignment for 16-bit audio
func streamPCM(r io.Reader, sampleRate, channels int, callback AudioCallback) error {
	frame := 2 * channels
	buf := make([]byte, chunkSize-chunkSize%frame)
	var carry []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			whole := len(data) - len(data)%frame
			if whole > 0 {
				chunk := make([]byte, whole)
				copy(chunk, data[:whole])
				if cbErr := callback(AudioChunk{Data: chunk, SampleRate: sampleRate, Channels: channels}); cbErr != nil {
					return cbErr
				}
			}
			carry = append([]byte(nil), data[whole:]...)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read synthesizer output: %w", err)
		}
	}
}
