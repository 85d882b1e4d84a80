// Package vosk is the offline speech recognizer backed by the Vosk/Kaldi
// library. It is the only package that links libvosk.
package vosk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	libvosk "github.com/alphacep/vosk-api/go"

	"github.com/emmett/blacknox/internal/stt"
)

// Engine implements stt.Engine using Vosk
type Engine struct {
	model       *libvosk.VoskModel
	recognizer  *libvosk.VoskRecognizer
	config      stt.Config
	mu          sync.Mutex
	initialized bool
}

// voskResult is the JSON Vosk returns for Result, PartialResult and FinalResult
type voskResult struct {
	Text   string `json:"text"`
	Result []struct {
		Conf  float64 `json:"conf"`
		End   float64 `json:"end"`
		Start float64 `json:"start"`
		Word  string  `json:"word"`
	} `json:"result,omitempty"`
	Partial string `json:"partial,omitempty"`
}

// New creates an uninitialized engine
func New() *Engine {
	return &Engine{}
}

// Initialize loads the model and creates a recognizer
func (v *Engine) Initialize(config stt.Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.initialized {
		return fmt.Errorf("engine already initialized")
	}

	// Kaldi writes to stderr otherwise, which would garble the prompt
	libvosk.SetLogLevel(-1)

	model, err := libvosk.NewModel(config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", config.ModelPath, err)
	}
	if model == nil {
		return fmt.Errorf("failed to load model from %s: model returned nil", config.ModelPath)
	}

	recognizer, err := libvosk.NewRecognizer(model, float64(config.SampleRate))
	if err != nil {
		model.Free()
		return fmt.Errorf("failed to create recognizer: %w", err)
	}

	if config.MaxAlternatives > 0 {
		recognizer.SetMaxAlternatives(config.MaxAlternatives)
	}
	// Word results carry the confidence scores
	recognizer.SetWords(1)

	v.model = model
	v.recognizer = recognizer
	v.config = config
	v.initialized = true

	return nil
}

// ProcessAudio feeds audio and returns a final result when Vosk detects
// an utterance boundary, otherwise the current partial hypothesis
func (v *Engine) ProcessAudio(ctx context.Context, audioData []byte) (*stt.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil, stt.ErrNotInitialized
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if v.recognizer.AcceptWaveform(audioData) > 0 {
		return decodeResult(v.recognizer.Result(), false)
	}
	return decodeResult(v.recognizer.PartialResult(), true)
}

// FinalResult flushes the recognizer and returns the last utterance
func (v *Engine) FinalResult() (*stt.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil, stt.ErrNotInitialized
	}

	return decodeResult(v.recognizer.FinalResult(), false)
}

// Reset discards audio fed since the last result
func (v *Engine) Reset() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return stt.ErrNotInitialized
	}

	v.recognizer.Reset()
	return nil
}

// Close releases resources
func (v *Engine) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil
	}

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}

	v.initialized = false
	return nil
}

// IsInitialized returns true if the engine is initialized
func (v *Engine) IsInitialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.initialized
}

func decodeResult(raw string, partial bool) (*stt.Result, error) {
	var vr voskResult
	if err := json.Unmarshal([]byte(raw), &vr); err != nil {
		return nil, fmt.Errorf("failed to parse recognizer result: %w", err)
	}

	if partial {
		return &stt.Result{Text: vr.Partial, Partial: true}, nil
	}
	return &stt.Result{Text: vr.Text, Confidence: averageConfidence(vr)}, nil
}

func averageConfidence(result voskResult) float64 {
	if len(result.Result) == 0 {
		return 0.0
	}

	var sum float64
	for _, word := range result.Result {
		sum += word.Conf
	}
	return sum / float64(len(result.Result))
}
