package speech

import (
	"context"
	"fmt"

	"github.com/emmett/blacknox/internal/audio"
	"github.com/emmett/blacknox/internal/tts"
)

// EngineVocalizer speaks by synthesizing with a TTS engine and playing the
// result on an audio player
type EngineVocalizer struct {
	engine tts.Engine
	player audio.Player
	voice  string
	speed  float32
}

// NewEngineVocalizer creates a vocalizer. engine must be initialized.
func NewEngineVocalizer(engine tts.Engine, player audio.Player, voice string, speed float32) *EngineVocalizer {
	return &EngineVocalizer{engine: engine, player: player, voice: voice, speed: speed}
}

// Speak synthesizes text and plays each chunk as it arrives
func (v *EngineVocalizer) Speak(ctx context.Context, text string) error {
	req := tts.SynthesizeRequest{Text: text, Voice: v.voice, Speed: v.speed}

	err := v.engine.Synthesize(ctx, req, func(chunk tts.AudioChunk) error {
		format := audio.PCMFormat{SampleRate: uint32(chunk.SampleRate), Channels: uint32(chunk.Channels)}
		return v.player.Play(ctx, chunk.Data, format)
	})
	if err != nil {
		return fmt.Errorf("failed to vocalize: %w", err)
	}
	return nil
}

// Reset drops audio left on the player
func (v *EngineVocalizer) Reset() {
	v.player.Reset()
}

// SilentVocalizer is used when no speech engine is available. Replies are
// still printed; nothing is played.
type SilentVocalizer struct{}

// Speak does nothing
func (SilentVocalizer) Speak(context.Context, string) error { return nil }

// Reset does nothing
func (SilentVocalizer) Reset() {}
