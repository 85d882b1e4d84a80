package audio

import (
	"math"
	"time"
)

// VADConfig holds configuration for Voice Activity Detection
type VADConfig struct {
	// EnergyThreshold is the minimum RMS energy considered speech.
	// Typical values: 0.001 to 0.1 (lower = more sensitive)
	EnergyThreshold float64

	// SilenceFrames is how many consecutive silent frames end an utterance
	SilenceFrames int

	// SpeechFrames is how many consecutive loud frames start one
	SpeechFrames int
}

// DefaultVADConfig returns a default VAD configuration
func DefaultVADConfig() VADConfig {
	return VADConfig{
		EnergyThreshold: 0.01,
		SilenceFrames:   33, // ~1s at 30ms frames
		SpeechFrames:    3,  // 90ms
	}
}

// NewVADConfig converts a threshold and a silence delay into frame counts
// for the given frame duration.
func NewVADConfig(threshold float64, silenceDelay, frame time.Duration) VADConfig {
	cfg := DefaultVADConfig()
	if threshold > 0 {
		cfg.EnergyThreshold = threshold
	}
	if silenceDelay > 0 && frame > 0 {
		cfg.SilenceFrames = max(1, int(silenceDelay/frame))
	}
	return cfg
}

// VAD is an energy based voice activity detector
type VAD struct {
	config            VADConfig
	silenceFrameCount int
	speechFrameCount  int
	isSpeaking        bool
}

// NewVAD creates a new voice activity detector
func NewVAD(config VADConfig) *VAD {
	return &VAD{config: config}
}

// ProcessFrame feeds one 16-bit little-endian frame.
// Returns: (isSpeechActive, speechStarted, speechEnded)
func (v *VAD) ProcessFrame(audioData []byte) (bool, bool, bool) {
	frameHasSpeech := Energy(audioData) > v.config.EnergyThreshold

	speechStarted := false
	speechEnded := false

	if frameHasSpeech {
		v.speechFrameCount++
		v.silenceFrameCount = 0

		if !v.isSpeaking && v.speechFrameCount >= v.config.SpeechFrames {
			v.isSpeaking = true
			speechStarted = true
		}
	} else {
		v.silenceFrameCount++
		v.speechFrameCount = 0

		if v.isSpeaking && v.silenceFrameCount >= v.config.SilenceFrames {
			v.isSpeaking = false
			speechEnded = true
		}
	}

	return v.isSpeaking, speechStarted, speechEnded
}

// IsSpeaking returns whether speech is currently active
func (v *VAD) IsSpeaking() bool {
	return v.isSpeaking
}

// Reset resets the VAD state
func (v *VAD) Reset() {
	v.silenceFrameCount = 0
	v.speechFrameCount = 0
	v.isSpeaking = false
}

// Energy returns the RMS energy of 16-bit little-endian PCM, normalised to 0..1
func Energy(data []byte) float64 {
	sampleCount := len(data) / 2
	if sampleCount == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < sampleCount; i++ {
		sample := int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(sampleCount))
}
