package audio

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcmFrame(amplitude int16, samples int) []byte {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(amplitude))
	}
	return buf
}

func TestRingBuffer(t *testing.T) {
	t.Run("write then read", func(t *testing.T) {
		rb := NewRingBuffer(8)
		assert.Equal(t, 5, rb.Write([]byte("hello")))
		assert.Equal(t, 5, rb.Available())
		assert.Equal(t, 3, rb.Free())

		out := make([]byte, 8)
		n := rb.Read(out)
		assert.Equal(t, "hello", string(out[:n]))
		assert.True(t, rb.IsEmpty())
	})

	t.Run("partial write when nearly full", func(t *testing.T) {
		rb := NewRingBuffer(4)
		assert.Equal(t, 4, rb.Write([]byte("abcdef")))
		assert.True(t, rb.IsFull())
		assert.Equal(t, 0, rb.Write([]byte("g")))
	})

	t.Run("wraps around", func(t *testing.T) {
		rb := NewRingBuffer(4)
		rb.Write([]byte("abc"))
		out := make([]byte, 2)
		rb.Read(out)
		assert.Equal(t, 3, rb.Write([]byte("def")))

		all := make([]byte, 4)
		n := rb.Read(all)
		assert.Equal(t, "cdef", string(all[:n]))
	})

	t.Run("reset drops data", func(t *testing.T) {
		rb := NewRingBuffer(4)
		rb.Write([]byte("ab"))
		rb.Reset()
		assert.True(t, rb.IsEmpty())
		assert.Equal(t, 4, rb.Free())
	})
}

func TestEnergy(t *testing.T) {
	assert.Zero(t, Energy(nil))
	assert.Zero(t, Energy(pcmFrame(0, 160)))
	assert.InDelta(t, 0.5, Energy(pcmFrame(16384, 160)), 0.001)
	assert.InDelta(t, 0.5, Energy(pcmFrame(-16384, 160)), 0.001)
}

func TestVAD(t *testing.T) {
	cfg := VADConfig{EnergyThreshold: 0.1, SpeechFrames: 2, SilenceFrames: 3}
	vad := NewVAD(cfg)

	loud := pcmFrame(16000, 480)
	quiet := pcmFrame(10, 480)

	speaking, started, _ := vad.ProcessFrame(loud)
	assert.False(t, speaking)
	assert.False(t, started)

	speaking, started, _ = vad.ProcessFrame(loud)
	assert.True(t, speaking)
	assert.True(t, started)

	for i := 0; i < 2; i++ {
		_, _, ended := vad.ProcessFrame(quiet)
		assert.False(t, ended)
	}
	speaking, _, ended := vad.ProcessFrame(quiet)
	assert.False(t, speaking)
	assert.True(t, ended)

	vad.ProcessFrame(loud)
	vad.Reset()
	assert.False(t, vad.IsSpeaking())
}

func TestNewVADConfig(t *testing.T) {
	cfg := NewVADConfig(0.02, time.Second, 30*time.Millisecond)
	assert.Equal(t, 0.02, cfg.EnergyThreshold)
	assert.Equal(t, 33, cfg.SilenceFrames)

	def := NewVADConfig(0, 0, 0)
	assert.Equal(t, DefaultVADConfig(), def)
}

func TestConfigForModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"vosk-model-small-en-us-0.15", DefaultConfig().SampleBufferSize},
		{"vosk-model-en-us-0.22-lgraph", MediumModelConfig().SampleBufferSize},
		{"vosk-model-en-us-0.22", LargeModelConfig().SampleBufferSize},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigForModel(tt.model).SampleBufferSize)
		})
	}

	assert.Equal(t, 30*time.Millisecond, DefaultConfig().FrameDuration())
}

func TestFindDevice(t *testing.T) {
	devices := []DeviceInfo{
		{ID: "capture-0", Name: "Built-in Microphone", Type: DeviceTypeCapture, IsDefault: true},
		{ID: "playback-0", Name: "USB Headset", Type: DeviceTypePlayback},
	}

	d, err := FindDevice(devices, "playback-0")
	require.NoError(t, err)
	assert.Equal(t, "USB Headset", d.Name)

	d, err = FindDevice(devices, "microphone")
	require.NoError(t, err)
	assert.Equal(t, "capture-0", d.ID)
	assert.Contains(t, d.String(), "[DEFAULT]")

	_, err = FindDevice(devices, "hdmi")
	assert.Error(t, err)
}
