package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/emmett/blacknox/internal/log"
)

// PCMFormat describes signed 16-bit little-endian PCM
type PCMFormat struct {
	SampleRate uint32
	Channels   uint32
}

// BytesPerSecond returns the data rate of the format
func (f PCMFormat) BytesPerSecond() int {
	return int(f.SampleRate) * int(f.Channels) * 2
}

// Player plays PCM through an output device
type Player interface {
	// Play blocks until pcm has been handed to the device or ctx ends
	Play(ctx context.Context, pcm []byte, format PCMFormat) error

	// Reset drops any audio still waiting to be played
	Reset()

	// Close releases the device
	Close() error
}

// MalgoPlayer is a Player backed by a malgo playback device.
// The device is opened lazily and reopened when the format changes.
type MalgoPlayer struct {
	deviceID string

	mu           sync.Mutex
	malgoContext *malgo.AllocatedContext
	device       *malgo.Device
	format       PCMFormat
	buffer       *RingBuffer
	generation   uint64
}

// NewMalgoPlayer creates a player for the given playback device selector.
// Empty deviceID uses the system default.
func NewMalgoPlayer(deviceID string) *MalgoPlayer {
	return &MalgoPlayer{deviceID: deviceID}
}

// Play writes pcm into the device buffer and waits for it to drain
func (p *MalgoPlayer) Play(ctx context.Context, pcm []byte, format PCMFormat) error {
	buffer, gen, err := p.open(format)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	remaining := pcm
	for {
		if len(remaining) > 0 {
			remaining = remaining[buffer.Write(remaining):]
		}
		if len(remaining) == 0 && buffer.IsEmpty() {
			return nil
		}

		select {
		case <-ctx.Done():
			buffer.Reset()
			return ctx.Err()
		case <-ticker.C:
		}

		if p.currentGeneration() != gen {
			// Reset was called while we were playing
			return nil
		}
	}
}

// Reset drops pending samples and releases any Play in progress
func (p *MalgoPlayer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	if p.buffer != nil {
		p.buffer.Reset()
	}
}

// Close stops and releases the playback device
func (p *MalgoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *MalgoPlayer) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

func (p *MalgoPlayer) open(format PCMFormat) (*RingBuffer, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if format.SampleRate == 0 || format.Channels == 0 {
		return nil, 0, fmt.Errorf("invalid playback format: %+v", format)
	}

	if p.device != nil && p.format == format {
		return p.buffer, p.generation, nil
	}
	if err := p.closeLocked(); err != nil {
		return nil, 0, err
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = format.Channels
	deviceConfig.SampleRate = format.SampleRate

	if p.deviceID != "" {
		info, err := lookupDevice(malgoCtx.Context, DeviceTypePlayback, p.deviceID)
		if err != nil {
			_ = malgoCtx.Uninit()
			malgoCtx.Free()
			return nil, 0, err
		}
		deviceConfig.Playback.DeviceID = info.ID.Pointer()
	}

	// Half a second of headroom
	buffer := NewRingBuffer(format.BytesPerSecond() / 2)

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSamples, _ []byte, _ uint32) {
			n := buffer.Read(pOutputSamples)
			clear(pOutputSamples[n:])
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, 0, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, 0, fmt.Errorf("failed to start playback device: %w", err)
	}

	p.malgoContext = malgoCtx
	p.device = device
	p.format = format
	p.buffer = buffer

	log.Component("audio.player").Debug("playback device opened",
		"sample_rate", format.SampleRate, "channels", format.Channels)

	return p.buffer, p.generation, nil
}

func (p *MalgoPlayer) closeLocked() error {
	var err error
	if p.device != nil {
		if stopErr := p.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop playback device: %w", stopErr)
		}
		p.device.Uninit()
		p.device = nil
	}
	if p.malgoContext != nil {
		_ = p.malgoContext.Uninit()
		p.malgoContext.Free()
		p.malgoContext = nil
	}
	p.buffer = nil
	return err
}
