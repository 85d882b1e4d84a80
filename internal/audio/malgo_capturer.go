package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/emmett/blacknox/internal/log"
)

// MalgoCapturer implements the Capturer interface using malgo
type MalgoCapturer struct {
	config       CaptureConfig
	device       *malgo.Device
	malgoContext *malgo.AllocatedContext
	samples      chan AudioSample
	errors       chan error
	running      bool
	stopped      bool
	mu           sync.Mutex
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// NewMalgoCapturer creates a new malgo-based audio capturer
func NewMalgoCapturer(config CaptureConfig) (*MalgoCapturer, error) {
	if config.SampleBufferSize <= 0 {
		config.SampleBufferSize = DefaultConfig().SampleBufferSize
	}
	return &MalgoCapturer{
		config:   config,
		samples:  make(chan AudioSample, config.SampleBufferSize),
		errors:   make(chan error, 10),
		stopChan: make(chan struct{}),
	}, nil
}

// Start opens the capture device and begins streaming samples
func (m *MalgoCapturer) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("capturer is already running")
	}
	if m.stopped {
		return fmt.Errorf("capturer has been stopped")
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = m.config.Channels
	deviceConfig.SampleRate = m.config.SampleRate
	deviceConfig.PeriodSizeInFrames = m.config.BufferFrames

	if m.config.DeviceID != "" {
		info, err := lookupDevice(malgoCtx.Context, DeviceTypeCapture, m.config.DeviceID)
		if err != nil {
			_ = malgoCtx.Uninit()
			malgoCtx.Free()
			return err
		}
		deviceConfig.Capture.DeviceID = info.ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, framecount uint32) {
			dataCopy := make([]byte, len(pInputSamples))
			copy(dataCopy, pInputSamples)

			select {
			case m.samples <- AudioSample{Data: dataCopy, Timestamp: time.Now(), Frames: framecount}:
			default:
				select {
				case m.errors <- fmt.Errorf("sample buffer overflow, dropping frames"):
				default:
				}
			}
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	m.malgoContext = malgoCtx
	m.device = device
	m.running = true

	log.Component("audio.capture").Debug("capture started",
		"sample_rate", m.config.SampleRate, "device", m.config.DeviceID)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-ctx.Done():
			go func() { _ = m.Stop() }()
		case <-m.stopChan:
		}
	}()

	return nil
}

// Stop releases the device and closes the sample and error channels.
// Calling Stop more than once is a no-op.
func (m *MalgoCapturer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.stopped = true
	close(m.stopChan)

	var stopErr error
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			stopErr = fmt.Errorf("failed to stop capture device: %w", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoContext != nil {
		_ = m.malgoContext.Uninit()
		m.malgoContext.Free()
		m.malgoContext = nil
	}
	m.mu.Unlock()

	m.wg.Wait()

	// The device is uninitialised, no callback can send any more
	close(m.samples)
	close(m.errors)

	log.Component("audio.capture").Debug("capture stopped")
	return stopErr
}

// Samples returns a channel that receives audio samples
func (m *MalgoCapturer) Samples() <-chan AudioSample {
	return m.samples
}

// Errors returns a channel that receives capture errors
func (m *MalgoCapturer) Errors() <-chan error {
	return m.errors
}

// IsRunning returns true if capture is currently active
func (m *MalgoCapturer) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
