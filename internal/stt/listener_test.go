package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/blacknox/internal/audio"
)

type fakeCapturer struct {
	samples  chan audio.AudioSample
	errs     chan error
	started  chan struct{}
	startErr error
	onStart  func(f *fakeCapturer)

	stopOnce sync.Once
	mu       sync.Mutex
	running  bool
	stops    int
}

func newFakeCapturer(buffered ...[]byte) *fakeCapturer {
	f := &fakeCapturer{
		samples: make(chan audio.AudioSample, len(buffered)),
		errs:    make(chan error, 1),
		started: make(chan struct{}),
	}
	for _, data := range buffered {
		f.samples <- audio.AudioSample{Data: data}
	}
	return f
}

func (f *fakeCapturer) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	close(f.started)
	if f.onStart != nil {
		go f.onStart(f)
	}
	return nil
}

func (f *fakeCapturer) Stop() error {
	f.mu.Lock()
	f.stops++
	f.running = false
	f.mu.Unlock()
	f.stopOnce.Do(func() {
		close(f.samples)
		close(f.errs)
	})
	return nil
}

func (f *fakeCapturer) Samples() <-chan audio.AudioSample { return f.samples }
func (f *fakeCapturer) Errors() <-chan error              { return f.errs }

func (f *fakeCapturer) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func factoryFor(f *fakeCapturer) audio.CapturerFactory {
	return func(audio.CaptureConfig) (audio.Capturer, error) { return f, nil }
}

func frame(amplitude int16) []byte {
	var b bytes.Buffer
	for i := 0; i < 480; i++ {
		_ = binary.Write(&b, binary.LittleEndian, amplitude)
	}
	return b.Bytes()
}

func TestStreamListener_ReturnsFirstFinalResult(t *testing.T) {
	fake := newFakeCapturer([]byte{1, 0}, []byte{2, 0}, []byte{3, 0})
	engine := &MockEngine{ProcessFunc: func(data []byte) *Result {
		if data[0] == 2 {
			return &Result{Text: "  what is my name? "}
		}
		return nil
	}}

	l := NewStreamListener(engine, StreamListenerConfig{NewCapturer: factoryFor(fake)})
	text, err := l.Capture(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "what is my name?", text)
	assert.Equal(t, 2, engine.Processed())
	assert.Equal(t, 1, engine.Resets())
	assert.False(t, fake.IsRunning(), "microphone released after capture")
}

func TestStreamListener_VADFinalisesAfterSilence(t *testing.T) {
	fake := newFakeCapturer(
		frame(12000), frame(12000), frame(12000),
		frame(0), frame(0),
	)
	engine := &MockEngine{FinalText: "call me Sam"}
	vad := audio.VADConfig{EnergyThreshold: 0.05, SpeechFrames: 1, SilenceFrames: 2}

	l := NewStreamListener(engine, StreamListenerConfig{NewCapturer: factoryFor(fake), VAD: &vad})
	text, err := l.Capture(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "call me Sam", text)
	// The first quiet frame is still inside the utterance
	assert.Equal(t, 4, engine.Processed())
}

func TestStreamListener_TimeoutIsNoSpeech(t *testing.T) {
	fake := newFakeCapturer()
	l := NewStreamListener(&MockEngine{}, StreamListenerConfig{
		NewCapturer: factoryFor(fake),
		Timeout:     30 * time.Millisecond,
	})

	_, err := l.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestStreamListener_TimeoutFlushesPendingWords(t *testing.T) {
	fake := newFakeCapturer()
	l := NewStreamListener(&MockEngine{FinalText: "exit"}, StreamListenerConfig{
		NewCapturer: factoryFor(fake),
		Timeout:     30 * time.Millisecond,
	})

	text, err := l.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "exit", text)
}

func TestStreamListener_CallerCancel(t *testing.T) {
	fake := newFakeCapturer()
	l := NewStreamListener(&MockEngine{}, StreamListenerConfig{NewCapturer: factoryFor(fake)})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-fake.started
		cancel()
	}()

	_, err := l.Capture(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamListener_StopDuringCapture(t *testing.T) {
	fake := newFakeCapturer()
	l := NewStreamListener(&MockEngine{}, StreamListenerConfig{NewCapturer: factoryFor(fake)})

	go func() {
		<-fake.started
		_ = l.Stop()
	}()

	_, err := l.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoSpeech)
	assert.NoError(t, l.Stop(), "stop is idempotent")
}

func TestStreamListener_DeviceFailure(t *testing.T) {
	fake := newFakeCapturer()
	fake.startErr = errors.New("no such device")

	l := NewStreamListener(&MockEngine{}, StreamListenerConfig{NewCapturer: factoryFor(fake)})
	_, err := l.Capture(context.Background())
	assert.ErrorIs(t, err, ErrCapture)
}

func TestPushToTalkListener(t *testing.T) {
	toggles := make(chan bool)
	toggler := toggleChan(toggles)

	fake := &fakeCapturer{
		samples: make(chan audio.AudioSample),
		errs:    make(chan error, 1),
		started: make(chan struct{}),
	}
	fake.onStart = func(f *fakeCapturer) {
		f.samples <- audio.AudioSample{Data: make([]byte, 960)}
		f.samples <- audio.AudioSample{Data: make([]byte, 960)}
		toggles <- false
	}

	engine := &MockEngine{FinalText: "my name is Alex"}
	l := NewPushToTalkListener(engine, toggler, audio.DefaultConfig(), factoryFor(fake))

	go func() { toggles <- true }()

	text, err := l.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my name is Alex", text)
	assert.Equal(t, 2, engine.Processed())
	assert.False(t, fake.IsRunning())
}

func TestPushToTalkListener_JoinsMidRecordingUtterances(t *testing.T) {
	toggles := make(chan bool)

	fake := &fakeCapturer{
		samples: make(chan audio.AudioSample),
		errs:    make(chan error, 1),
		started: make(chan struct{}),
	}
	fake.onStart = func(f *fakeCapturer) {
		f.samples <- audio.AudioSample{Data: append([]byte{7}, make([]byte, 959)...)}
		f.samples <- audio.AudioSample{Data: make([]byte, 960)}
		toggles <- false
	}

	engine := &MockEngine{
		ProcessFunc: func(data []byte) *Result {
			if data[0] == 7 {
				return &Result{Text: "good evening"}
			}
			return nil
		},
		FinalText: "blacknox",
	}
	l := NewPushToTalkListener(engine, toggleChan(toggles), audio.DefaultConfig(), factoryFor(fake))

	go func() { toggles <- true }()

	text, err := l.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good evening blacknox", text)
}

func TestPushToTalkListener_EmptyRecording(t *testing.T) {
	toggles := make(chan bool)

	fake := &fakeCapturer{
		samples: make(chan audio.AudioSample),
		errs:    make(chan error, 1),
		started: make(chan struct{}),
	}
	fake.onStart = func(*fakeCapturer) { toggles <- false }

	l := NewPushToTalkListener(&MockEngine{}, toggleChan(toggles), audio.DefaultConfig(), factoryFor(fake))
	go func() { toggles <- true }()

	_, err := l.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestPushToTalkListener_CancelWhileWaiting(t *testing.T) {
	l := NewPushToTalkListener(&MockEngine{}, toggleChan(make(chan bool)), audio.DefaultConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Capture(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPushToTalkListener_RecoversFromCancelledRecording(t *testing.T) {
	toggles := make(chan bool)
	toggler := &resettingToggler{toggleChan: toggles}

	first := &fakeCapturer{
		samples: make(chan audio.AudioSample),
		errs:    make(chan error, 1),
		started: make(chan struct{}),
	}
	second := &fakeCapturer{
		samples: make(chan audio.AudioSample),
		errs:    make(chan error, 1),
		started: make(chan struct{}),
	}
	second.onStart = func(f *fakeCapturer) {
		f.samples <- audio.AudioSample{Data: make([]byte, 960)}
		// The key still believes it was recording, so this press says "on"
		toggles <- true
	}
	capturers := []*fakeCapturer{first, second}
	factory := func(audio.CaptureConfig) (audio.Capturer, error) {
		f := capturers[0]
		capturers = capturers[1:]
		return f, nil
	}

	engine := &MockEngine{FinalText: "lights on"}
	l := NewPushToTalkListener(engine, toggler, audio.DefaultConfig(), factory)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		toggles <- true
		<-first.started
		cancel()
	}()
	_, err := l.Capture(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, toggler.resets.Load())
	assert.False(t, first.IsRunning())

	go func() { toggles <- false }()
	text, err := l.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lights on", text)
	assert.EqualValues(t, 2, toggler.resets.Load())
}

type toggleChan chan bool

func (c toggleChan) Toggles() <-chan bool { return c }

type resettingToggler struct {
	toggleChan
	resets atomic.Int32
}

func (r *resettingToggler) ResetToggle() { r.resets.Add(1) }
