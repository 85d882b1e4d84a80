package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/blacknox/internal/audio"
	"github.com/emmett/blacknox/internal/tts"
)

func waitDrained(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(ctx))
}

func TestQueue_DrainsInOrderThenExits(t *testing.T) {
	v := &MockVocalizer{}
	q := NewQueue(v)

	q.Enqueue("Good evening, sir.")
	q.Enqueue("Will do, sir.")
	q.Enqueue("Check!")
	q.Shutdown()
	q.Start(context.Background())

	waitDrained(t, q)
	assert.Equal(t, []string{"Good evening, sir.", "Will do, sir.", "Check!"}, v.Spoken())
	assert.Equal(t, 3, v.Resets(), "device reset before every utterance")
}

func TestQueue_EnqueueDoesNotBlockWhileSpeaking(t *testing.T) {
	release := make(chan struct{})
	v := &MockVocalizer{SpeakFunc: func(ctx context.Context, text string) error {
		<-release
		return nil
	}}
	q := NewQueue(v)
	q.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Enqueue(fmt.Sprintf("line %d", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked while the vocalizer was busy")
	}

	assert.Eventually(t, func() bool { return q.Len() == 999 }, time.Second, 5*time.Millisecond)

	close(release)
	q.Shutdown()
	waitDrained(t, q)
	assert.Len(t, v.Spoken(), 1000)
}

func TestQueue_FailuresDoNotStopWorker(t *testing.T) {
	v := &MockVocalizer{SpeakFunc: func(ctx context.Context, text string) error {
		switch text {
		case "fails":
			return errors.New("device busy")
		case "panics":
			panic("synthesizer crashed")
		}
		return nil
	}}
	q := NewQueue(v)
	q.Start(context.Background())

	q.Enqueue("first")
	q.Enqueue("fails")
	q.Enqueue("panics")
	q.Enqueue("last")
	q.Shutdown()

	waitDrained(t, q)
	assert.Equal(t, []string{"first", "fails", "panics", "last"}, v.Spoken())
}

func TestQueue_NothingSpokenAfterShutdown(t *testing.T) {
	v := &MockVocalizer{}
	q := NewQueue(v)

	q.Enqueue("before")
	q.Shutdown()
	q.Enqueue("after")
	q.Shutdown()
	q.Start(context.Background())

	waitDrained(t, q)
	assert.Equal(t, []string{"before"}, v.Spoken())

	// Still safe once the worker is gone
	q.Enqueue("much later")
	assert.Zero(t, q.Len())
}

func TestQueue_SentinelLookalikeIsSpoken(t *testing.T) {
	v := &MockVocalizer{}
	q := NewQueue(v)
	q.Start(context.Background())

	q.Enqueue("__EXIT__")
	q.Enqueue("")
	q.Enqueue("still here")
	q.Shutdown()

	waitDrained(t, q)
	assert.Equal(t, []string{"__EXIT__", "", "still here"}, v.Spoken())
}

func TestQueue_OneUtteranceAtATime(t *testing.T) {
	var active, maxActive int32
	v := &MockVocalizer{SpeakFunc: func(ctx context.Context, text string) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}}
	q := NewQueue(v)
	q.Start(context.Background())
	q.Start(context.Background()) // second start is ignored

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				q.Enqueue(fmt.Sprintf("%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()
	q.Shutdown()

	waitDrained(t, q)
	assert.Len(t, v.Spoken(), 40)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestQueue_PerProducerOrderIsKept(t *testing.T) {
	v := &MockVocalizer{}
	q := NewQueue(v)
	q.Start(context.Background())

	var wg sync.WaitGroup
	for p := 0; p < 3; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				q.Enqueue(fmt.Sprintf("%d:%02d", p, i))
			}
		}(p)
	}
	wg.Wait()
	q.Shutdown()
	waitDrained(t, q)

	last := map[byte]string{}
	for _, s := range v.Spoken() {
		prev, ok := last[s[0]]
		if ok {
			assert.Less(t, prev, s)
		}
		last[s[0]] = s
	}
}

func TestQueue_WaitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	v := &MockVocalizer{SpeakFunc: func(ctx context.Context, text string) error {
		<-block
		return nil
	}}
	q := NewQueue(v)
	q.Start(context.Background())
	q.Enqueue("a long speech")
	q.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Wait(ctx), context.DeadlineExceeded)

	select {
	case <-q.Done():
		t.Fatal("worker exited before finishing")
	default:
	}
}

type fakeEngine struct {
	chunks []tts.AudioChunk
	err    error
	texts  []string
}

func (f *fakeEngine) Initialize(tts.Config) error { return nil }
func (f *fakeEngine) ListVoices() []tts.Voice     { return nil }
func (f *fakeEngine) Close() error                { return nil }
func (f *fakeEngine) IsInitialized() bool         { return true }

func (f *fakeEngine) Synthesize(ctx context.Context, req tts.SynthesizeRequest, cb tts.AudioCallback) error {
	f.texts = append(f.texts, req.Text)
	for _, c := range f.chunks {
		if err := cb(c); err != nil {
			return err
		}
	}
	return f.err
}

type fakePlayer struct {
	played  [][]byte
	formats []audio.PCMFormat
	resets  int
	err     error
}

func (p *fakePlayer) Play(ctx context.Context, pcm []byte, format audio.PCMFormat) error {
	p.played = append(p.played, pcm)
	p.formats = append(p.formats, format)
	return p.err
}
func (p *fakePlayer) Reset()       { p.resets++ }
func (p *fakePlayer) Close() error { return nil }

func TestEngineVocalizer(t *testing.T) {
	engine := &fakeEngine{chunks: []tts.AudioChunk{
		{Data: []byte{1, 2}, SampleRate: 22050, Channels: 1},
		{Data: []byte{3, 4}, SampleRate: 22050, Channels: 1},
	}}
	player := &fakePlayer{}
	v := NewEngineVocalizer(engine, player, "en-gb", 1)

	require.NoError(t, v.Speak(context.Background(), "Roger Boss"))
	assert.Equal(t, []string{"Roger Boss"}, engine.texts)
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, player.played)
	assert.Equal(t, audio.PCMFormat{SampleRate: 22050, Channels: 1}, player.formats[0])

	v.Reset()
	assert.Equal(t, 1, player.resets)
}

func TestEngineVocalizer_PropagatesErrors(t *testing.T) {
	engine := &fakeEngine{chunks: []tts.AudioChunk{{Data: []byte{1, 2}, SampleRate: 16000, Channels: 1}}}
	player := &fakePlayer{err: errors.New("device lost")}

	err := NewEngineVocalizer(engine, player, "", 1).Speak(context.Background(), "hello")
	assert.ErrorContains(t, err, "device lost")

	engine = &fakeEngine{err: tts.ErrBinaryNotFound}
	err = NewEngineVocalizer(engine, &fakePlayer{}, "", 1).Speak(context.Background(), "hello")
	assert.ErrorIs(t, err, tts.ErrBinaryNotFound)
}
