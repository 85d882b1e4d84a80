// Package speech serialises spoken output. Producers enqueue text without
// blocking and a single worker vocalizes entries one at a time, in order.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/emmett/blacknox/internal/log"
)

// Vocalizer turns text into audible speech
type Vocalizer interface {
	// Speak blocks until text has been played or fails
	Speak(ctx context.Context, text string) error

	// Reset abandons any playback still in progress on the device
	Reset()
}

type entryKind int

const (
	entrySpeak entryKind = iota
	entryTerminate
)

// entry is one queued item. Termination is its own kind so that no user
// text can be mistaken for it.
type entry struct {
	kind entryKind
	id   string
	text string
}

// Queue is an unbounded FIFO of utterances drained by one worker goroutine
type Queue struct {
	vocalizer Vocalizer
	logger    *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	entries []entry
	closed  bool // Shutdown has been called
	started bool

	done chan struct{}
}

// NewQueue creates a queue that speaks through v. Call Start to run the worker.
func NewQueue(v Vocalizer) *Queue {
	q := &Queue{
		vocalizer: v,
		logger:    log.Component("speech.queue"),
		done:      make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker. Only the first call has an effect.
// The worker passes ctx to the vocalizer; cancelling it aborts the
// current utterance but not the queue.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}
	q.started = true
	go q.run(ctx)
}

// Enqueue appends text to the tail of the queue and returns immediately.
// Text enqueued after Shutdown is dropped.
func (q *Queue) Enqueue(text string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Debug("dropping speech after shutdown", "text", text)
		return
	}

	q.entries = append(q.entries, entry{kind: entrySpeak, id: uuid.NewString(), text: text})
	q.cond.Signal()
}

// Shutdown asks the worker to exit once everything already queued has been
// spoken. It does not wait; use Wait for that.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.entries = append(q.entries, entry{kind: entryTerminate})
	q.cond.Signal()
}

// Wait blocks until the worker has exited or ctx is done
func (q *Queue) Wait(ctx context.Context) error {
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the worker exits
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of entries waiting, not counting the one being spoken
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, e := range q.entries {
		if e.kind == entrySpeak {
			n++
		}
	}
	return n
}

func (q *Queue) next() entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.entries) == 0 {
		q.cond.Wait()
	}
	e := q.entries[0]
	q.entries[0] = entry{}
	q.entries = q.entries[1:]
	return e
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)

	q.logger.Debug("speech worker started")
	for {
		e := q.next()
		if e.kind == entryTerminate {
			q.logger.Debug("speech worker stopped")
			return
		}
		q.speak(ctx, e)
	}
}

// speak vocalizes one entry. Errors and panics are logged so that one bad
// utterance never stops the worker.
func (q *Queue) speak(ctx context.Context, e entry) {
	logger := q.logger.With("id", e.id)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("vocalizer panicked", "panic", fmt.Sprint(r))
		}
	}()

	q.vocalizer.Reset()
	if err := q.vocalizer.Speak(ctx, e.text); err != nil {
		logger.Error("failed to speak", "error", err)
		return
	}
	logger.Debug("spoke", "chars", len(e.text))
}
