package audio

import (
	"sync"
)

// RingBuffer is a fixed-size circular byte buffer shared between a
// producer and the playback device callback.
type RingBuffer struct {
	mu       sync.Mutex
	buffer   []byte
	size     int
	writePos int
	readPos  int
	count    int
}

// NewRingBuffer creates a new ring buffer with the specified size in bytes
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
	}
}

// Write copies as much of data as fits and returns the number of bytes
// written. A full buffer writes nothing.
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(data), rb.size-rb.count)
	for i := 0; i < n; i++ {
		rb.buffer[rb.writePos] = data[i]
		rb.writePos = (rb.writePos + 1) % rb.size
	}
	rb.count += n
	return n
}

// Read reads up to len(data) bytes from the buffer
func (rb *RingBuffer) Read(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(data), rb.count)
	for i := 0; i < n; i++ {
		data[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
	}
	rb.count -= n
	return n
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of bytes available to write
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Reset drops everything buffered
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
}

// Size returns the total size of the buffer
func (rb *RingBuffer) Size() int {
	return rb.size
}

// IsFull returns true if the buffer is full
func (rb *RingBuffer) IsFull() bool {
	return rb.Free() == 0
}

// IsEmpty returns true if the buffer is empty
func (rb *RingBuffer) IsEmpty() bool {
	return rb.Available() == 0
}
