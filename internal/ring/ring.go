// Package ring provides the fixed-capacity byte ring used by the UART
// receive interrupt path. The producer is an ISR, the consumer is the
// foreground context; head and tail are single-writer, published with
// atomic stores so neither side observes a torn index.
package ring

import "sync/atomic"

// Size is a power of two for cheap modulo.
const Size uint8 = 64

// Buffer is a byte ring. The zero value is an empty, usable buffer.
type Buffer struct {
	buf  [Size]atomic.Uint32
	head atomic.Uint32 // written by the producer only
	tail atomic.Uint32 // written by the consumer only
}

// Used returns how many bytes are buffered.
func (b *Buffer) Used() uint8 {
	return uint8(b.head.Load() - b.tail.Load())
}

// Put appends one byte. It returns false, dropping the byte, when the
// buffer is full: the producer runs in interrupt context and must not
// block.
func (b *Buffer) Put(v byte) bool {
	if b.Used() == Size {
		return false
	}
	h := uint8(b.head.Load())
	b.buf[(h+1)%Size].Store(uint32(v)) // 1) write data
	b.head.Store(uint32(h + 1))        // 2) publish
	return true
}

// Get removes and returns the oldest byte, or (0, false) when empty.
func (b *Buffer) Get() (byte, bool) {
	if b.Used() == 0 {
		return 0, false
	}
	t := uint8(b.tail.Load())
	v := byte(b.buf[(t+1)%Size].Load()) // 1) read current element
	b.tail.Store(uint32(t + 1))         // 2) publish consumption
	return v, true
}

// Clear resets the indices, discarding buffered data.
func (b *Buffer) Clear() {
	b.head.Store(0)
	b.tail.Store(0)
}
