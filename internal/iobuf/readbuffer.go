/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package iobuf provides the growable read buffer and queued write buffer
// that a Connection uses to stage bytes between the transport and the
// request parser.
package iobuf

const (
	// InitialBufSize is the capacity a ReadBuffer starts with.
	InitialBufSize = 4 << 10 // 4 KiB

	// MinimumBufSize is the floor the shrink policy will not go below.
	MinimumBufSize = 256

	// CapacityIncreaseFactor is both the growth and the shrink divisor.
	CapacityIncreaseFactor = 2

	// DefaultMaxBufferSize is the default ceiling for both ReadBuffer and
	// WriteQueue; callers may override it per connection.
	DefaultMaxBufferSize = 1 << 20 // 1 MiB
)

// ReadBuffer is a growable linear byte buffer with bounded capacity and
// automatic shrink-after-consume. It owns a single backing allocation;
// Readable and WritableTail return slices into that allocation that are
// only valid until the next call that mutates the buffer.
type ReadBuffer struct {
	buf    []byte
	offset int // bytes written but not yet consumed
	max    int
}

// NewReadBuffer returns a ReadBuffer with the default initial capacity and
// the default max size.
func NewReadBuffer() *ReadBuffer {
	return &ReadBuffer{
		buf: make([]byte, InitialBufSize),
		max: DefaultMaxBufferSize,
	}
}

// Capacity returns the size of the backing allocation.
func (b *ReadBuffer) Capacity() int { return len(b.buf) }

// Size returns the number of unconsumed bytes currently buffered.
func (b *ReadBuffer) Size() int { return b.offset }

// MaxSize returns the configured ceiling on Capacity.
func (b *ReadBuffer) MaxSize() int { return b.max }

// SetMaxSize updates the ceiling. It never shrinks the current capacity
// below the bytes already buffered.
func (b *ReadBuffer) SetMaxSize(n int) {
	b.max = n
	if len(b.buf) > n && n >= b.offset {
		b.buf = b.buf[:n]
	}
}

// RemainingCapacity is the number of bytes that can still be written to
// the tail of the buffer without growing it.
func (b *ReadBuffer) RemainingCapacity() int { return len(b.buf) - b.offset }

// WritableTail returns the unwritten span at the end of the buffer, sized
// exactly RemainingCapacity. Callers read into it, then call DidRead.
func (b *ReadBuffer) WritableTail() []byte { return b.buf[b.offset:] }

// Readable returns the unconsumed bytes at the start of the buffer.
func (b *ReadBuffer) Readable() []byte { return b.buf[:b.offset] }

// DidRead records that n bytes were written into WritableTail.
func (b *ReadBuffer) DidRead(n int) {
	if n > b.RemainingCapacity() {
		panic("iobuf: DidRead exceeds remaining capacity")
	}
	b.offset += n
}

// IncreaseCapacity doubles the backing allocation, clamped to MaxSize.
// It reports false if the buffer is already at MaxSize.
func (b *ReadBuffer) IncreaseCapacity() bool {
	if len(b.buf) >= b.max {
		return false
	}
	newCap := len(b.buf) * CapacityIncreaseFactor
	if newCap > b.max {
		newCap = b.max
	}
	grown := make([]byte, newCap)
	copy(grown, b.buf[:b.offset])
	b.buf = grown
	return true
}

// DidConsume moves the n consumed bytes out of the buffer, sliding any
// remaining unconsumed bytes to the start, then applies the shrink policy.
func (b *ReadBuffer) DidConsume(n int) {
	if n < 0 || n > b.offset {
		panic("iobuf: DidConsume out of range")
	}
	prevSize := b.offset
	unconsumed := prevSize - n
	if unconsumed > 0 {
		copy(b.buf, b.buf[n:prevSize])
	}
	b.offset = unconsumed

	if len(b.buf) > MinimumBufSize && len(b.buf) > prevSize*CapacityIncreaseFactor {
		newCap := len(b.buf) / CapacityIncreaseFactor
		if newCap < MinimumBufSize {
			newCap = MinimumBufSize
		}
		// Nothing left to preserve: drop the old allocation before resizing
		// so the shrink never needs to copy live data twice.
		if unconsumed == 0 {
			b.buf = nil
		}
		shrunk := make([]byte, newCap)
		copy(shrunk, b.buf[:unconsumed])
		b.buf = shrunk
	}
}
