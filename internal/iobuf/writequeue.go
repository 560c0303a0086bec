/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package iobuf

// WriteQueue is a FIFO of pending outbound byte chunks presented as a
// single contiguous cursor over the head chunk, mirroring
// HttpConnection::QueuedWriteIOBuffer. Append is the producer side (the
// delegate queuing a response); WritableHead/DidConsume is the consumer
// side (the write loop draining it onto the transport).
type WriteQueue struct {
	pending [][]byte
	cursor  int // offset already written into pending[0]
	total   int // sum of unwritten bytes across the whole queue
	max     int
}

// NewWriteQueue returns an empty WriteQueue with the default max size.
func NewWriteQueue() *WriteQueue {
	return &WriteQueue{max: DefaultMaxBufferSize}
}

// IsEmpty reports whether there is nothing left to write.
func (q *WriteQueue) IsEmpty() bool { return len(q.pending) == 0 }

// MaxSize returns the configured ceiling on total queued bytes.
func (q *WriteQueue) MaxSize() int { return q.max }

// SetMaxSize updates the ceiling. It does not evict already-queued data.
func (q *WriteQueue) SetMaxSize(n int) { q.max = n }

// Append enqueues data. Empty appends are no-ops that succeed. It reports
// false, leaving the queue unchanged, if total size would exceed MaxSize.
func (q *WriteQueue) Append(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if q.total+len(data) > q.max {
		return false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	q.pending = append(q.pending, cp)
	q.total += len(data)
	return true
}

// SizeToWrite is the number of bytes of the head chunk not yet handed to
// the transport. Zero when the queue is empty.
func (q *WriteQueue) SizeToWrite() int {
	if q.IsEmpty() {
		return 0
	}
	return len(q.pending[0]) - q.cursor
}

// WritableHead returns the bytes of the head chunk still to be written.
func (q *WriteQueue) WritableHead() []byte {
	if q.IsEmpty() {
		return nil
	}
	return q.pending[0][q.cursor:]
}

// DidConsume records that n bytes of WritableHead were written to the
// transport. It advances the cursor, or pops the head chunk when n equals
// SizeToWrite exactly. It panics on over-consume: that is a programmer
// error, never a caller-recoverable condition.
func (q *WriteQueue) DidConsume(n int) {
	toWrite := q.SizeToWrite()
	if n < 0 || n > toWrite {
		panic("iobuf: WriteQueue DidConsume exceeds size to write")
	}
	if n == 0 {
		return
	}
	q.total -= n
	if n == toWrite {
		q.pending = q.pending[1:]
		q.cursor = 0
	} else {
		q.cursor += n
	}
}
