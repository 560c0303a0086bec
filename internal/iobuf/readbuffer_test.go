/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package iobuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBufferInitialState(t *testing.T) {
	b := NewReadBuffer()
	assert.Equal(t, InitialBufSize, b.Capacity())
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, DefaultMaxBufferSize, b.MaxSize())
	assert.Equal(t, InitialBufSize, b.RemainingCapacity())
}

func TestReadBufferDidReadAndConsume(t *testing.T) {
	b := NewReadBuffer()
	copy(b.WritableTail(), []byte("hello"))
	b.DidRead(5)
	require.Equal(t, 5, b.Size())
	assert.Equal(t, "hello", string(b.Readable()))

	b.DidConsume(2)
	assert.Equal(t, 3, b.Size())
	assert.Equal(t, "llo", string(b.Readable()))
}

func TestReadBufferIncreaseCapacityFailsAtMax(t *testing.T) {
	b := NewReadBuffer()
	b.SetMaxSize(InitialBufSize)
	assert.False(t, b.IncreaseCapacity())
	assert.False(t, b.IncreaseCapacity(), "failure must be idempotent")
}

func TestReadBufferIncreaseCapacityDoublesUpToMax(t *testing.T) {
	b := NewReadBuffer()
	b.SetMaxSize(InitialBufSize*4 - 1)
	require.True(t, b.IncreaseCapacity())
	assert.Equal(t, InitialBufSize*2, b.Capacity())
	require.True(t, b.IncreaseCapacity())
	assert.Equal(t, InitialBufSize*4-1, b.Capacity(), "growth clamps to MaxSize")
	assert.False(t, b.IncreaseCapacity())
}

func TestReadBufferShrinksAfterLargeConsume(t *testing.T) {
	b := NewReadBuffer()
	require.True(t, b.IncreaseCapacity()) // capacity now 8 KiB
	require.True(t, b.IncreaseCapacity()) // capacity now 16 KiB
	copy(b.WritableTail(), []byte("x"))
	b.DidRead(1)

	b.DidConsume(1)

	// The shrink policy halves once per DidConsume call; it does not loop
	// down to MinimumBufSize in a single step.
	assert.Equal(t, InitialBufSize*2, b.Capacity())
	assert.Equal(t, 0, b.Size())
}

func TestReadBufferShrinkPreservesUnconsumedTail(t *testing.T) {
	b := NewReadBuffer()
	require.True(t, b.IncreaseCapacity())
	require.True(t, b.IncreaseCapacity())
	payload := []byte("tail-bytes")
	copy(b.WritableTail(), payload)
	b.DidRead(len(payload))

	b.DidConsume(3)

	assert.Equal(t, len(payload)-3, b.Size())
	assert.Equal(t, "l-bytes", string(b.Readable()))
}

func TestReadBufferSetMaxSizeNeverShrinksBelowOffset(t *testing.T) {
	b := NewReadBuffer()
	copy(b.WritableTail(), []byte("abcdef"))
	b.DidRead(6)

	b.SetMaxSize(4)

	assert.GreaterOrEqual(t, b.Capacity(), 6)
}
