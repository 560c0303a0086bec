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

func TestWriteQueueEmptyAppendIsNoop(t *testing.T) {
	q := NewWriteQueue()
	assert.True(t, q.Append(nil))
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.SizeToWrite())
}

func TestWriteQueueAppendRejectsOverMax(t *testing.T) {
	q := NewWriteQueue()
	q.SetMaxSize(4)
	assert.False(t, q.Append([]byte("12345")))
	assert.True(t, q.IsEmpty())
}

func TestWriteQueueDidConsumePartialThenFull(t *testing.T) {
	q := NewWriteQueue()
	require.True(t, q.Append([]byte("abcdef")))
	require.True(t, q.Append([]byte("ghi")))

	assert.Equal(t, 6, q.SizeToWrite())
	q.DidConsume(2)
	assert.Equal(t, "cdef", string(q.WritableHead()))
	assert.Equal(t, 4, q.SizeToWrite())

	q.DidConsume(4)
	assert.Equal(t, "ghi", string(q.WritableHead()))
	assert.False(t, q.IsEmpty())

	q.DidConsume(3)
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.SizeToWrite())
}

func TestWriteQueueDidConsumeOverflowPanics(t *testing.T) {
	q := NewWriteQueue()
	require.True(t, q.Append([]byte("ab")))
	assert.Panics(t, func() { q.DidConsume(3) })
}
