/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package iobuf

import "github.com/pkg/errors"

// ErrBufferExhausted is the error callers report when
// ReadBuffer.IncreaseCapacity returns false because the buffer is
// already at its configured maximum and cannot grow further.
var ErrBufferExhausted = errors.New("iobuf: read buffer exhausted")

// ErrWriteQueueFull is the error callers report when WriteQueue.Append
// returns false because appending would push the queue's total size
// past its configured maximum.
var ErrWriteQueueFull = errors.New("iobuf: write queue full")
