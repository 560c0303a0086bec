/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package server

import (
	"net"
	"sync/atomic"

	"github.com/packetforge/evhttpd/internal/httpparse"
	"github.com/packetforge/evhttpd/internal/iobuf"
	"github.com/packetforge/evhttpd/wsframe"
)

// Connection is the sole owner of one accepted transport, its
// ReadBuffer and WriteQueue, and an optional WebSocket state. It holds
// its transport exclusively in the sense that only the Server's
// event-loop goroutine ever touches a Connection's fields (see
// server.go) — there is no per-Connection mutex, the same way a guarded
// struct field is safe without a mutex as long as exactly one goroutine
// ever reaches in.
type Connection struct {
	id   int
	conn net.Conn
	peer net.Addr

	readBuf  *iobuf.ReadBuffer
	writeBuf *iobuf.WriteQueue

	ws atomic.Pointer[wsframe.State]

	writing bool // a write goroutine is already in flight for this Connection

	// deferredClose is set by closeLocked when the transport can't be
	// torn down yet because writeBuf still has bytes queued (e.g. the
	// 500 response on an oversize Content-Length, queued immediately
	// before the close that reports it). The write loop performs the
	// actual transportClose once it drains writeBuf to empty.
	deferredClose bool

	// transportClosed records whether conn's underlying net.Conn has
	// actually been torn down yet, which can lag closed going true by
	// one drain of writeBuf. Only ever touched on the actor goroutine.
	transportClosed bool

	// pendingUpgrade holds the parsed request and leftover read-buffer
	// bytes between delegate.OnWebSocketRequest and the delegate's
	// explicit AcceptWebSocket call, leaving the handshake decision to
	// the delegate rather than
	// switching protocols unconditionally.
	pendingUpgrade *pendingUpgrade

	closed atomic.Bool
}

type pendingUpgrade struct {
	req      *httpparse.RequestInfo
	leftover []byte
}

func newConnection(id int, conn net.Conn, cfg Config) *Connection {
	rb := iobuf.NewReadBuffer()
	rb.SetMaxSize(cfg.ReadBufferMax)
	wb := iobuf.NewWriteQueue()
	wb.SetMaxSize(cfg.WriteBufferMax)
	return &Connection{
		id:       id,
		conn:     conn,
		peer:     conn.RemoteAddr(),
		readBuf:  rb,
		writeBuf: wb,
	}
}

// ID returns the Connection's identifier, unique and > 0 for the
// lifetime of the Server.
func (c *Connection) ID() int { return c.id }

// WebSocket returns the Connection's installed WebSocket state, or nil
// if it is still in HTTP mode.
func (c *Connection) WebSocket() *wsframe.State { return c.ws.Load() }

// setWebSocket installs ws as the Connection's WebSocket state. It is a
// programming error to call this twice — the upgrade is one-shot; Go's
// idiom for that is a panic, not an error return.
func (c *Connection) setWebSocket(ws *wsframe.State) {
	if !c.ws.CompareAndSwap(nil, ws) {
		panic("server: SetWebSocket called twice on the same connection")
	}
}

// close tears down the underlying transport. Idempotent: closeLocked may
// defer this past the moment a Connection is logically closed (while
// writeBuf still has bytes to flush), and the write loop that performs
// the deferred teardown must be free to call it without checking first.
func (c *Connection) close() {
	if c.transportClosed {
		return
	}
	c.transportClosed = true
	c.conn.Close()
}
