/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package server

import (
	"io"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/packetforge/evhttpd/internal/httpparse"
	"github.com/packetforge/evhttpd/internal/iobuf"
	"github.com/packetforge/evhttpd/wsframe"
)

// Server is an accept loop plus one read loop and one write loop per
// accepted Connection, all funnelled through a single actor goroutine
// so the connection registry and every Connection's buffers are
// touched by exactly one goroutine at a time.
//
// Send*/Close below must be called from within a Delegate callback
// (they run directly on the actor goroutine with no locking); calling
// them from any other goroutine is a programming error — every
// Delegate callback runs on the same goroutine, so code inside one can
// always reach Send*/Close synchronously.
type Server struct {
	listener net.Listener
	cfg      Config
	logger   logrus.FieldLogger
	actor    *actor
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithConfig overrides the default buffer/body limits.
func WithConfig(cfg Config) Option { return func(s *Server) { s.cfg = cfg } }

// WithLogger overrides the default logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option { return func(s *Server) { s.logger = l } }

// New constructs a Server and starts its actor and accept-loop
// goroutines. New itself never calls into delegate, but the accept loop
// runs concurrently with the caller, so delegate callbacks can begin as
// soon as a connection is accepted, which may be before New returns.
func New(listener net.Listener, delegate Delegate, opts ...Option) *Server {
	s := &Server{
		listener: listener,
		cfg:      DefaultConfig(),
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.actor = newActor(delegate, s.logger)
	go s.actor.run()
	go s.acceptLoop()
	return s
}

// Close shuts down the listener and stops the actor. It does not close
// Connections that were already accepted: their read and write
// goroutines return at their next attempt to post to the stopped actor
// without closing their transports, and Delegate.OnClose is not called
// for them.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.actor.stop()
	return err
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.logger.WithError(err).Info("server: accept loop ending")
			return
		}
		if !s.actor.post(func() { s.handleAccept(conn) }) {
			// The actor stopped between Accept returning and this post,
			// so handleAccept will never run to register or close conn:
			// close it directly rather than leaking the fd.
			conn.Close()
			return
		}
	}
}

// handleAccept runs on the actor goroutine: allocate a new Connection,
// register it, notify the delegate, then start its read loop.
func (s *Server) handleAccept(netConn net.Conn) {
	id := s.actor.nextID()
	conn := newConnection(id, netConn, s.cfg)
	s.actor.idToConnection[id] = conn

	s.logger.WithFields(logrus.Fields{
		"connection_id": id,
		"remote_addr":   conn.peer,
	}).Info("server: connection accepted")

	s.actor.delegate.OnConnect(id)
	if conn.closed.Load() {
		return
	}
	go s.readLoop(conn)
}

// readGrowResult is the actor's reply to a readLoop's request for a
// writable tail to read into.
type readGrowResult struct {
	buf    []byte
	closed bool
}

// readLoop is the per-Connection read loop. Every touch of conn's
// ReadBuffer happens inside a closure posted to the actor, so the
// buffer is never read or written from two goroutines at once — only
// the *request* for a slice and the blocking net.Conn.Read syscall
// happen here.
func (s *Server) readLoop(conn *Connection) {
	for {
		growCh := make(chan readGrowResult, 1)
		if !s.actor.post(func() {
			if conn.closed.Load() {
				growCh <- readGrowResult{closed: true}
				return
			}
			if conn.readBuf.RemainingCapacity() == 0 {
				if !conn.readBuf.IncreaseCapacity() {
					s.closeLocked(conn, errors.Wrap(iobuf.ErrBufferExhausted, "read loop"))
					growCh <- readGrowResult{closed: true}
					return
				}
			}
			growCh <- readGrowResult{buf: conn.readBuf.WritableTail()}
		}) {
			return
		}
		grow := <-growCh
		if grow.closed {
			return
		}

		n, err := conn.conn.Read(grow.buf)

		keepGoing := make(chan bool, 1)
		if !s.actor.post(func() {
			if conn.closed.Load() {
				keepGoing <- false
				return
			}
			if err != nil || n == 0 {
				cause := ErrTransport
				if err == io.EOF || n == 0 {
					cause = ErrConnectionClosed
				}
				s.closeLocked(conn, cause)
				keepGoing <- false
				return
			}
			conn.readBuf.DidRead(n)
			s.runProcessingLoop(conn)
			// A pending upgrade means bytes from here on belong to
			// WebSocket framing, not another HTTP prelude: stop issuing
			// reads on this goroutine the moment handleUpgrade parks the
			// request, rather than waiting for AcceptWebSocket to install
			// conn's WebSocket slot. Without this, a delegate that defers
			// its AcceptWebSocket call (rather than calling it
			// synchronously from OnWebSocketRequest) would have this loop
			// read the client's first WebSocket frame and hand it to
			// HeaderParser as if it were a new request prelude.
			keepGoing <- !conn.closed.Load() && conn.pendingUpgrade == nil
		}) {
			return
		}
		if !<-keepGoing {
			return
		}
		if conn.WebSocket() != nil {
			// wsReadLoop has taken over the transport; this goroutine must
			// not issue another net.Conn.Read concurrently with it.
			return
		}
	}
}

// writeLoop is the per-Connection write loop, started by
// queueWriteLocked the first time data is queued.
func (s *Server) writeLoop(conn *Connection) {
	for {
		headCh := make(chan []byte, 1)
		if !s.actor.post(func() {
			// Gate on the transport, not on conn.closed: a Close that
			// landed while this queue still had bytes to flush (see
			// closeLocked) must not stop the loop here, or a response
			// queued just before Close would never reach the wire.
			if conn.transportClosed {
				headCh <- nil
				return
			}
			headCh <- conn.writeBuf.WritableHead()
		}) {
			return
		}
		head := <-headCh
		if len(head) == 0 {
			return
		}

		n, err := conn.conn.Write(head)

		more := make(chan bool, 1)
		if !s.actor.post(func() {
			if conn.transportClosed {
				more <- false
				return
			}
			if err != nil {
				// closeLocked no-ops if conn is already logically closed
				// (e.g. a deferred close left from an earlier response
				// still draining) and otherwise defers the actual
				// transport teardown whenever writeBuf still has bytes
				// queued. Neither case applies here: this write just
				// failed, so there is no further drain coming and the
				// transport must come down now regardless of which path
				// closeLocked took (or skipped).
				s.closeLocked(conn, errors.Wrap(ErrTransport, "write loop"))
				conn.close()
				more <- false
				return
			}
			conn.writeBuf.DidConsume(n)
			stillPending := conn.writeBuf.SizeToWrite() > 0
			if !stillPending {
				conn.writing = false
				if conn.deferredClose {
					conn.deferredClose = false
					conn.close()
				}
			}
			more <- stillPending
		}) {
			return
		}
		if !<-more {
			return
		}
	}
}

// wsReadLoop replaces readLoop once a Connection has switched
// protocols: WebSocket framing is owned entirely by wsframe.State, so
// bytes no longer flow through ReadBuffer at all.
func (s *Server) wsReadLoop(conn *Connection, ws *wsframe.State) {
	for {
		data, closed, err := ws.ReadMessage()

		done := make(chan struct{})
		if !s.actor.post(func() {
			defer close(done)
			if conn.closed.Load() {
				return
			}
			switch {
			case err != nil:
				s.closeLocked(conn, errors.Wrap(err, "websocket read"))
			case closed:
				s.closeLocked(conn, nil)
			default:
				s.actor.delegate.OnWebSocketMessage(conn.id, data)
			}
		}) {
			return
		}
		<-done
		if conn.closed.Load() {
			return
		}
	}
}

// runProcessingLoop runs entirely on the actor goroutine: drain
// complete requests out of conn.readBuf until it is empty, incomplete,
// or a hard failure closes the Connection.
func (s *Server) runProcessingLoop(conn *Connection) {
	for conn.readBuf.Size() > 0 {
		var req httpparse.RequestInfo
		ok, n := (httpparse.Parser{}).Parse(conn.readBuf.Readable(), &req)
		if !ok {
			s.closeLocked(conn, errors.Wrap(ErrHeaderParse, "processing loop"))
			return
		}
		if n == 0 {
			return
		}
		req.Peer = conn.peer

		if req.HasHeaderValue("connection", "upgrade") && req.HasHeaderValue("upgrade", "websocket") {
			s.handleUpgrade(conn, &req, n)
			return
		}

		if cl := req.GetHeaderValue("content-length"); cl != "" {
			length, err := strconv.Atoi(cl)
			switch {
			case err != nil || length < 0:
				s.sendLocked(conn, NewResponse(500, []byte("bad content-length"), "text/plain"))
				s.closeLocked(conn, errors.Wrap(ErrBadContentLength, "processing loop"))
				return
			case length > s.cfg.MaxBodyBytes:
				s.sendLocked(conn, NewResponse(500, []byte("request body exceeds limit"), "text/plain"))
				s.closeLocked(conn, errors.Wrap(ErrBodyTooLarge, "processing loop"))
				return
			}
			if conn.readBuf.Size() < n+length {
				return
			}
			conn.readBuf.DidConsume(n)
			req.Data = append([]byte(nil), conn.readBuf.Readable()[:length]...)
			conn.readBuf.DidConsume(length)
		} else {
			conn.readBuf.DidConsume(n)
		}

		s.actor.delegate.OnHTTPRequest(conn.id, &req)
		if conn.closed.Load() {
			return
		}
	}
}

// handleUpgrade parks the parsed request and any bytes already read
// past the prelude in conn.pendingUpgrade, then hands the request to
// the delegate. Installing pendingUpgrade here — not just inside
// AcceptWebSocket — is what takes this connection's subsequent bytes
// out of HeaderParser's hands immediately, before OnWebSocketRequest
// even runs: see readLoop's keepGoing check. The handshake response
// itself is deliberately NOT sent here: it is the delegate's job to
// call AcceptWebSocket (or not — e.g. to reject the upgrade with a 4xx
// and close) from within OnWebSocketRequest, synchronously or later.
func (s *Server) handleUpgrade(conn *Connection, req *httpparse.RequestInfo, preludeLen int) {
	conn.readBuf.DidConsume(preludeLen)
	leftover := append([]byte(nil), conn.readBuf.Readable()...)
	conn.readBuf.DidConsume(conn.readBuf.Size())
	conn.pendingUpgrade = &pendingUpgrade{req: req, leftover: leftover}

	s.actor.delegate.OnWebSocketRequest(conn.id, req)
}

// queueWriteLocked appends data to conn's WriteQueue and starts its
// write loop if one is not already running. Caller must already be
// running on the actor goroutine (inside a Delegate callback or inside
// runProcessingLoop), the same convention conn.go's hijackLocked uses.
func (s *Server) queueWriteLocked(conn *Connection, data []byte) {
	if conn.closed.Load() {
		return
	}
	if !conn.writeBuf.Append(data) {
		s.closeLocked(conn, errors.Wrap(iobuf.ErrWriteQueueFull, "send"))
		return
	}
	if !conn.writing {
		conn.writing = true
		go s.writeLoop(conn)
	}
}

func (s *Server) sendLocked(conn *Connection, resp *ResponseInfo) {
	s.queueWriteLocked(conn, resp.Serialize())
}

// closeLocked moves the Connection into the graveyard, notifies the
// delegate exactly once, and closes its transport — unless writeBuf
// still has bytes queued (e.g. the 500 a caller just queued via
// sendLocked moments earlier), in which case the transport is left
// open for the write loop to drain before tearing it down. This
// mirrors HttpServer::Close, which removes a connection from its
// registry and defers actual destruction rather than force-closing the
// socket underneath an in-flight response. Caller must already be on
// the actor goroutine.
func (s *Server) closeLocked(conn *Connection, cause error) {
	if conn.closed.Load() {
		return
	}
	conn.closed.Store(true)
	delete(s.actor.idToConnection, conn.id)
	s.actor.closedConnections = append(s.actor.closedConnections, conn)

	if cause != nil {
		s.logger.WithFields(logrus.Fields{
			"connection_id": conn.id,
			"err":           cause,
		}).Warn("server: closing connection")
	}
	if conn.writeBuf.SizeToWrite() > 0 {
		conn.deferredClose = true
	} else {
		conn.close()
	}
	s.actor.delegate.OnClose(conn.id)
}

func (s *Server) connection(id int) (*Connection, bool) {
	c, ok := s.actor.idToConnection[id]
	return c, ok
}

// SendRaw appends data to id's WriteQueue and starts its write loop if
// one is not already running. Must be called from within a Delegate
// callback. It is a no-op if id is unknown (already closed).
func (s *Server) SendRaw(id int, data []byte) {
	conn, ok := s.connection(id)
	if !ok {
		return
	}
	s.queueWriteLocked(conn, data)
}

// SendResponse serializes resp and sends it over id's connection.
func (s *Server) SendResponse(id int, resp *ResponseInfo) {
	conn, ok := s.connection(id)
	if !ok {
		return
	}
	s.sendLocked(conn, resp)
}

// Send emits a response with the given status, body and content type.
func (s *Server) Send(id int, status int, body []byte, contentType string) {
	s.SendResponse(id, NewResponse(status, body, contentType))
}

// Send200 is a convenience helper for 200 OK.
func (s *Server) Send200(id int, body []byte, contentType string) {
	s.Send(id, 200, body, contentType)
}

// Send404 is a convenience helper for 404 Not Found.
func (s *Server) Send404(id int) {
	s.Send(id, 404, []byte("not found"), "text/plain")
}

// Send500 is a convenience helper for 500 Internal Server Error,
// carrying message as the body.
func (s *Server) Send500(id int, message string) {
	s.Send(id, 500, []byte(message), "text/plain")
}

// CloseConnection terminates the Connection identified by id: it is a no-op if
// id is unknown. Must be called from within a Delegate callback.
func (s *Server) CloseConnection(id int) {
	conn, ok := s.connection(id)
	if !ok {
		return
	}
	s.closeLocked(conn, nil)
}

// AcceptWebSocket performs the handshake for a pending upgrade: it is a
// no-op if id is unknown or has no pending upgrade (OnWebSocketRequest
// was never called, or AcceptWebSocket was already called for it).
// extraHeaders are included verbatim in the 101 response.
func (s *Server) AcceptWebSocket(id int, extraHeaders map[string]string) {
	conn, ok := s.connection(id)
	if !ok || conn.pendingUpgrade == nil {
		return
	}
	pending := conn.pendingUpgrade
	conn.pendingUpgrade = nil

	ws, err := wsframe.Upgrade(conn.conn, pending.req, pending.leftover, extraHeaders)
	if err != nil {
		s.closeLocked(conn, errors.Wrap(err, "websocket upgrade"))
		return
	}
	conn.setWebSocket(ws)
	go s.wsReadLoop(conn, ws)
}

// SendOverWebSocket forwards data to id's WebSocket state. It is a
// no-op if id is unknown or has not upgraded.
func (s *Server) SendOverWebSocket(id int, data []byte) {
	conn, ok := s.connection(id)
	if !ok {
		return
	}
	ws := conn.WebSocket()
	if ws == nil {
		return
	}
	if err := ws.Send(data); err != nil {
		s.closeLocked(conn, errors.Wrap(err, "websocket send"))
	}
}

// SetReceiveBufferSize overrides id's ReadBuffer max size.
func (s *Server) SetReceiveBufferSize(id int, max int) {
	conn, ok := s.connection(id)
	if !ok {
		return
	}
	conn.readBuf.SetMaxSize(max)
}

// SetSendBufferSize overrides id's WriteQueue max size.
func (s *Server) SetSendBufferSize(id int, max int) {
	conn, ok := s.connection(id)
	if !ok {
		return
	}
	conn.writeBuf.SetMaxSize(max)
}
