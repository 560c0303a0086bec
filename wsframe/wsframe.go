// Package wsframe adapts gorilla/websocket to the raw, already-buffered
// transport a Connection hands off once an HTTP/1.1 request asks to
// upgrade. WebSocket framing is treated as an externally-owned concern
// elsewhere in this module; State below is the concrete implementation
// that satisfies that boundary.
package wsframe

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/packetforge/evhttpd/internal/httpparse"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 << 10,
	WriteBufferSize: 4 << 10,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// State wraps the *websocket.Conn installed on a Connection once it has
// switched protocols. It is a one-shot slot: one per Connection, owned
// exclusively by that Connection for its remaining lifetime.
type State struct {
	conn *websocket.Conn
}

// hijackAdapter lets gorilla's http.Hijacker-based Upgrader run
// directly against a raw net.Conn plus whatever bytes a ReadBuffer has
// already buffered past the request prelude — the same trick
// conn.go's hijackLocked uses to hand a bufio.ReadWriter back over an
// already-buffered connection.
type hijackAdapter struct {
	header   http.Header
	netConn  net.Conn
	leftover []byte
}

func (h *hijackAdapter) Header() http.Header         { return h.header }
func (h *hijackAdapter) Write(p []byte) (int, error) { return len(p), nil }
func (h *hijackAdapter) WriteHeader(int)             {}

func (h *hijackAdapter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	var r *bufio.Reader
	if len(h.leftover) > 0 {
		r = bufio.NewReader(io.MultiReader(bytes.NewReader(h.leftover), h.netConn))
	} else {
		r = bufio.NewReader(h.netConn)
	}
	w := bufio.NewWriter(h.netConn)
	return h.netConn, bufio.NewReadWriter(r, w), nil
}

// Upgrade drives the WebSocket handshake over netConn using the request
// already parsed by httpparse.Parser into req, plus any bytes of the
// Connection's ReadBuffer left over past the prelude.
func Upgrade(netConn net.Conn, req *httpparse.RequestInfo, unconsumedAfterPrelude []byte, extraHeaders map[string]string) (*State, error) {
	hdr := make(http.Header, len(req.Headers))
	for k, v := range req.Headers {
		hdr.Set(k, v)
	}
	httpReq := &http.Request{
		Method:     req.Method,
		URL:        &url.URL{Path: req.Path},
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     hdr,
		Host:       hdr.Get("Host"),
	}

	responseHeader := make(http.Header, len(extraHeaders))
	for k, v := range extraHeaders {
		responseHeader.Set(k, v)
	}

	adapter := &hijackAdapter{header: make(http.Header), netConn: netConn, leftover: unconsumedAfterPrelude}
	conn, err := upgrader.Upgrade(adapter, httpReq, responseHeader)
	if err != nil {
		return nil, err
	}
	return &State{conn: conn}, nil
}

// ReadMessage blocks for the next complete WebSocket message, the way
// a Connection's read loop blocks on a transport read. Ping/pong
// control frames are answered automatically by gorilla's default
// handlers before ReadMessage ever returns for them, so they never
// reach a Delegate.
func (s *State) ReadMessage() (data []byte, closed bool, err error) {
	_, data, err = s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return data, false, nil
}

// Send writes one text message, the realization of
// Server.SendOverWebSocket.
func (s *State) Send(data []byte) error {
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying WebSocket connection.
func (s *State) Close() error {
	return s.conn.Close()
}
