package server

import "github.com/packetforge/evhttpd/internal/httpparse"

// Delegate receives every notification a Server produces. All methods
// are invoked on the Server's single event-loop goroutine; a Delegate
// implementation may call back into Send*/Close re-entrantly from
// within any of them.
type Delegate interface {
	OnConnect(id int)
	OnHTTPRequest(id int, req *httpparse.RequestInfo)
	OnWebSocketRequest(id int, req *httpparse.RequestInfo)
	OnWebSocketMessage(id int, message []byte)
	OnClose(id int)
}
