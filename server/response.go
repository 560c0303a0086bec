package server

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	"github.com/packetforge/evhttpd/internal/headercase"
)

// ResponseInfo is the delegate-facing response helper a Delegate builds
// to answer an HTTP request. Headers are rendered in canonical casing
// and stable (sorted) order; chunked transfer-encoding and trailers are
// not supported since this server never produces either.
type ResponseInfo struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Serialize renders the status line, headers and body in HTTP/1.1 wire
// format.
func (r *ResponseInfo) Serialize() []byte {
	var buf bytes.Buffer

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))

	canonical := make(map[string]string, len(r.Headers))
	keys := make([]string, 0, len(r.Headers))
	for k, v := range r.Headers {
		ck := headercase.Canonical(k)
		canonical[ck] = v
		keys = append(keys, ck)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, canonical[k])
	}
	buf.WriteString("\r\n")
	buf.Write(r.Body)
	return buf.Bytes()
}

// NewResponse builds a ResponseInfo with Content-Length and Content-Type
// set.
func NewResponse(status int, body []byte, contentType string) *ResponseInfo {
	return &ResponseInfo{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Length": fmt.Sprintf("%d", len(body)),
			"Content-Type":   contentType,
		},
		Body: body,
	}
}
