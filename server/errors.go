package server

import "github.com/pkg/errors"

// Sentinel errors. Every one of these closes the Connection it applies
// to and surfaces only via Delegate.OnClose; BadContentLength/
// BodyTooLarge additionally emit a 500 response first.
var (
	ErrConnectionClosed = errors.New("server: connection closed by peer")
	ErrTransport        = errors.New("server: transport error")
	ErrHeaderParse      = errors.New("server: malformed request prelude")
	ErrBodyTooLarge     = errors.New("server: request body exceeds limit")
	ErrBadContentLength = errors.New("server: unparsable content-length")
)
