/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package httpparse implements the fingerprint of an HTTP/1.1 request and
// the table-driven state machine that parses one off the wire.
package httpparse

import "net"

// RequestInfo is the parsed fingerprint of one HTTP/1.1 request: method,
// path, peer address, headers (lower-cased field name -> comma-joined
// value per RFC 7230 §3.2.2) and body.
type RequestInfo struct {
	Method  string
	Path    string
	Peer    net.Addr
	Headers map[string]string
	Data    []byte
}

// HasHeaderValue reports whether the comma-split, case-insensitively
// compared values of the named header include val — the lookup the
// WebSocket upgrade check uses for "connection: upgrade" /
// "upgrade: websocket".
func (r *RequestInfo) HasHeaderValue(name, val string) bool {
	if r.Headers == nil {
		return false
	}
	raw, ok := r.Headers[name]
	if !ok {
		return false
	}
	for _, part := range splitComma(raw) {
		if equalFoldTrim(part, val) {
			return true
		}
	}
	return false
}

// GetHeaderValue returns the raw comma-joined value for name, or "".
func (r *RequestInfo) GetHeaderValue(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[name]
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func equalFoldTrim(a, b string) bool {
	a = trimSpace(a)
	return len(a) == len(b) && foldEqual(a, b)
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && isSpaceByte(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' }

func foldEqual(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
