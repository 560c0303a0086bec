/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package httpparse

import "strings"

// Parser states. Mirrors the original test-driver parser's enum order;
// kept unexported since nothing outside this package inspects state.
type state int

const (
	stMethod state = iota
	stURL
	stProto
	stHeader
	stName
	stSeparator
	stValue
	stDone
	stErr
	numStates
)

// Input classes.
type input int

const (
	inLWS input = iota
	inCR
	inLF
	inColon
	inDefault
	numInputs
)

// transitions is the fixed 9x5 DFA table for the request-prelude
// scanner. A bare LF may end the request line or a header line, but the
// blank line that ends the prelude must be CRLF (see DESIGN.md's Open
// Question decisions).
var transitions = [numStates][numInputs]state{
	stMethod:    {stURL, stErr, stErr, stErr, stMethod},
	stURL:       {stProto, stErr, stErr, stURL, stURL},
	stProto:     {stErr, stHeader, stName, stErr, stProto},
	stHeader:    {stErr, stErr, stName, stErr, stErr},
	stName:      {stSeparator, stDone, stErr, stValue, stName},
	stSeparator: {stSeparator, stErr, stErr, stValue, stErr},
	stValue:     {stValue, stHeader, stName, stValue, stValue},
	stDone:      {stErr, stErr, stDone, stErr, stErr},
	stErr:       {stErr, stErr, stErr, stErr, stErr},
}

func classify(ch byte) input {
	switch ch {
	case ' ', '\t':
		return inLWS
	case '\r':
		return inCR
	case '\n':
		return inLF
	case ':':
		return inColon
	}
	return inDefault
}

// accumulates reports whether the parser appends bytes to the running
// token while sitting in state s.
func accumulates(s state) bool {
	switch s {
	case stMethod, stURL, stProto, stName, stValue:
		return true
	}
	return false
}

// protoToken is the only protocol string the parser accepts.
const protoToken = "HTTP/1.1"

// Parser is a table-driven DFA that parses an HTTP/1.1 request prelude:
// request-line, headers, and the blank-line terminator.
type Parser struct{}

// Parse consumes as much of data as forms a complete request prelude.
//
//   - ok == false: hard failure (null byte, malformed protocol token, or
//     the DFA reached its error state). req is left partially populated
//     and must be discarded by the caller.
//   - ok == true, consumed == 0: incomplete; feed more bytes and call
//     Parse again with the same accumulated data.
//   - ok == true, consumed > 0: a complete prelude; req.Data is
//     unrelated to the body — the caller is responsible for slicing the
//     body starting at consumed.
func (Parser) Parse(data []byte, req *RequestInfo) (ok bool, consumed int) {
	st := stMethod
	var token []byte
	var headerName string

	pos := 0
	for pos < len(data) {
		ch := data[pos]
		if ch == 0 {
			return false, 0
		}
		pos++

		in := classify(ch)
		next := transitions[st][in]

		if next != st {
			switch st {
			case stMethod:
				req.Method = string(token)
			case stURL:
				req.Path = string(token)
			case stProto:
				if string(token) != protoToken {
					next = stErr
				}
			case stName:
				headerName = strings.ToLower(string(token))
			case stValue:
				storeHeaderValue(req, headerName, trimLeadingASCIISpace(string(token)))
			}
			token = token[:0]
			st = next
			if st == stErr {
				return false, 0
			}
			continue
		}

		if accumulates(st) {
			token = append(token, ch)
			continue
		}
		if st == stDone {
			// The byte immediately following entry into stDone (always via
			// a CR from stName) decides success: only LF completes the
			// prelude, matching it being the sole self-loop input on the
			// stDone row.
			return in == inLF, pos
		}
	}

	// Ran off the end of data without reaching stDone or stErr: the
	// caller must supply more bytes.
	return true, 0
}

func storeHeaderValue(req *RequestInfo, name, value string) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	if existing, ok := req.Headers[name]; ok {
		req.Headers[name] = existing + "," + value
	} else {
		req.Headers[name] = value
	}
}

func trimLeadingASCIISpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[i:]
}
