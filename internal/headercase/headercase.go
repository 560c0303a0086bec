/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package headercase canonicalizes HTTP header field names the way
// net/http does ("Content-Type", not "content-type" or "CONTENT-TYPE").
// This server stores header keys lower-cased internally (httpparse) and
// only needs canonical casing when rendering a response on the wire.
package headercase

const toLower = 'a' - 'A'

// isTokenTable is a copy of net/http/lex.go's isTokenTable.
// See https://httpwg.github.io/specs/rfc7230.html#rule.token.separators
var isTokenTable = [127]bool{
	'0': true, '1': true, '2': true, '3': true, '4': true, '5': true, '6': true, '7': true,
	'8': true, '9': true,

	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true, 'h': true,
	'i': true, 'j': true, 'k': true, 'l': true, 'm': true, 'n': true, 'o': true, 'p': true,
	'q': true, 'r': true, 's': true, 't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,

	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true, 'H': true,
	'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true, 'O': true, 'P': true,
	'Q': true, 'R': true, 'S': true, 'T': true, 'U': true, 'V': true, 'W': true, 'X': true,
	'Y': true, 'Z': true,

	'!':  true,
	'#':  true,
	'$':  true,
	'%':  true,
	'&':  true,
	'\'': true,
	'*':  true,
	'+':  true,
	'-':  true,
	'.':  true,
	'^':  true,
	'_':  true,
	'`':  true,
	'|':  true,
	'~':  true,
}

// commonHeader interns the canonical spelling of header names this
// server actually sends, avoiding an allocation on the hot path.
var commonHeader = map[string]string{}

func init() {
	for _, v := range []string{
		"Connection",
		"Content-Length",
		"Content-Type",
		"Date",
		"Location",
		"Sec-Websocket-Accept",
		"Server",
		"Set-Cookie",
		"Upgrade",
	} {
		commonHeader[v] = v
	}
}

func validHeaderFieldByte(b byte) bool {
	return int(b) < len(isTokenTable) && isTokenTable[b]
}

// Canonical returns s in net/http's canonical header form: first letter
// and each letter following a hyphen is upper-cased, everything else
// lower-cased. Inputs containing a non-token byte are returned
// unchanged, matching net/http's CanonicalHeaderKey behavior for
// malformed keys.
func Canonical(s string) string {
	a := []byte(s)
	for _, c := range a {
		if !validHeaderFieldByte(c) {
			return s
		}
	}

	upper := true
	for i, c := range a {
		if upper && 'a' <= c && c <= 'z' {
			c -= toLower
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += toLower
		}
		a[i] = c
		upper = c == '-'
	}
	out := string(a)
	if v := commonHeader[out]; v != "" {
		return v
	}
	return out
}
