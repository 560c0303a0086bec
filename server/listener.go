/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package server

import (
	"net"
	"time"
)

// tcpKeepAliveListener wraps a *net.TCPListener so every accepted
// connection has TCP keep-alives enabled, the way a long-lived server
// socket needs them to notice a dead peer that never sends a FIN.
type tcpKeepAliveListener struct {
	*net.TCPListener
	period time.Duration
}

func (l tcpKeepAliveListener) Accept() (net.Conn, error) {
	conn, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	conn.SetKeepAlive(true)
	conn.SetKeepAlivePeriod(l.period)
	return conn, nil
}

// Listen opens a TCP listener on addr with keep-alives enabled.
func Listen(addr string, keepAlivePeriod time.Duration) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if keepAlivePeriod <= 0 {
		keepAlivePeriod = 3 * time.Minute
	}
	return tcpKeepAliveListener{TCPListener: ln.(*net.TCPListener), period: keepAlivePeriod}, nil
}
