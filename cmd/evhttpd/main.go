// Command evhttpd runs a standalone event-driven HTTP/1.1 + WebSocket
// server: an echo handler for plain requests, and an echo-back relay
// for any connection that upgrades to WebSocket.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/packetforge/evhttpd/config"
	"github.com/packetforge/evhttpd/internal/httpparse"
	"github.com/packetforge/evhttpd/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	configPath := flag.String("config", "", "optional YAML config file overriding buffer/body limits")
	flag.Parse()

	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := server.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("evhttpd: loading config")
		}
		cfg = loaded
	}

	listener, err := server.Listen(*addr, 3*time.Minute)
	if err != nil {
		logger.WithError(err).Fatal("evhttpd: listen")
	}

	delegate := &echoDelegate{logger: logger}
	srv := server.New(listener, delegate, server.WithConfig(cfg), server.WithLogger(logger))
	delegate.server = srv

	logger.WithField("addr", *addr).Info("evhttpd: listening")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("evhttpd: shutting down")
	if err := srv.Close(); err != nil {
		logger.WithError(err).Warn("evhttpd: close")
	}
}

// echoDelegate answers every plain HTTP request with a small status
// page, and accepts every WebSocket upgrade request, echoing back
// whatever message it receives.
type echoDelegate struct {
	server *server.Server
	logger logrus.FieldLogger
}

func (d *echoDelegate) OnConnect(id int) {
	d.logger.WithField("conn", id).Debug("evhttpd: connection opened")
}

func (d *echoDelegate) OnHTTPRequest(id int, req *httpparse.RequestInfo) {
	body := fmt.Sprintf("%s %s -> hello from evhttpd\n", req.Method, req.Path)
	d.server.Send200(id, []byte(body), "text/plain; charset=utf-8")
}

func (d *echoDelegate) OnWebSocketRequest(id int, req *httpparse.RequestInfo) {
	d.logger.WithFields(logrus.Fields{"conn": id, "path": req.Path}).Info("evhttpd: websocket upgrade requested")
	d.server.AcceptWebSocket(id, nil)
}

func (d *echoDelegate) OnWebSocketMessage(id int, message []byte) {
	d.server.SendOverWebSocket(id, message)
}

func (d *echoDelegate) OnClose(id int) {
	d.logger.WithField("conn", id).Debug("evhttpd: connection closed")
}
