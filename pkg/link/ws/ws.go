// SPDX-FileCopyrightText: 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ws provides Links over WebSockets. Each frame is exactly one binary WebSocket message.
package ws

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/link"
)

const writeTimeout = 10 * time.Second

// Link is a WebSocket connection carrying frames.
type Link struct {
	conn *websocket.Conn

	writeMutex sync.Mutex

	closeOnce sync.Once
	closeErr  error
	closedSyn chan struct{}
}

// Dial a WebSocket Link, e.g., to "ws://localhost:8080/rtp".
func Dial(url string) (*Link, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return NewLink(conn), nil
}

// NewLink wraps an established WebSocket connection.
func NewLink(conn *websocket.Conn) *Link {
	return &Link{
		conn:      conn,
		closedSyn: make(chan struct{}),
	}
}

func (l *Link) closed() bool {
	select {
	case <-l.closedSyn:
		return true
	default:
		return false
	}
}

func (l *Link) Send(frame []byte) (int, error) {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	if l.closed() {
		return 0, link.ErrClosed
	}

	if err := l.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return 0, err
	}

	if err := l.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		if l.closed() {
			return 0, link.ErrClosed
		}
		return 0, err
	}
	return len(frame), nil
}

func (l *Link) Receive() ([]byte, error) {
	for {
		msgType, data, err := l.conn.ReadMessage()
		if err != nil {
			if l.closed() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil, link.ErrClosed
			}
			return nil, err
		}

		if msgType != websocket.BinaryMessage {
			log.WithFields(log.Fields{
				"link": l,
				"type": msgType,
			}).Warn("Ignoring non-binary WebSocket message")
			continue
		}

		return data, nil
	}
}

func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.closedSyn)

		l.writeMutex.Lock()
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		l.writeMutex.Unlock()

		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

func (l *Link) String() string {
	return fmt.Sprintf("ws://%v", l.conn.RemoteAddr())
}

// Listener accepts WebSocket Links as a http.Handler. It must be mounted on a http.Server.
type Listener struct {
	upgrader websocket.Upgrader

	links     chan link.Link
	closeOnce sync.Once
	closedSyn chan struct{}
}

// NewListener creates a Listener, ready to be mounted.
func NewListener() *Listener {
	return &Listener{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		links:     make(chan link.Link),
		closedSyn: make(chan struct{}),
	}
}

// ServeHTTP upgrades a HTTP connection to a WebSocket Link, handed over to Accept.
func (ln *Listener) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	select {
	case <-ln.closedSyn:
		http.Error(writer, "listener closed", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := ln.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		log.WithField("listener", ln).WithError(err).Warn("Upgrading connection errored")
		return
	}

	l := NewLink(conn)
	select {
	case ln.links <- l:
		log.WithFields(log.Fields{
			"listener": ln,
			"peer":     conn.RemoteAddr(),
		}).Debug("Accepted WebSocket link")

	case <-ln.closedSyn:
		_ = l.Close()
	}
}

func (ln *Listener) Accept() (link.Link, error) {
	select {
	case l := <-ln.links:
		return l, nil
	case <-ln.closedSyn:
		return nil, link.ErrClosed
	}
}

func (ln *Listener) Close() error {
	ln.closeOnce.Do(func() { close(ln.closedSyn) })
	return nil
}

func (ln *Listener) String() string {
	return "ws://listener"
}
