// SPDX-FileCopyrightText: 2019 Markus Sommer
// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tcp provides Links over TCP. Each frame is written as a CBOR byte string.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/link"
)

const (
	dialTimeout  = time.Second
	writeTimeout = 10 * time.Second
)

// Link is a TCP connection carrying frames.
type Link struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMutex sync.Mutex
	writer     *bufio.Writer

	closeOnce sync.Once
	closeErr  error
	closedSyn chan struct{}
}

// Dial a TCP Link to a "host:port" address.
func Dial(address string) (*Link, error) {
	conn, err := dial(address)
	if err != nil {
		return nil, err
	}
	return NewLink(conn), nil
}

// NewLink wraps an established connection.
func NewLink(conn net.Conn) *Link {
	return &Link{
		conn:      conn,
		reader:    bufio.NewReader(conn),
		writer:    bufio.NewWriter(conn),
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

	if err := link.WriteFrame(frame, l.writer); err != nil {
		if l.closed() {
			return 0, link.ErrClosed
		}
		return 0, err
	}
	return len(frame), nil
}

func (l *Link) Receive() ([]byte, error) {
	frame, err := link.ReadFrame(l.reader)
	if err != nil && l.closed() {
		return nil, link.ErrClosed
	}
	return frame, err
}

func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.closedSyn)
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

func (l *Link) String() string {
	return fmt.Sprintf("tcp://%v", l.conn.RemoteAddr())
}

// Listener accepts TCP Links.
type Listener struct {
	listener net.Listener
}

// Listen for TCP Links on a "host:port" address.
func Listen(address string) (*Listener, error) {
	ln, err := listenConfig().Listen(context.Background(), "tcp", address)
	if err != nil {
		return nil, err
	}

	log.WithField("address", ln.Addr()).Debug("Listening for TCP links")
	return &Listener{listener: ln}, nil
}

// Addr is the listening address, which is useful for an ephemeral port.
func (ln *Listener) Addr() net.Addr {
	return ln.listener.Addr()
}

func (ln *Listener) Accept() (link.Link, error) {
	conn, err := ln.listener.Accept()
	if errors.Is(err, net.ErrClosed) {
		return nil, link.ErrClosed
	} else if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"listener": ln,
		"peer":     conn.RemoteAddr(),
	}).Debug("Accepted TCP link")

	return NewLink(conn), nil
}

func (ln *Listener) Close() error {
	return ln.listener.Close()
}

func (ln *Listener) String() string {
	return fmt.Sprintf("tcp://%v", ln.listener.Addr())
}
