// SPDX-FileCopyrightText: 2022 Markus Sommer
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package quic provides Links over QUIC.
//
// Each Link uses one bidirectional stream of its own QUIC connection. Frames are written as CBOR
// byte strings. The dialer opens the stream with an empty frame, which makes it visible to the
// listener.
package quic

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/quic-go/quic-go"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/link"
)

// Link is a QUIC stream carrying frames.
type Link struct {
	connection quic.Connection
	stream     quic.Stream
	reader     *bufio.Reader

	writeMutex sync.Mutex
	writer     *bufio.Writer

	closeOnce sync.Once
	closeErr  error
	closedSyn chan struct{}
}

func newLink(connection quic.Connection, stream quic.Stream) *Link {
	return &Link{
		connection: connection,
		stream:     stream,
		reader:     bufio.NewReader(stream),
		writer:     bufio.NewWriter(stream),
		closedSyn:  make(chan struct{}),
	}
}

// Dial a QUIC Link to a "host:port" address.
func Dial(address string) (*Link, error) {
	connection, err := quic.DialAddr(context.Background(), address, dialerTLSConfig(), quicConfig())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()

	stream, err := connection.OpenStreamSync(ctx)
	if err != nil {
		_ = connection.CloseWithError(applicationShutdown, "opening stream failed")
		return nil, err
	}

	l := newLink(connection, stream)
	if err := link.WriteFrame(nil, l.writer); err != nil {
		_ = l.Close()
		return nil, err
	}

	log.WithField("link", l).Debug("Dialed QUIC link")
	return l, nil
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
	if err != nil {
		var appErr *quic.ApplicationError
		if l.closed() || (errors.As(err, &appErr) && appErr.ErrorCode == applicationShutdown) {
			return nil, link.ErrClosed
		}
	}
	return frame, err
}

func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.closedSyn)
		l.closeErr = l.connection.CloseWithError(applicationShutdown, "link closed")
	})
	return l.closeErr
}

func (l *Link) String() string {
	return fmt.Sprintf("quic://%v", l.connection.RemoteAddr())
}

// Listener accepts QUIC Links.
type Listener struct {
	listener *quic.Listener

	links     chan link.Link
	closeOnce sync.Once
	closedSyn chan struct{}
}

// Listen for QUIC Links on a "host:port" address. A self-signed certificate is generated.
func Listen(address string) (*Listener, error) {
	tlsConfig, err := listenerTLSConfig()
	if err != nil {
		return nil, err
	}

	lst, err := quic.ListenAddr(address, tlsConfig, quicConfig())
	if err != nil {
		return nil, err
	}

	ln := &Listener{
		listener:  lst,
		links:     make(chan link.Link),
		closedSyn: make(chan struct{}),
	}
	go ln.handle()

	log.WithField("address", lst.Addr()).Debug("Listening for QUIC links")
	return ln, nil
}

func (ln *Listener) handle() {
	for {
		connection, err := ln.listener.Accept(context.Background())
		if err != nil {
			select {
			case <-ln.closedSyn:
			default:
				log.WithField("listener", ln).WithError(err).Warn("Accepting QUIC connection failed")
				_ = ln.Close()
			}
			return
		}

		go ln.acceptStream(connection)
	}
}

// acceptStream waits for the dialer's stream and hands the new Link over to Accept.
func (ln *Listener) acceptStream(connection quic.Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()

	stream, err := connection.AcceptStream(ctx)
	if err != nil {
		log.WithFields(log.Fields{
			"listener": ln,
			"peer":     connection.RemoteAddr(),
		}).WithError(err).Info("Peer did not open a stream")

		_ = connection.CloseWithError(applicationShutdown, "no stream")
		return
	}

	l := newLink(connection, stream)
	select {
	case ln.links <- l:
		log.WithFields(log.Fields{
			"listener": ln,
			"peer":     connection.RemoteAddr(),
		}).Debug("Accepted QUIC link")

	case <-ln.closedSyn:
		_ = l.Close()
	}
}

// Addr is the listening address, which is useful for an ephemeral port.
func (ln *Listener) Addr() string {
	return ln.listener.Addr().String()
}

func (ln *Listener) Accept() (link.Link, error) {
	select {
	case l := <-ln.links:
		return l, nil
	case <-ln.closedSyn:
		return nil, link.ErrClosed
	}
}

func (ln *Listener) Close() (err error) {
	ln.closeOnce.Do(func() {
		close(ln.closedSyn)
		err = ln.listener.Close()
	})
	return
}

func (ln *Listener) String() string {
	return fmt.Sprintf("quic://%v", ln.listener.Addr())
}
