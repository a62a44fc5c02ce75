// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/dtn7/rtp-go/pkg/link"
	"github.com/dtn7/rtp-go/pkg/link/quic"
	"github.com/dtn7/rtp-go/pkg/link/rf95"
	"github.com/dtn7/rtp-go/pkg/link/tcp"
	"github.com/dtn7/rtp-go/pkg/link/ws"
)

// Connect to an RTP peer at host and port over TCP.
func Connect(host string, port int, opts ...Option) (*Conn, error) {
	l, err := tcp.Dial(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return newConnOrClose(l, opts)
}

// Dial an RTP peer identified by an URI. The scheme selects the Link:
//
//	tcp://host:port
//	ws://host:port/path, wss://host:port/path
//	quic://host:port
//	rf95:///dev/ttyUSB0
func Dial(uri string, opts ...Option) (*Conn, error) {
	l, err := DialLink(uri)
	if err != nil {
		return nil, err
	}
	return newConnOrClose(l, opts)
}

// DialLink establishes only the Link for an URI as described for Dial.
func DialLink(uri string) (link.Link, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "tcp":
		return tcp.Dial(u.Host)
	case "ws", "wss":
		return ws.Dial(uri)
	case "quic":
		return quic.Dial(u.Host)
	case "rf95":
		return rf95.Open(u.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
	}
}

func newConnOrClose(l link.Link, opts []Option) (*Conn, error) {
	c, err := NewConn(l, opts...)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	return c, nil
}
