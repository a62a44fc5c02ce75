// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package link defines the packet transport below an RTP connection.
//
// A Link moves whole frames between two endpoints. It may corrupt a frame's content, but it must
// neither reorder, duplicate, nor silently merge frames. The subpackages provide Links over TCP,
// WebSockets, QUIC, a LoRa rf95modem, and an in-memory pair for testing.
package link

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by a Link or Listener which was closed, locally or by its peer.
var ErrClosed = errors.New("link closed")

// Link is a connection-oriented frame transport.
type Link interface {
	// Send transmits one frame and returns the number of bytes sent. A failed Link reports n <= 0
	// or an error. Send might block.
	Send(frame []byte) (n int, err error)

	// Receive waits for the next frame. This method blocks.
	Receive() ([]byte, error)

	// Close disconnects and releases this Link. A blocking Receive must be interrupted.
	Close() error

	fmt.Stringer
}

// Listener accepts incoming Links.
type Listener interface {
	// Accept waits for the next incoming Link. After Close, ErrClosed is returned.
	Accept() (Link, error)

	// Close stops listening. Already accepted Links are not affected.
	Close() error

	fmt.Stringer
}
