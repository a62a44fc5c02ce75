// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import "errors"

var (
	// ErrClosed is returned by operations on a dead Conn. Errors from a Conn killed by its peer or
	// a failing Link wrap ErrClosed.
	ErrClosed = errors.New("connection closed")

	// ErrPeerTerminated is the cause of a Conn closed by a TERM packet.
	ErrPeerTerminated = errors.New("peer terminated the connection")

	// ErrEmptyMessage is returned when sending a zero-length message.
	ErrEmptyMessage = errors.New("empty message")

	// ErrAckTimeout is the cause of a Conn whose peer did not answer a packet in time.
	ErrAckTimeout = errors.New("acknowledgement timed out")

	// ErrMalformedPacket is returned when a frame cannot be parsed as a Packet.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrUnknownScheme is returned by Dial for an unsupported URI scheme.
	ErrUnknownScheme = errors.New("unknown URI scheme")
)

// closedError is ErrClosed with the reason of the connection's death.
type closedError struct {
	cause error
}

func (err *closedError) Error() string {
	return ErrClosed.Error() + ": " + err.cause.Error()
}

func (err *closedError) Is(target error) bool {
	return target == ErrClosed
}

func (err *closedError) Unwrap() error {
	return err.cause
}
