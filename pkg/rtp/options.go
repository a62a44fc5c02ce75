// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type config struct {
	codec      Codec
	ackTimeout time.Duration
	logger     *log.Entry
}

// Option configures a Conn.
type Option func(*config)

// WithMaxPayload sets the packets' payload capacity. Both peers must use the same value.
func WithMaxPayload(n int) Option {
	return func(c *config) {
		c.codec.MaxPayload = n
	}
}

// WithChecksum selects the packets' checksum algorithm. Both peers must use the same one.
func WithChecksum(kind ChecksumKind) Option {
	return func(c *config) {
		c.codec.Checksum = kind
	}
}

// WithAckTimeout limits the time to wait for an answer to a sent packet. When it expires, the Conn
// is considered dead. The default of zero waits forever.
func WithAckTimeout(d time.Duration) Option {
	return func(c *config) {
		c.ackTimeout = d
	}
}

// WithLogger sets the logger for a Conn's messages.
func WithLogger(logger *log.Entry) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) (c config, err error) {
	c.codec = Codec{MaxPayload: DefaultMaxPayload, Checksum: ChecksumSum}
	for _, opt := range opts {
		opt(&c)
	}

	switch {
	case c.codec.MaxPayload < 1 || c.codec.MaxPayload > MaxPayloadLimit:
		err = fmt.Errorf("max payload %d is not within [1, %d]", c.codec.MaxPayload, MaxPayloadLimit)
	case c.codec.Checksum > ChecksumCRC32:
		err = fmt.Errorf("unknown checksum kind %d", c.codec.Checksum)
	case c.ackTimeout < 0:
		err = fmt.Errorf("negative ack timeout %v", c.ackTimeout)
	}
	return
}
