// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// sender drains the outbound queue, transmitting one message at a time until the Conn dies.
func (c *Conn) sender() {
	defer c.engines.Done()

	for {
		msg, ok := c.outbound.pop()
		if !ok {
			c.logger.Debug("Sender stops")
			return
		}

		if err := c.transmit(msg); err != nil {
			// The message stays unacknowledged, Flush reports the dead Conn.
			c.kill(err)
			c.logger.Debug("Sender stops")
			return
		}

		count(&c.stats.MessagesSent, 1)
		count(&c.stats.BytesSent, len(msg))
		c.messageDone()
	}
}

// transmit a message's packets stop-and-wait. A NACKed packet is sent again, unaltered.
func (c *Conn) transmit(msg []byte) error {
	packets := c.codec.Packetize(msg)

	for i, attempt := 0, 0; i < len(packets); {
		c.ack.reset()

		if err := c.writePacket(packets[i]); err != nil {
			return fmt.Errorf("sending %v failed: %w", packets[i], err)
		}
		if attempt > 0 {
			count(&c.stats.PacketsResent, 1)
		}

		outcome, err := c.ack.await(c.ackTimeout)
		if err != nil {
			return err
		}

		switch outcome {
		case Ack:
			count(&c.stats.AcksReceived, 1)
			i, attempt = i+1, 0

		case Nack:
			count(&c.stats.NacksReceived, 1)
			attempt++

			c.logger.WithFields(log.Fields{
				"packet":  packets[i],
				"index":   i,
				"attempt": attempt,
			}).Debug("Packet was rejected, retransmitting")
		}
	}

	c.logger.WithFields(log.Fields{
		"length":  len(msg),
		"packets": len(packets),
	}).Debug("Message was acknowledged")

	return nil
}
