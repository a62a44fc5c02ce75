// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/link"
)

// receiver reads packets from the Link until the Conn dies. It answers data packets, hands ACKs and
// NACKs over to the sender, and assembles incoming messages.
func (c *Conn) receiver() {
	defer c.engines.Done()

	var assembly []byte

	for {
		frame, err := c.link.Receive()
		if err != nil {
			if !errors.Is(err, link.ErrClosed) {
				err = fmt.Errorf("receiving failed: %w", err)
			} else if c.Alive() {
				err = fmt.Errorf("link was closed: %w", err)
			}
			c.kill(err)
			c.logger.Debug("Receiver stops")
			return
		}

		count(&c.stats.PacketsReceived, 1)

		p, err := c.codec.Unmarshal(frame)
		if err != nil {
			count(&c.stats.PacketsMalformed, 1)

			// Only a readable data type is answered; nothing was appended, so its resend is safe.
			if len(frame) == 0 || !PacketType(frame[0]).IsData() {
				c.logger.WithError(err).Warn("Dropping malformed packet")
				continue
			}

			c.logger.WithError(err).Warn("Malformed data packet, sending NACK")
			if err := c.answer(Nack); err != nil {
				c.kill(err)
				return
			}
			continue
		}

		switch p.Type {
		case Term:
			c.kill(ErrPeerTerminated)
			c.logger.Debug("Receiver stops")
			return

		case Ack, Nack:
			c.ack.post(p.Type)

		case Data, LastData:
			if !c.codec.Verify(p) {
				c.logger.WithField("packet", p).Debug("Checksum mismatch, sending NACK")

				if err := c.answer(Nack); err != nil {
					c.kill(err)
					return
				}
				continue
			}

			assembly = append(assembly, p.Payload...)

			// The final ACK is sent after delivery. Thus, an acknowledged message is always queued.
			if p.Type == LastData {
				c.deliver(assembly)
				assembly = nil
			}

			if err := c.answer(Ack); err != nil {
				c.kill(err)
				return
			}
		}
	}
}

// answer a data packet with an Ack or Nack.
func (c *Conn) answer(t PacketType) error {
	if err := c.writePacket(c.codec.Control(t)); err != nil {
		return fmt.Errorf("sending %v failed: %w", t, err)
	}

	if t == Ack {
		count(&c.stats.AcksSent, 1)
	} else {
		count(&c.stats.NacksSent, 1)
	}
	return nil
}

// deliver a completely assembled message to the inbound queue.
func (c *Conn) deliver(msg []byte) {
	if !c.inbound.push(msg) {
		c.logger.WithField("length", len(msg)).Debug("Dropping message for a dead connection")
		return
	}

	count(&c.stats.MessagesDelivered, 1)
	count(&c.stats.BytesDelivered, len(msg))

	c.logger.WithFields(log.Fields{
		"length": len(msg),
	}).Debug("Received message")
}
