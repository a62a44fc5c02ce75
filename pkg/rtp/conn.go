// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/link"
)

// Conn is a reliable, message-oriented connection over a Link.
type Conn struct {
	// stats must stay the first field for 64-bit atomic alignment.
	stats counters

	link       link.Link
	codec      Codec
	ackTimeout time.Duration
	logger     *log.Entry

	// writeMutex serializes the sender's data packets and the receiver's answers on the Link.
	writeMutex sync.Mutex

	aliveMutex sync.Mutex
	alive      bool
	cause      error

	outbound *messageQueue
	inbound  *messageQueue
	ack      *ackSlot

	// unacked counts messages accepted by SendMessage but not yet fully acknowledged.
	unackedMutex sync.Mutex
	unackedCond  *sync.Cond
	unacked      int

	engines        sync.WaitGroup
	disconnectOnce sync.Once
}

// NewConn creates a Conn on an established Link and starts its sender and receiver goroutines. The
// Conn takes ownership of the Link.
func NewConn(l link.Link, opts ...Option) (*Conn, error) {
	conf, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		link:       l,
		codec:      conf.codec,
		ackTimeout: conf.ackTimeout,
		alive:      true,
	}

	if conf.logger != nil {
		c.logger = conf.logger.WithField("rtp", c)
	} else {
		c.logger = log.WithField("rtp", c)
	}

	c.outbound = newMessageQueue(c.Alive)
	c.inbound = newMessageQueue(c.Alive)
	c.ack = newAckSlot(c.Alive)
	c.unackedCond = sync.NewCond(&c.unackedMutex)

	c.engines.Add(2)
	go c.receiver()
	go c.sender()

	c.logger.WithFields(log.Fields{
		"max-payload": c.codec.MaxPayload,
		"checksum":    c.codec.Checksum,
	}).Debug("Started connection")

	return c, nil
}

// Alive reports if this Conn is still usable.
func (c *Conn) Alive() bool {
	c.aliveMutex.Lock()
	defer c.aliveMutex.Unlock()

	return c.alive
}

// Err returns the reason for this Conn's death or nil while it is alive.
func (c *Conn) Err() error {
	c.aliveMutex.Lock()
	defer c.aliveMutex.Unlock()

	if c.alive {
		return nil
	}
	return c.closedErr()
}

// closedErr wraps the cause into ErrClosed. The aliveMutex must be held.
func (c *Conn) closedErr() error {
	if c.cause == nil || errors.Is(c.cause, ErrClosed) {
		return ErrClosed
	}
	return &closedError{cause: c.cause}
}

// kill marks this Conn as dead, exactly once, and wakes every waiting goroutine.
func (c *Conn) kill(cause error) {
	c.aliveMutex.Lock()
	wasAlive := c.alive
	if wasAlive {
		c.alive = false
		c.cause = cause
	}
	c.aliveMutex.Unlock()

	if !wasAlive {
		return
	}

	if errors.Is(cause, ErrClosed) {
		c.logger.Debug("Connection closed")
	} else {
		c.logger.WithError(cause).Info("Connection died")
	}

	c.outbound.wake()
	c.inbound.wake()
	c.ack.wake()

	c.unackedMutex.Lock()
	c.unackedCond.Broadcast()
	c.unackedMutex.Unlock()
}

// writePacket marshals and sends a Packet over the Link.
func (c *Conn) writePacket(p Packet) error {
	frame, err := c.codec.Marshal(p)
	if err != nil {
		return err
	}

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	if n, err := c.link.Send(frame); err != nil {
		return err
	} else if n <= 0 {
		return fmt.Errorf("link sent %d bytes", n)
	}

	count(&c.stats.PacketsSent, 1)
	return nil
}

// SendMessage enqueues a copy of msg for transmission. It does not wait for the peer's
// acknowledgement; use Flush for this.
func (c *Conn) SendMessage(msg []byte) error {
	if len(msg) == 0 {
		return ErrEmptyMessage
	}

	data := make([]byte, len(msg))
	copy(data, msg)

	c.unackedMutex.Lock()
	c.unacked++
	c.unackedMutex.Unlock()

	if !c.outbound.push(data) {
		c.messageDone()
		return c.Err()
	}
	return nil
}

// messageDone marks one message from SendMessage as finished, successfully or not.
func (c *Conn) messageDone() {
	c.unackedMutex.Lock()
	c.unacked--
	c.unackedCond.Broadcast()
	c.unackedMutex.Unlock()
}

// Flush blocks until every message passed to SendMessage was acknowledged by the peer. An error is
// returned if the Conn dies first or the context is done.
func (c *Conn) Flush(ctx context.Context) error {
	stopSyn := make(chan struct{})
	defer close(stopSyn)

	go func() {
		select {
		case <-ctx.Done():
			c.unackedMutex.Lock()
			c.unackedCond.Broadcast()
			c.unackedMutex.Unlock()
		case <-stopSyn:
		}
	}()

	c.unackedMutex.Lock()
	defer c.unackedMutex.Unlock()

	for c.unacked > 0 && c.Alive() && ctx.Err() == nil {
		c.unackedCond.Wait()
	}

	switch {
	case c.unacked == 0:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return c.Err()
	}
}

// ReceiveMessage blocks until the next message arrives. Once the Conn is dead, an error wrapping
// ErrClosed is returned, even if received messages are still queued.
func (c *Conn) ReceiveMessage() ([]byte, error) {
	if msg, ok := c.inbound.pop(); ok {
		return msg, nil
	}
	return nil, c.Err()
}

// Undelivered removes and returns all received messages not yet returned by ReceiveMessage. This
// is meant for a dead Conn, e.g., after the peer terminated right after its last message was
// acknowledged.
func (c *Conn) Undelivered() [][]byte {
	return c.inbound.release()
}

// Disconnect terminates this Conn. A TERM packet is sent to the peer, both goroutines are stopped,
// the Link is closed, and queued messages are dropped. Only the first call has an effect.
func (c *Conn) Disconnect() (err error) {
	c.disconnectOnce.Do(func() {
		err = c.disconnect()
	})
	return
}

// Close is an alias for Disconnect.
func (c *Conn) Close() error {
	return c.Disconnect()
}

func (c *Conn) disconnect() error {
	var errs error

	if c.Alive() {
		if err := c.writePacket(c.codec.Control(Term)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("sending TERM failed: %w", err))
		}
	}

	c.kill(ErrClosed)

	if err := c.link.Close(); err != nil && !errors.Is(err, link.ErrClosed) {
		errs = multierror.Append(errs, fmt.Errorf("closing link failed: %w", err))
	}

	c.engines.Wait()

	droppedOut, droppedIn := c.outbound.drain(), c.inbound.drain()
	c.logger.WithFields(log.Fields{
		"dropped-outbound": droppedOut,
		"dropped-inbound":  droppedIn,
	}).Debug("Disconnected")

	return errs
}

// Stats returns a snapshot of this Conn's counters.
func (c *Conn) Stats() Stats {
	return c.stats.snapshot()
}

// Pending returns the number of messages waiting in the outbound and inbound queues.
func (c *Conn) Pending() (outbound, inbound int) {
	return c.outbound.size(), c.inbound.size()
}

func (c *Conn) String() string {
	return c.link.String()
}
