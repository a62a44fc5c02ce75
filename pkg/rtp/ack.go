// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"sync"
	"time"
)

// ackSlot hands the outcome of a sent packet from the receiver to the sender. It is a single-slot
// rendezvous: each outcome is consumed at most once, later outcomes overwrite unconsumed ones.
type ackSlot struct {
	mutex   sync.Mutex
	cond    *sync.Cond
	pending bool
	outcome PacketType

	alive func() bool
}

func newAckSlot(alive func() bool) *ackSlot {
	s := &ackSlot{alive: alive}
	s.cond = sync.NewCond(&s.mutex)
	return s
}

// post an Ack or Nack outcome.
func (s *ackSlot) post(outcome PacketType) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.outcome = outcome
	s.pending = true
	s.cond.Signal()
}

// reset discards an unconsumed outcome. It is called before each transmission.
func (s *ackSlot) reset() {
	s.mutex.Lock()
	s.pending = false
	s.mutex.Unlock()
}

// await the next outcome. A positive timeout limits the waiting time, resulting in ErrAckTimeout.
// ErrClosed is returned if the Conn dies while waiting.
func (s *ackSlot) await(timeout time.Duration) (PacketType, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	expired := false
	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			s.mutex.Lock()
			expired = true
			s.cond.Broadcast()
			s.mutex.Unlock()
		})
		defer timer.Stop()
	}

	for !s.pending && !expired && s.alive() {
		s.cond.Wait()
	}

	switch {
	case s.pending:
		s.pending = false
		return s.outcome, nil
	case expired:
		return 0, ErrAckTimeout
	default:
		return 0, ErrClosed
	}
}

// wake all waiters to re-check the Conn's liveness.
func (s *ackSlot) wake() {
	s.mutex.Lock()
	s.cond.Broadcast()
	s.mutex.Unlock()
}
