// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"sync"

	"github.com/dtn7/rtp-go/pkg/fifo"
)

// messageQueue is a blocking message FIFO, guarded by its own lock and condition. It stops
// accepting and returning messages as soon as its Conn is dead.
type messageQueue struct {
	mutex sync.Mutex
	cond  *sync.Cond
	items *fifo.Queue[[]byte]

	alive func() bool
}

func newMessageQueue(alive func() bool) *messageQueue {
	q := &messageQueue{
		items: fifo.New[[]byte](),
		alive: alive,
	}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

// push a message, transferring its ownership to the queue. False is returned for a dead Conn.
func (q *messageQueue) push(msg []byte) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if !q.alive() {
		return false
	}

	q.items.PushTail(msg)
	q.cond.Signal()
	return true
}

// pop blocks until a message is available or the Conn dies. In the latter case, false is returned.
func (q *messageQueue) pop() ([]byte, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for q.items.Size() == 0 && q.alive() {
		q.cond.Wait()
	}

	if !q.alive() {
		return nil, false
	}
	return q.items.PopHead()
}

// wake all waiters to re-check the Conn's liveness.
func (q *messageQueue) wake() {
	q.mutex.Lock()
	q.cond.Broadcast()
	q.mutex.Unlock()
}

// release removes and returns all queued messages.
func (q *messageQueue) release() [][]byte {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.items.Release()
}

// drain removes all queued messages.
func (q *messageQueue) drain() int {
	return len(q.release())
}

func (q *messageQueue) size() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.items.Size()
}
