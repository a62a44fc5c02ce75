// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package memory provides a pair of in-memory Links, mostly used for testing.
//
// Each direction can be tampered with by a Fault function, e.g., to corrupt or drop frames.
package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dtn7/rtp-go/pkg/link"
)

// Fault inspects the nth (starting at one) frame sent by an Endpoint. It returns the frame to be
// delivered, which might be altered, or nil to drop it. The frame is already a copy.
type Fault func(n int, frame []byte) []byte

// DropEvery creates a Fault which drops each nth frame.
func DropEvery(n int) Fault {
	return func(i int, frame []byte) []byte {
		if n > 0 && i%n == 0 {
			return nil
		}
		return frame
	}
}

var pairCounter uint64

// pipe is the shared state of two connected Endpoints.
type pipe struct {
	id uint64

	closeOnce sync.Once
	closedSyn chan struct{}
}

// Endpoint is one side of an in-memory Link pair.
type Endpoint struct {
	name string
	pipe *pipe
	peer *Endpoint

	inChan chan []byte

	faultMutex sync.Mutex
	fault      Fault
	counter    int
}

// NewPair creates two connected Endpoints.
func NewPair() (a, b *Endpoint) {
	p := &pipe{
		id:        atomic.AddUint64(&pairCounter, 1),
		closedSyn: make(chan struct{}),
	}

	a = &Endpoint{name: "a", pipe: p, inChan: make(chan []byte, 64)}
	b = &Endpoint{name: "b", pipe: p, inChan: make(chan []byte, 64)}
	a.peer, b.peer = b, a
	return
}

// SetFault installs a Fault for all frames sent from this Endpoint. A nil Fault disables tampering.
func (e *Endpoint) SetFault(f Fault) {
	e.faultMutex.Lock()
	defer e.faultMutex.Unlock()

	e.fault = f
}

// Sent is the number of frames passed to Send, including dropped ones.
func (e *Endpoint) Sent() int {
	e.faultMutex.Lock()
	defer e.faultMutex.Unlock()

	return e.counter
}

func (e *Endpoint) Send(frame []byte) (int, error) {
	select {
	case <-e.pipe.closedSyn:
		return 0, link.ErrClosed
	default:
	}

	data := make([]byte, len(frame))
	copy(data, frame)

	e.faultMutex.Lock()
	e.counter++
	if e.fault != nil {
		data = e.fault(e.counter, data)
	}
	e.faultMutex.Unlock()

	if data == nil {
		return len(frame), nil
	}

	select {
	case e.peer.inChan <- data:
		return len(frame), nil
	case <-e.pipe.closedSyn:
		return 0, link.ErrClosed
	}
}

func (e *Endpoint) Receive() ([]byte, error) {
	// Frames sent before Close are still delivered.
	select {
	case data := <-e.inChan:
		return data, nil
	default:
	}

	select {
	case data := <-e.inChan:
		return data, nil
	case <-e.pipe.closedSyn:
		return nil, link.ErrClosed
	}
}

// Close this Endpoint, which also disconnects its peer.
func (e *Endpoint) Close() error {
	e.pipe.closeOnce.Do(func() { close(e.pipe.closedSyn) })
	return nil
}

func (e *Endpoint) String() string {
	return fmt.Sprintf("memory://%d/%s", e.pipe.id, e.name)
}
