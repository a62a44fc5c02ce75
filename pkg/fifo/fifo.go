// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fifo provides a generic first-in first-out queue.
//
// A Queue is not synchronized. Callers guard it with their own lock, usually the one which also
// backs a sync.Cond waiting for new elements.
package fifo

// compactThreshold is the number of consumed head slots after which the backing slice is compacted.
const compactThreshold = 64

// Queue is an unsynchronized first-in first-out queue.
type Queue[T any] struct {
	items []T
	head  int
}

// New creates an empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// PushTail appends an element at the end of the Queue.
func (q *Queue[T]) PushTail(v T) {
	q.items = append(q.items, v)
}

// PopHead removes and returns the first element. The second return value is false for an empty Queue.
func (q *Queue[T]) PopHead() (v T, ok bool) {
	if q.head == len(q.items) {
		return
	}

	var zero T
	v, ok = q.items[q.head], true
	q.items[q.head] = zero
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0

	case q.head >= compactThreshold && 2*q.head >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		for i := n; i < len(q.items); i++ {
			q.items[i] = zero
		}
		q.items = q.items[:n]
		q.head = 0
	}

	return
}

// Size of the Queue.
func (q *Queue[T]) Size() int {
	return len(q.items) - q.head
}

// Release empties the Queue and returns all remaining elements in order.
func (q *Queue[T]) Release() []T {
	rest := make([]T, q.Size())
	copy(rest, q.items[q.head:])

	q.items = nil
	q.head = 0
	return rest
}
