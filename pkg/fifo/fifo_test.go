// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package fifo

import "testing"

func TestQueueOrder(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"single", 1},
		{"few", 10},
		{"compacting", 1000},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			q := New[int]()
			for i := 0; i < test.n; i++ {
				q.PushTail(i)
			}

			if size := q.Size(); size != test.n {
				t.Fatalf("expected size %d, got %d", test.n, size)
			}

			for i := 0; i < test.n; i++ {
				v, ok := q.PopHead()
				if !ok {
					t.Fatalf("queue empty after %d pops", i)
				} else if v != i {
					t.Fatalf("expected %d, got %d", i, v)
				}
			}

			if _, ok := q.PopHead(); ok {
				t.Fatalf("queue not empty")
			}
		})
	}
}

func TestQueueInterleaved(t *testing.T) {
	q := New[string]()
	next := 0
	expected := 0

	for round := 0; round < 200; round++ {
		for i := 0; i < 3; i++ {
			q.PushTail(string(rune('a' + next%26)))
			next++
		}
		for i := 0; i < 2; i++ {
			v, ok := q.PopHead()
			if !ok {
				t.Fatalf("queue empty in round %d", round)
			}
			if want := string(rune('a' + expected%26)); v != want {
				t.Fatalf("round %d: expected %q, got %q", round, want, v)
			}
			expected++
		}
	}

	if size := q.Size(); size != next-expected {
		t.Fatalf("expected size %d, got %d", next-expected, size)
	}
}

func TestQueueRelease(t *testing.T) {
	q := New[int]()
	if _, ok := q.PopHead(); ok {
		t.Fatalf("pop on empty queue succeeded")
	}

	for i := 0; i < 5; i++ {
		q.PushTail(i)
	}
	_, _ = q.PopHead()

	rest := q.Release()
	if len(rest) != 4 {
		t.Fatalf("expected 4 released elements, got %d", len(rest))
	}
	for i, v := range rest {
		if v != i+1 {
			t.Fatalf("released element %d is %d", i, v)
		}
	}

	if q.Size() != 0 {
		t.Fatalf("queue not empty after release")
	}
}
