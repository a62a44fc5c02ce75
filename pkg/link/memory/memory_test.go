// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/dtn7/rtp-go/pkg/link"
)

func TestPairDelivery(t *testing.T) {
	a, b := NewPair()
	defer a.Close()

	frames := [][]byte{[]byte("hello"), {}, []byte("world")}
	for _, f := range frames {
		if n, err := a.Send(f); err != nil || n != len(f) {
			t.Fatalf("send returned %d, %v", n, err)
		}
	}

	for _, f := range frames {
		if data, err := b.Receive(); err != nil {
			t.Fatal(err)
		} else if !bytes.Equal(data, f) {
			t.Fatalf("expected %q, got %q", f, data)
		}
	}
}

func TestPairDropEvery(t *testing.T) {
	a, b := NewPair()
	defer a.Close()

	a.SetFault(DropEvery(2))
	for i := 0; i < 6; i++ {
		if _, err := a.Send([]byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}

	for _, want := range []byte{0, 2, 4} {
		if data, err := b.Receive(); err != nil {
			t.Fatal(err)
		} else if data[0] != want {
			t.Fatalf("expected frame %d, got %d", want, data[0])
		}
	}

	if sent := a.Sent(); sent != 6 {
		t.Fatalf("expected 6 sent frames, got %d", sent)
	}
}

func TestPairFaultCopy(t *testing.T) {
	a, b := NewPair()
	defer a.Close()

	a.SetFault(func(_ int, frame []byte) []byte {
		frame[0] ^= 0xff
		return frame
	})

	orig := []byte{0x0f}
	if _, err := a.Send(orig); err != nil {
		t.Fatal(err)
	}
	if orig[0] != 0x0f {
		t.Fatalf("fault altered the caller's buffer")
	}

	if data, err := b.Receive(); err != nil {
		t.Fatal(err)
	} else if data[0] != 0xf0 {
		t.Fatalf("expected tampered frame, got %x", data)
	}
}

func TestPairCloseInterruptsReceive(t *testing.T) {
	a, b := NewPair()

	errChan := make(chan error)
	go func() {
		_, err := b.Receive()
		errChan <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errChan:
		if !errors.Is(err, link.ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("receive was not interrupted")
	}

	if _, err := b.Send([]byte("late")); !errors.Is(err, link.ErrClosed) {
		t.Fatalf("send after close returned %v", err)
	}

	// Closing twice is fine.
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}
