// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/dtn7/rtp-go/pkg/link/memory"
	"github.com/dtn7/rtp-go/pkg/rtp"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		dialURI string
		opts    int
		valid   bool
	}{
		{"tcp://localhost:35040", "tcp://localhost:35040", 0, true},
		{"tcp://localhost:35040?checksum=crc32", "tcp://localhost:35040", 1, true},
		{"ws://host:8080/rtp?checksum=crc16&max-payload=512&ack-timeout=3s", "ws://host:8080/rtp", 3, true},
		{"quic://[::1]:35041?max-payload=big", "", 0, false},
		{"tcp://localhost:1?checksum=md5&ack-timeout=later", "", 0, false},
	}

	for _, test := range tests {
		dialURI, opts, err := parseURI(test.uri)
		if test.valid != (err == nil) {
			t.Fatalf("%s: expected valid=%t, got %v", test.uri, test.valid, err)
		} else if !test.valid {
			continue
		}

		if dialURI != test.dialURI {
			t.Fatalf("%s: expected %s, got %s", test.uri, test.dialURI, dialURI)
		} else if len(opts) != test.opts {
			t.Fatalf("%s: expected %d options, got %d", test.uri, test.opts, len(opts))
		}
	}
}

// chanWriter passes each Write to a channel.
type chanWriter chan string

func (w chanWriter) Write(p []byte) (int, error) {
	w <- string(p)
	return len(p), nil
}

func TestChat(t *testing.T) {
	la, lb := memory.NewPair()

	a, err := rtp.NewConn(la)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rtp.NewConn(lb)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	out := make(chanWriter, 2)
	go func() {
		defer close(done)
		printMessages(b, out)
	}()

	if err := sendLines(a, strings.NewReader("hello\n\nworld\n")); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"hello\n", "world\n"} {
		select {
		case line := <-out:
			if line != want {
				t.Fatalf("expected %q, got %q", want, line)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout")
		}
	}

	if err := flushAndDisconnect(a); err != nil {
		t.Fatal(err)
	}
	<-done
}
