// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dtn7/rtp-go/pkg/link"
	"github.com/dtn7/rtp-go/pkg/link/quic"
	"github.com/dtn7/rtp-go/pkg/link/tcp"
	"github.com/dtn7/rtp-go/pkg/link/ws"
)

// serveEcho accepts Links and echoes every received message until the listener is closed.
func serveEcho(t *testing.T, ln link.Listener, opts ...Option) {
	go func() {
		for {
			l, err := ln.Accept()
			if err != nil {
				return
			}

			c, err := NewConn(l, opts...)
			if err != nil {
				t.Error(err)
				return
			}

			go func() {
				defer c.Disconnect()
				for {
					msg, err := c.ReceiveMessage()
					if err != nil {
						return
					}
					if err := c.SendMessage(msg); err != nil {
						return
					}
				}
			}()
		}
	}()
}

func checkEcho(t *testing.T, c *Conn) {
	t.Helper()

	msgs := [][]byte{
		[]byte("hello world"),
		bytes.Repeat([]byte("0123456789"), 500),
		{0x00},
	}

	for _, msg := range msgs {
		if err := c.SendMessage(msg); err != nil {
			t.Fatal(err)
		}
		if echo := receiveTimeout(t, c, 10*time.Second); !bytes.Equal(echo, msg) {
			t.Fatalf("echo of %d bytes differs", len(msg))
		}
	}

	if err := c.Disconnect(); err != nil {
		t.Fatal(err)
	}
}

func TestDialTCP(t *testing.T) {
	ln, err := tcp.Listen("localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	serveEcho(t, ln, WithMaxPayload(256))

	c, err := Dial(fmt.Sprintf("tcp://%v", ln.Addr()), WithMaxPayload(256))
	if err != nil {
		t.Fatal(err)
	}
	checkEcho(t, c)
}

func TestConnectTCP(t *testing.T) {
	ln, err := tcp.Listen("localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	serveEcho(t, ln, WithChecksum(ChecksumCRC32))

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	c, err := Connect(host, port, WithChecksum(ChecksumCRC32))
	if err != nil {
		t.Fatal(err)
	}
	checkEcho(t, c)
}

func TestConnectRefused(t *testing.T) {
	ln, err := tcp.Listen("localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	_ = ln.Close()

	if c, err := Connect("localhost", addr.Port); err == nil {
		_ = c.Disconnect()
		t.Fatalf("connected to a closed port")
	}
}

func TestDialWebSocket(t *testing.T) {
	ln := ws.NewListener()
	server := httptest.NewServer(ln)
	defer server.Close()
	defer ln.Close()

	serveEcho(t, ln)

	c, err := Dial("ws" + strings.TrimPrefix(server.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}
	checkEcho(t, c)
}

func TestDialQUIC(t *testing.T) {
	ln, err := quic.Listen("localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	serveEcho(t, ln, WithChecksum(ChecksumCRC16))

	c, err := Dial("quic://"+ln.Addr(), WithChecksum(ChecksumCRC16))
	if err != nil {
		t.Fatal(err)
	}
	checkEcho(t, c)
}

func TestDialUnknownScheme(t *testing.T) {
	if _, err := Dial("carrier-pigeon://coop"); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
}
