// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rf95

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// This test depends on your system's hardware. It needs two rf95modems, configured as a comma
// separated pair in RF95_DEVICES, e.g., "/dev/ttyUSB0,/dev/ttyUSB1".
func TestLinkHardware(t *testing.T) {
	devices := strings.Split(os.Getenv("RF95_DEVICES"), ",")
	if len(devices) != 2 {
		t.Skip("RF95_DEVICES is not set")
	}

	l0, err := Open(devices[0])
	if err != nil {
		t.Fatal(err)
	}
	defer l0.Close()

	l1, err := Open(devices[1])
	if err != nil {
		t.Fatal(err)
	}
	defer l1.Close()

	msg := []byte("hello world")
	if _, err := l0.Send(msg); err != nil {
		t.Fatal(err)
	}

	if data, err := l1.Receive(); err != nil {
		t.Fatal(err)
	} else if !bytes.Equal(data, msg) {
		t.Fatalf("wrong payload: expected %x, got %x", msg, data)
	}

	if _, err := l0.Send(make([]byte, l0.Mtu()+1)); err == nil {
		t.Fatalf("oversized frame was sent")
	}
}
