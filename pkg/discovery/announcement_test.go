// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2020 Markus Sommer
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package discovery

import (
	"reflect"
	"testing"

	"github.com/schollz/peerdiscovery"
)

func TestDiscoveryMessageCbor(t *testing.T) {
	var tests = []Announcement{
		{Protocol: TCP, Node: "alpha", Port: 35037},
		{Protocol: WebSocket, Node: "alpha", Port: 8080, Path: "/ws"},
		{Protocol: QUIC, Node: "beta", Port: 35038},
		{Protocol: TCP, Node: "", Port: 0},
	}

	for _, dmIn := range tests {
		buff, err := MarshalAnnouncements([]Announcement{dmIn})
		if err != nil {
			t.Fatalf("Encoding failed: %v", err)
		}

		dmsOut, err := UnmarshalAnnouncements(buff)
		if err != nil {
			t.Fatalf("Decoding failed: %v", err)
		}

		if l := len(dmsOut); l != 1 {
			t.Fatalf("Length of decoded Announcements is %d != 1", l)
		}

		if !reflect.DeepEqual(dmIn, dmsOut[0]) {
			t.Fatalf("Decoded Announcement differs: %v became %v", dmIn, dmsOut[0])
		}
	}
}

func TestDiscoveryMessageInvalidProtocol(t *testing.T) {
	data, err := MarshalAnnouncements([]Announcement{{Protocol: Protocol(23), Node: "x", Port: 1}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := UnmarshalAnnouncements(data); err == nil {
		t.Fatalf("Announcement with an unknown protocol was accepted")
	}
}

func TestPeerURI(t *testing.T) {
	tests := []struct {
		peer Peer
		uri  string
	}{
		{Peer{Announcement{TCP, "n", 35037, ""}, "10.0.0.1"}, "tcp://10.0.0.1:35037"},
		{Peer{Announcement{WebSocket, "n", 8080, "/ws"}, "10.0.0.1"}, "ws://10.0.0.1:8080/ws"},
		{Peer{Announcement{QUIC, "n", 35038, ""}, "[fe80::1]"}, "quic://[fe80::1]:35038"},
	}

	for _, test := range tests {
		if uri := test.peer.URI(); uri != test.uri {
			t.Fatalf("expected %q, got %q", test.uri, uri)
		}
	}
}

func TestManagerNotify(t *testing.T) {
	var notified []Peer
	manager := &Manager{
		Node:   "self",
		Notify: func(peer Peer) { notified = append(notified, peer) },
	}

	payload, err := MarshalAnnouncements([]Announcement{
		{Protocol: TCP, Node: "self", Port: 1},
		{Protocol: QUIC, Node: "other", Port: 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	manager.notify(peerdiscovery.Discovered{Address: "192.0.2.1", Payload: payload})
	manager.notify(peerdiscovery.Discovered{Address: "192.0.2.2", Payload: []byte{0xff}})

	if len(notified) != 1 {
		t.Fatalf("expected one notification, got %d", len(notified))
	}
	if uri := notified[0].URI(); uri != "quic://192.0.2.1:2" {
		t.Fatalf("unexpected peer %s", uri)
	}
}

func TestProtocolParse(t *testing.T) {
	for _, p := range []Protocol{TCP, WebSocket, QUIC} {
		if parsed, err := ParseProtocol(p.String()); err != nil || parsed != p {
			t.Fatalf("parsing %v resulted in %v, %v", p, parsed, err)
		}
	}

	if _, err := ParseProtocol("smoke-signal"); err == nil {
		t.Fatalf("unknown protocol was parsed")
	}
}
