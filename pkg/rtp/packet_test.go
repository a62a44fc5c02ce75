// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"bytes"
	"errors"
	"testing"
)

func TestPacketizeHello(t *testing.T) {
	codec := Codec{MaxPayload: 4}
	packets := codec.Packetize([]byte("HELLO!"))

	expected := []Packet{
		{Type: Data, Checksum: 293, Payload: []byte("HELL")},
		{Type: LastData, Checksum: 112, Payload: []byte("O!")},
	}

	if len(packets) != len(expected) {
		t.Fatalf("expected %d packets, got %d", len(expected), len(packets))
	}

	for i := range expected {
		if packets[i].Type != expected[i].Type {
			t.Fatalf("packet %d: expected type %v, got %v", i, expected[i].Type, packets[i].Type)
		}
		if packets[i].Checksum != expected[i].Checksum {
			t.Fatalf("packet %d: expected checksum %d, got %d", i, expected[i].Checksum, packets[i].Checksum)
		}
		if !bytes.Equal(packets[i].Payload, expected[i].Payload) {
			t.Fatalf("packet %d: expected payload %q, got %q", i, expected[i].Payload, packets[i].Payload)
		}
	}
}

func TestPacketizeCount(t *testing.T) {
	tests := []struct {
		maxPayload int
		length     int
		packets    int
		lastLen    int
	}{
		{4, 0, 0, 0},
		{4, 1, 1, 1},
		{4, 3, 1, 3},
		{4, 4, 1, 4},
		{4, 5, 2, 1},
		{4, 8, 2, 4},
		{4, 9, 3, 1},
		{1, 7, 7, 1},
		{0, 1024, 1, 1024},
		{0, 1025, 2, 1},
		{DefaultMaxPayload, 10 * DefaultMaxPayload, 10, DefaultMaxPayload},
	}

	for _, test := range tests {
		codec := Codec{MaxPayload: test.maxPayload}
		msg := bytes.Repeat([]byte{0x17}, test.length)
		packets := codec.Packetize(msg)

		if len(packets) != test.packets {
			t.Fatalf("%d bytes at max payload %d: expected %d packets, got %d",
				test.length, test.maxPayload, test.packets, len(packets))
		}
		if test.packets == 0 {
			continue
		}

		for i, p := range packets[:len(packets)-1] {
			if p.Type != Data {
				t.Fatalf("packet %d has type %v", i, p.Type)
			}
			if len(p.Payload) != codec.maxPayload() {
				t.Fatalf("packet %d has payload length %d", i, len(p.Payload))
			}
		}

		last := packets[len(packets)-1]
		if last.Type != LastData {
			t.Fatalf("last packet has type %v", last.Type)
		}
		if len(last.Payload) != test.lastLen {
			t.Fatalf("expected last payload length %d, got %d", test.lastLen, len(last.Payload))
		}

		var joined []byte
		for _, p := range packets {
			if !codec.Verify(p) {
				t.Fatalf("packet %v does not verify", p)
			}
			joined = append(joined, p.Payload...)
		}
		if !bytes.Equal(joined, msg) {
			t.Fatalf("reassembled message differs")
		}
	}
}

func TestCodecMarshal(t *testing.T) {
	codec := Codec{MaxPayload: 4}
	p := codec.Packetize([]byte("O!"))[0]

	frame, err := codec.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	expected := []byte{
		byte(LastData), 0x00, // type, reserved
		0x00, 0x02, // payload length
		0x00, 0x00, 0x00, 0x70, // checksum, 112
		'O', '!', 0x00, 0x00, // payload, zero padded
	}
	if !bytes.Equal(frame, expected) {
		t.Fatalf("expected frame %x, got %x", expected, frame)
	}
	if len(frame) != codec.FrameSize() {
		t.Fatalf("frame size %d differs from %d", len(frame), codec.FrameSize())
	}

	p2, err := codec.Unmarshal(frame)
	if err != nil {
		t.Fatal(err)
	}
	if p2.Type != p.Type || p2.Checksum != p.Checksum || !bytes.Equal(p2.Payload, p.Payload) {
		t.Fatalf("expected %v, got %v", p, p2)
	}
}

func TestCodecControlPackets(t *testing.T) {
	codec := Codec{}

	for _, pt := range []PacketType{Ack, Nack, Term} {
		frame, err := codec.Marshal(codec.Control(pt))
		if err != nil {
			t.Fatal(err)
		}
		if len(frame) != 8+DefaultMaxPayload {
			t.Fatalf("control frame has %d bytes", len(frame))
		}

		p, err := codec.Unmarshal(frame)
		if err != nil {
			t.Fatal(err)
		}
		if p.Type != pt || len(p.Payload) != 0 || !codec.Verify(p) {
			t.Fatalf("unexpected control packet %v", p)
		}
	}
}

func TestCodecMarshalInvalid(t *testing.T) {
	codec := Codec{MaxPayload: 4}

	if _, err := codec.Marshal(Packet{Type: Data, Payload: []byte("12345")}); err == nil {
		t.Fatalf("oversized payload was marshalled")
	}
	if _, err := codec.Marshal(Packet{Type: PacketType(42)}); err == nil {
		t.Fatalf("unknown type was marshalled")
	}
}

func TestCodecUnmarshalMalformed(t *testing.T) {
	codec := Codec{MaxPayload: 4}

	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", []byte{}},
		{"short header", []byte{0x00, 0x00, 0x00}},
		{"unknown type", []byte{0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"length exceeds maximum", []byte{0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"length exceeds frame", []byte{0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := codec.Unmarshal(test.frame); !errors.Is(err, ErrMalformedPacket) {
				t.Fatalf("expected ErrMalformedPacket, got %v", err)
			}
		})
	}
}

func TestCodecUnmarshalSmallerPeer(t *testing.T) {
	small, large := Codec{MaxPayload: 4}, Codec{MaxPayload: 16}

	frame, err := small.Marshal(small.Packetize([]byte("abc"))[0])
	if err != nil {
		t.Fatal(err)
	}

	if p, err := large.Unmarshal(frame); err != nil {
		t.Fatal(err)
	} else if string(p.Payload) != "abc" || !large.Verify(p) {
		t.Fatalf("unexpected packet %v", p)
	}
}

func TestChecksumKinds(t *testing.T) {
	payload := []byte("123456789")

	if sum := ChecksumSum.Sum(payload); sum != 477 {
		t.Fatalf("expected sum 477, got %d", sum)
	}
	if sum := ChecksumCRC32.Sum(payload); sum != 0xe3069283 {
		t.Fatalf("expected CRC32C 0xe3069283, got %#x", sum)
	}

	for _, kind := range []ChecksumKind{ChecksumSum, ChecksumCRC16, ChecksumCRC32} {
		t.Run(kind.String(), func(t *testing.T) {
			codec := Codec{MaxPayload: 16, Checksum: kind}
			p := codec.Packetize(payload)[0]
			if !codec.Verify(p) {
				t.Fatalf("packet does not verify")
			}

			p.Payload = append([]byte{}, p.Payload...)
			p.Payload[3] ^= 0xff
			if codec.Verify(p) {
				t.Fatalf("corrupted packet verifies")
			}

			if parsed, err := ParseChecksumKind(kind.String()); err != nil || parsed != kind {
				t.Fatalf("parsing %q resulted in %v, %v", kind, parsed, err)
			}
		})
	}

	if _, err := ParseChecksumKind("md5"); err == nil {
		t.Fatalf("unknown checksum was parsed")
	}
}

func TestPacketTypeString(t *testing.T) {
	names := map[PacketType]string{
		Data:           "DATA",
		LastData:       "LAST_DATA",
		Ack:            "ACK",
		Nack:           "NACK",
		Term:           "TERM",
		PacketType(23): "UNKNOWN(23)",
	}

	for pt, name := range names {
		if pt.String() != name {
			t.Fatalf("expected %q, got %q", name, pt.String())
		}
	}
}
