// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PacketType identifies a Packet's purpose on the wire.
type PacketType uint8

const (
	// Data carries a fragment of a message which is followed by more fragments.
	Data PacketType = 0

	// LastData carries a message's final fragment.
	LastData PacketType = 1

	// Ack confirms a correctly received data packet.
	Ack PacketType = 2

	// Nack rejects a corrupted data packet and requests its retransmission.
	Nack PacketType = 3

	// Term announces the connection's termination.
	Term PacketType = 4
)

func (t PacketType) String() string {
	switch t {
	case Data:
		return "DATA"
	case LastData:
		return "LAST_DATA"
	case Ack:
		return "ACK"
	case Nack:
		return "NACK"
	case Term:
		return "TERM"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// IsData checks if this type carries a payload.
func (t PacketType) IsData() bool {
	return t == Data || t == LastData
}

func (t PacketType) valid() bool {
	return t <= Term
}

// Packet is the unit exchanged over a Link. Its payload length is len(Payload).
type Packet struct {
	Type     PacketType
	Checksum uint32
	Payload  []byte
}

func (p Packet) String() string {
	return fmt.Sprintf("%v(len:%d,checksum:%d)", p.Type, len(p.Payload), p.Checksum)
}

const (
	// DefaultMaxPayload is the payload capacity of a Codec without an explicit MaxPayload.
	DefaultMaxPayload = 1024

	// MaxPayloadLimit is the largest MaxPayload representable in the packet header.
	MaxPayloadLimit = math.MaxUint16

	headerLen = 8
)

// Codec splits messages into Packets and converts Packets from and to their wire format.
//
// A frame has a fixed size of 8 + MaxPayload bytes, all fields in network byte order:
//
//	type (1) | reserved (1) | payload length (2) | checksum (4) | payload (MaxPayload)
//
// Only the first payload length bytes of the payload are significant, the rest is zero.
type Codec struct {
	MaxPayload int
	Checksum   ChecksumKind
}

func (c Codec) maxPayload() int {
	if c.MaxPayload <= 0 {
		return DefaultMaxPayload
	}
	return c.MaxPayload
}

// FrameSize of a marshalled Packet.
func (c Codec) FrameSize() int {
	return headerLen + c.maxPayload()
}

// Packetize splits a message into ceil(len(msg) / MaxPayload) data packets. All but the last are
// of type Data, the last one is LastData. The Payloads are slices of msg.
func (c Codec) Packetize(msg []byte) []Packet {
	maxPayload := c.maxPayload()
	count := (len(msg) + maxPayload - 1) / maxPayload

	packets := make([]Packet, 0, count)
	for i := 0; i < count; i++ {
		start, end := i*maxPayload, (i+1)*maxPayload
		if end > len(msg) {
			end = len(msg)
		}

		packetType := Data
		if i == count-1 {
			packetType = LastData
		}

		payload := msg[start:end]
		packets = append(packets, Packet{
			Type:     packetType,
			Checksum: c.Checksum.Sum(payload),
			Payload:  payload,
		})
	}

	return packets
}

// Control creates a payload-less Packet, e.g., an Ack.
func (c Codec) Control(t PacketType) Packet {
	return Packet{Type: t}
}

// Verify a Packet's checksum against its payload. Packets without payload are always valid.
func (c Codec) Verify(p Packet) bool {
	if !p.Type.IsData() {
		return true
	}
	return c.Checksum.Sum(p.Payload) == p.Checksum
}

// Marshal a Packet into a frame of FrameSize bytes.
func (c Codec) Marshal(p Packet) ([]byte, error) {
	if !p.Type.valid() {
		return nil, fmt.Errorf("cannot marshal packet of type %v", p.Type)
	} else if len(p.Payload) > c.maxPayload() {
		return nil, fmt.Errorf("payload of %d bytes exceeds maximum of %d bytes", len(p.Payload), c.maxPayload())
	}

	frame := make([]byte, c.FrameSize())
	frame[0] = byte(p.Type)
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(p.Payload)))
	binary.BigEndian.PutUint32(frame[4:8], p.Checksum)
	copy(frame[headerLen:], p.Payload)

	return frame, nil
}

// Unmarshal a frame into a Packet. Padding after the significant payload is not inspected, which
// allows peers with a smaller MaxPayload. The Packet's Payload is a copy.
func (c Codec) Unmarshal(frame []byte) (p Packet, err error) {
	if len(frame) < headerLen {
		err = fmt.Errorf("%w: frame of %d bytes is shorter than its header", ErrMalformedPacket, len(frame))
		return
	}

	p.Type = PacketType(frame[0])
	if !p.Type.valid() {
		err = fmt.Errorf("%w: unknown type %v", ErrMalformedPacket, p.Type)
		return
	}

	payloadLen := int(binary.BigEndian.Uint16(frame[2:4]))
	switch {
	case payloadLen > c.maxPayload():
		err = fmt.Errorf("%w: payload length %d exceeds maximum of %d", ErrMalformedPacket, payloadLen, c.maxPayload())
		return
	case headerLen+payloadLen > len(frame):
		err = fmt.Errorf("%w: payload length %d exceeds frame of %d bytes", ErrMalformedPacket, payloadLen, len(frame))
		return
	}

	p.Checksum = binary.BigEndian.Uint32(frame[4:8])
	p.Payload = make([]byte, payloadLen)
	copy(p.Payload, frame[headerLen:headerLen+payloadLen])

	return
}
