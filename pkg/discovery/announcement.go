// SPDX-FileCopyrightText: 2020 Markus Sommer
// SPDX-FileCopyrightText: 2020, 2021 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package discovery

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dtn7/cboring"
)

// Protocol of an announced listener.
type Protocol uint

const (
	// TCP listeners are dialed by tcp://host:port.
	TCP Protocol = 0

	// WebSocket listeners are dialed by ws://host:port/path.
	WebSocket Protocol = 1

	// QUIC listeners are dialed by quic://host:port.
	QUIC Protocol = 2
)

// CheckValid checks if this Protocol is known.
func (p Protocol) CheckValid() error {
	if p > QUIC {
		return fmt.Errorf("unknown protocol %d", uint(p))
	}
	return nil
}

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "tcp"
	case WebSocket:
		return "ws"
	case QUIC:
		return "quic"
	default:
		return "unknown"
	}
}

// ParseProtocol from its String representation.
func ParseProtocol(name string) (Protocol, error) {
	for _, p := range []Protocol{TCP, WebSocket, QUIC} {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown protocol %q", name)
}

// Announcement of some node's RTP listener.
type Announcement struct {
	Protocol Protocol
	Node     string
	Port     uint
	Path     string
}

// UnmarshalAnnouncements creates a new array of Announcement based on a CBOR byte string.
func UnmarshalAnnouncements(data []byte) (announcements []Announcement, err error) {
	buff := bytes.NewBuffer(data)

	if l, cErr := cboring.ReadArrayLength(buff); cErr != nil {
		err = cErr
		return
	} else {
		announcements = make([]Announcement, l)
	}

	for i := 0; i < len(announcements); i++ {
		if cErr := cboring.Unmarshal(&announcements[i], buff); cErr != nil {
			err = fmt.Errorf("unmarshalling Announcement %d failed: %v", i, cErr)
			return
		}
	}

	return
}

// MarshalAnnouncements into a CBOR byte string.
func MarshalAnnouncements(announcements []Announcement) (data []byte, err error) {
	buff := new(bytes.Buffer)

	if cErr := cboring.WriteArrayLength(uint64(len(announcements)), buff); cErr != nil {
		err = cErr
		return
	}

	for i := range announcements {
		announcement := announcements[i]
		if cErr := cboring.Marshal(&announcement, buff); cErr != nil {
			err = fmt.Errorf("marshalling Announcement %d (%v) failed: %v", i, announcement, cErr)
			return
		}
	}

	data = buff.Bytes()
	return
}

// MarshalCbor creates a CBOR representation for an Announcement.
func (announcement *Announcement) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(4, w); err != nil {
		return err
	}

	if err := cboring.WriteUInt(uint64(announcement.Protocol), w); err != nil {
		return err
	}
	if err := cboring.WriteByteString([]byte(announcement.Node), w); err != nil {
		return fmt.Errorf("marshalling node failed: %v", err)
	}
	if err := cboring.WriteUInt(uint64(announcement.Port), w); err != nil {
		return err
	}
	if err := cboring.WriteByteString([]byte(announcement.Path), w); err != nil {
		return fmt.Errorf("marshalling path failed: %v", err)
	}

	return nil
}

// UnmarshalCbor creates an Announcement from its CBOR representation.
func (announcement *Announcement) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if l != 4 {
		return fmt.Errorf("wrong array length: %d instead of 4", l)
	}

	if n, err := cboring.ReadUInt(r); err != nil {
		return err
	} else if protocol := Protocol(n); protocol.CheckValid() != nil {
		return protocol.CheckValid()
	} else {
		announcement.Protocol = protocol
	}
	if node, err := cboring.ReadByteString(r); err != nil {
		return fmt.Errorf("unmarshalling node failed: %v", err)
	} else {
		announcement.Node = string(node)
	}
	if n, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		announcement.Port = uint(n)
	}
	if path, err := cboring.ReadByteString(r); err != nil {
		return fmt.Errorf("unmarshalling path failed: %v", err)
	} else {
		announcement.Path = string(path)
	}

	return nil
}

func (announcement Announcement) String() string {
	return fmt.Sprintf("Announcement(%v,%s,%d,%q)", announcement.Protocol, announcement.Node, announcement.Port, announcement.Path)
}

// Peer is a discovered Announcement together with the announcer's address.
type Peer struct {
	Announcement
	Address string
}

// URI to be passed to rtp.Dial.
func (peer Peer) URI() string {
	switch peer.Protocol {
	case WebSocket:
		return fmt.Sprintf("ws://%s:%d%s", peer.Address, peer.Port, peer.Path)
	default:
		return fmt.Sprintf("%v://%s:%d", peer.Protocol, peer.Address, peer.Port)
	}
}
