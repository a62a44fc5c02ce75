// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rtp implements a reliable, message-oriented transport on top of an unreliable Link.
//
// Messages of arbitrary length are split into fixed-size packets, each protected by a checksum.
// Packets are transmitted stop-and-wait: the sender waits for an ACK or NACK after every packet and
// retransmits the very same packet on a NACK. Thus, messages arrive complete, uncorrupted and in
// order.
//
// Each Conn runs two goroutines, a sender draining the outbound queue and a receiver reading from
// the Link, assembling messages and answering with ACKs and NACKs. A TERM packet or a failing Link
// kills the Conn. Afterwards, every blocked or subsequent call returns ErrClosed.
//
//	conn, err := rtp.Dial("tcp://localhost:35037")
//	if err != nil {
//		// ...
//	}
//	defer conn.Disconnect()
//
//	_ = conn.SendMessage([]byte("hello world"))
//	msg, err := conn.ReceiveMessage()
package rtp
