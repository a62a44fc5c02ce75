// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import "sync/atomic"

// Stats are a Conn's traffic counters.
type Stats struct {
	PacketsSent       uint64 `json:"packets_sent"`
	PacketsResent     uint64 `json:"packets_resent"`
	PacketsReceived   uint64 `json:"packets_received"`
	PacketsMalformed  uint64 `json:"packets_malformed"`
	AcksReceived      uint64 `json:"acks_received"`
	NacksReceived     uint64 `json:"nacks_received"`
	AcksSent          uint64 `json:"acks_sent"`
	NacksSent         uint64 `json:"nacks_sent"`
	MessagesSent      uint64 `json:"messages_sent"`
	MessagesDelivered uint64 `json:"messages_delivered"`
	BytesSent         uint64 `json:"bytes_sent"`
	BytesDelivered    uint64 `json:"bytes_delivered"`
}

// counters are updated atomically by both engines.
type counters Stats

func count(field *uint64, delta int) {
	atomic.AddUint64(field, uint64(delta))
}

func (c *counters) snapshot() Stats {
	return Stats{
		PacketsSent:       atomic.LoadUint64(&c.PacketsSent),
		PacketsResent:     atomic.LoadUint64(&c.PacketsResent),
		PacketsReceived:   atomic.LoadUint64(&c.PacketsReceived),
		PacketsMalformed:  atomic.LoadUint64(&c.PacketsMalformed),
		AcksReceived:      atomic.LoadUint64(&c.AcksReceived),
		NacksReceived:     atomic.LoadUint64(&c.NacksReceived),
		AcksSent:          atomic.LoadUint64(&c.AcksSent),
		NacksSent:         atomic.LoadUint64(&c.NacksSent),
		MessagesSent:      atomic.LoadUint64(&c.MessagesSent),
		MessagesDelivered: atomic.LoadUint64(&c.MessagesDelivered),
		BytesSent:         atomic.LoadUint64(&c.BytesSent),
		BytesDelivered:    atomic.LoadUint64(&c.BytesDelivered),
	}
}
